// warboard-prescan preprocesses a scoreboard screenshot before it is handed
// to the OCR service: grayscale, contrast stretch, optional binarization.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/veskur/warboard-bot/internal/prescan"
)

func main() {
	in := flag.String("in", "", "input screenshot (png or jpeg)")
	out := flag.String("out", "", "output png path")
	cutoff := flag.Int("threshold", 0, "binarize at this luminance (1-255, 0 disables)")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*in, *out, *cutoff); err != nil {
		fmt.Fprintf(os.Stderr, "warboard-prescan: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out string, cutoff int) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", in, err)
	}

	img := prescan.Prepare(src)
	if cutoff > 0 && cutoff <= 255 {
		img = prescan.Threshold(img, uint8(cutoff))
	}

	dst, err := os.Create(out)
	if err != nil {
		return err
	}
	defer dst.Close()

	if err := png.Encode(dst, img); err != nil {
		return fmt.Errorf("encode %s: %w", out, err)
	}
	return nil
}
