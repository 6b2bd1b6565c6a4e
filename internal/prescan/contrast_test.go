package prescan

import (
	"image"
	"image/color"
	"testing"
)

func flatImage(t *testing.T, w, h int, v uint8) *image.RGBA {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestPrepareStretchesRange(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	img.Set(1, 0, color.RGBA{R: 160, G: 160, B: 160, A: 255})

	out := Prepare(img)
	if out.Pix[0] != 0 {
		t.Fatalf("darkest pixel = %d, want 0", out.Pix[0])
	}
	if out.Pix[1] != 255 {
		t.Fatalf("brightest pixel = %d, want 255", out.Pix[1])
	}
}

func TestPrepareFlatImageUnchanged(t *testing.T) {
	out := Prepare(flatImage(t, 4, 4, 128))
	for i, v := range out.Pix {
		if v != 128 {
			t.Fatalf("pix[%d] = %d, want 128", i, v)
		}
	}
}

func TestPrepareShrinksOversized(t *testing.T) {
	out := Prepare(flatImage(t, maxDimension*2, 100, 50))
	if got := out.Bounds().Dx(); got != maxDimension {
		t.Fatalf("width = %d, want %d", got, maxDimension)
	}
	if got := out.Bounds().Dy(); got != 50 {
		t.Fatalf("height = %d, want 50", got)
	}
}

func TestThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.Pix = []uint8{10, 128, 240}
	out := Threshold(img, 128)
	want := []uint8{0, 255, 255}
	for i := range want {
		if out.Pix[i] != want[i] {
			t.Fatalf("pix[%d] = %d, want %d", i, out.Pix[i], want[i])
		}
	}
}
