// Package prescan prepares scoreboard screenshots for the OCR service. The
// ladder font is low-contrast against the battlefield backdrop, so a
// grayscale conversion plus a linear contrast stretch markedly improves
// digit recognition. Analysis itself stays external.
package prescan

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// maxDimension caps the longest screenshot edge before upload.
const maxDimension = 2048

// Prepare grayscales the screenshot, stretches its luminance range to full
// scale and downscales anything larger than the upload limit.
func Prepare(src image.Image) *image.Gray {
	gray := toGray(src)
	stretch(gray)
	return shrink(gray)
}

func toGray(src image.Image) *image.Gray {
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	xdraw.Draw(gray, bounds, src, bounds.Min, xdraw.Src)
	return gray
}

// stretch maps the observed [lo, hi] luminance range onto [0, 255] in place.
// A flat image (hi == lo) is left untouched.
func stretch(img *image.Gray) {
	lo, hi := uint8(255), uint8(0)
	for _, v := range img.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return
	}
	scale := 255.0 / float64(hi-lo)
	for i, v := range img.Pix {
		img.Pix[i] = uint8(float64(v-lo)*scale + 0.5)
	}
}

func shrink(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDimension {
		return img
	}
	ratio := float64(maxDimension) / float64(longest)
	dst := image.NewGray(image.Rect(0, 0, int(float64(w)*ratio), int(float64(h)*ratio)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}

// Threshold binarizes a prepared image at the given cutoff, for callers that
// want a pure black-on-white table.
func Threshold(img *image.Gray, cutoff uint8) *image.Gray {
	out := image.NewGray(img.Bounds())
	for i, v := range img.Pix {
		if v >= cutoff {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}
