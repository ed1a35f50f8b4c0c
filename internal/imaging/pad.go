package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// FrameColor is the polaroid frame colour used for padding.
var FrameColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// PadSquare returns a square copy of img whose side is img's width. A
// landscape image is centred vertically with fill above and below; a
// portrait image is centred and cropped top and bottom.
func PadSquare(img image.Image, fill color.Color) *image.NRGBA {
	b := img.Bounds()
	size := b.Dx()

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)

	y := (size - b.Dy()) / 2
	r := image.Rect(0, y, size, y+b.Dy())
	draw.Draw(dst, r, img, b.Min, draw.Over)
	return dst
}

// Fit scales img down so neither side exceeds max. Smaller images are
// returned unchanged.
func Fit(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if max <= 0 || (w <= max && h <= max) {
		return img
	}

	if w >= h {
		h = h * max / w
		w = max
	} else {
		w = w * max / h
		h = max
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
