package image

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// ErrMalformedBitmap is returned when a pixel buffer does not describe a
// width x height RGBA image.
var ErrMalformedBitmap = errors.New("malformed bitmap")

// Bitmap is a row-major, top-to-bottom buffer of non-premultiplied RGBA quads.
type Bitmap struct {
	Width, Height int
	Pix           []uint8
}

// NewBitmap wraps pix after checking that it holds exactly width*height pixels.
func NewBitmap(width, height int, pix []uint8) (Bitmap, error) {
	b := Bitmap{Width: width, Height: height, Pix: pix}
	if err := b.Validate(); err != nil {
		return Bitmap{}, err
	}
	return b, nil
}

// Validate reports whether the bitmap dimensions agree with its buffer.
func (b Bitmap) Validate() error {
	if b.Width < 1 || b.Height < 1 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrMalformedBitmap, b.Width, b.Height)
	}
	if want := b.Width * b.Height * 4; len(b.Pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrMalformedBitmap, b.Width, b.Height, want, len(b.Pix))
	}
	return nil
}

// FromImage copies any image into a Bitmap whose origin is (0, 0).
func FromImage(img image.Image) Bitmap {
	r := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		// straight alpha copy, draw would round-trip through premultiplied values
		for y := 0; y < r.Dy(); y++ {
			i := src.PixOffset(r.Min.X, r.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[i:i+dst.Stride])
		}
	} else {
		draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	}
	return Bitmap{Width: r.Dx(), Height: r.Dy(), Pix: dst.Pix}
}

// NRGBA exposes the bitmap as a standard library image without copying.
func (b Bitmap) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}
