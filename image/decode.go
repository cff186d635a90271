package image

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode reads a PNG, JPEG, GIF, BMP, TIFF or WebP image. When maxWidth is
// positive and the image is wider, it is scaled down to maxWidth keeping its
// aspect ratio.
func Decode(r io.Reader, maxWidth int) (Bitmap, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Bitmap{}, "", fmt.Errorf("decode image: %w", err)
	}
	return FromImage(Fit(img, maxWidth)), format, nil
}

// Fit scales img down to maxWidth pixels wide using Lanczos resampling. Images
// that already fit, or a non-positive maxWidth, are returned unchanged.
func Fit(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)
}
