package label

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	imgInternal "github.com/AlexStarov/labelprint/image"
)

// Renderer produces the bitmap of a layout. Implementations wrap whatever
// engine turns the layout into pixels.
type Renderer interface {
	Render(ctx context.Context, t Type) (imgInternal.Bitmap, error)
}

// File renders every type from one image file.
type File struct {
	Path string
	// MaxWidth, when positive, scales wider images down to it.
	MaxWidth int
}

func (f File) Render(ctx context.Context, t Type) (imgInternal.Bitmap, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return imgInternal.Bitmap{}, err
	}
	defer fh.Close()

	b, _, err := imgInternal.Decode(fh, f.MaxWidth)
	if err != nil {
		return imgInternal.Bitmap{}, fmt.Errorf("%s: %w", f.Path, err)
	}
	return b, nil
}

var extensions = []string{".png", ".bmp", ".webp", ".tiff", ".tif", ".jpg", ".jpeg", ".gif"}

// Dir renders a type from the pre-rendered image <Dir>/<name>.<ext>.
type Dir struct {
	Dir string
	// Fit scales images wider than the type's viewport down to it.
	Fit bool
}

// Path returns the image file used for t.
func (d Dir) Path(t Type) (string, error) {
	for _, ext := range extensions {
		p := filepath.Join(d.Dir, t.Name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no rendered image for %q in %s: %w", t.Name, d.Dir, fs.ErrNotExist)
}

func (d Dir) Render(ctx context.Context, t Type) (imgInternal.Bitmap, error) {
	p, err := d.Path(t)
	if err != nil {
		return imgInternal.Bitmap{}, err
	}
	f := File{Path: p}
	if d.Fit {
		f.MaxWidth = t.Width
	}
	return f.Render(ctx, t)
}
