// Package zpl turns packed rasters into ZPL II graphic fields.
package zpl

import (
	"errors"
	"fmt"
	"strings"

	imgInternal "github.com/AlexStarov/labelprint/image"
)

// ErrUnsafePayload is returned by Validate when encoded data could not be
// embedded verbatim in a ZPL command stream.
var ErrUnsafePayload = errors.New("payload not embeddable in ZPL")

// Payload is an encoded graphic field. Length is the uncompressed byte count
// (RowLen * height), CompressedLength the graphic field count expected by ^GF.
type Payload struct {
	Data             string
	Length           int
	CompressedLength int
	RowLen           int
}

// Encoder compresses a packed raster into its ZPL text form. Implementations
// must be deterministic.
type Encoder interface {
	Encode(r imgInternal.PackedRaster) (Payload, error)
}

// Validate checks the codec contract against the raster the payload came from.
func (p Payload) Validate(r imgInternal.PackedRaster) error {
	if p.RowLen != r.RowLen {
		return fmt.Errorf("%w: rowlen %d, raster has %d", ErrUnsafePayload, p.RowLen, r.RowLen)
	}
	if want := r.RowLen * r.Height; p.Length != want {
		return fmt.Errorf("%w: length %d, raster has %d bytes", ErrUnsafePayload, p.Length, want)
	}
	if p.Data == "" {
		return fmt.Errorf("%w: empty data", ErrUnsafePayload)
	}
	if i := strings.IndexAny(p.Data, "^~\r\n"); i >= 0 {
		return fmt.Errorf("%w: control character %q at offset %d", ErrUnsafePayload, p.Data[i], i)
	}
	return nil
}

// NewEncoder returns the codec registered under name: "z64" or "acs".
func NewEncoder(name string) (Encoder, error) {
	switch strings.ToLower(name) {
	case "", "z64":
		return Z64{}, nil
	case "acs", "ascii":
		return ACS{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
