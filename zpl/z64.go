package zpl

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/klauspost/compress/zlib"

	imgInternal "github.com/AlexStarov/labelprint/image"
	"github.com/AlexStarov/labelprint/util"
)

// Z64 encodes rasters as ":Z64:" + base64(zlib(data)) + ":" + crc, the form
// Zebra printers accept inside ^GFA.
type Z64 struct {
	// Level is the zlib compression level; zero means zlib.DefaultCompression.
	Level int
}

func (z Z64) Encode(r imgInternal.PackedRaster) (Payload, error) {
	level := z.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}

	var deflated bytes.Buffer
	w, err := zlib.NewWriterLevel(&deflated, level)
	if err != nil {
		return Payload{}, fmt.Errorf("z64: %w", err)
	}
	if _, err := w.Write(r.Data); err != nil {
		return Payload{}, fmt.Errorf("z64: deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return Payload{}, fmt.Errorf("z64: deflate: %w", err)
	}

	b64 := base64.StdEncoding.EncodeToString(deflated.Bytes())
	data := fmt.Sprintf(":Z64:%s:%04x", b64, util.CRC16([]byte(b64)))

	return Payload{
		Data:             data,
		Length:           len(r.Data),
		CompressedLength: len(r.Data),
		RowLen:           r.RowLen,
	}, nil
}
