package image

// PackedRaster is a 1 bit per pixel image, MSB first, rows padded to a byte
// boundary. A set bit is a black dot.
type PackedRaster struct {
	Width, Height int
	RowLen        int
	Data          []byte
}

// RowLen returns the number of bytes needed for one row of width pixels.
func RowLen(width int) int {
	return (width + 7) / 8
}

// Pack converts a bi-level bitmap to the printer's packed layout. Padding bits
// at the end of each row are always zero.
func Pack(m Monochrome) PackedRaster {
	rowLen := RowLen(m.Width)
	data := make([]byte, rowLen*m.Height)

	for y := 0; y < m.Height; y++ {
		base := y * rowLen
		for x := 0; x < m.Width; x++ {
			if m.BlackAt(x, y) {
				data[base+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}

	return PackedRaster{Width: m.Width, Height: m.Height, RowLen: rowLen, Data: data}
}

// BlackAt reports whether the dot at (x, y) is set.
func (r PackedRaster) BlackAt(x, y int) bool {
	return r.Data[y*r.RowLen+x/8]&(0x80>>uint(x%8)) != 0
}

// Row returns the packed bytes of row y.
func (r PackedRaster) Row(y int) []byte {
	return r.Data[y*r.RowLen : (y+1)*r.RowLen]
}

// Unpack renders the raster back to an opaque black and white bitmap.
func Unpack(r PackedRaster) Monochrome {
	pix := make([]uint8, r.Width*r.Height*4)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			i := (y*r.Width + x) * 4
			v := uint8(255)
			if r.BlackAt(x, y) {
				v = 0
			}
			setGray(pix, i, v)
			pix[i+3] = 255
		}
	}
	return Monochrome{Width: r.Width, Height: r.Height, Pix: pix}
}
