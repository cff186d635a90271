package image

import "math"

// Luminance weights (ITU-R BT.601). They are fixed so that output stays
// byte-identical with previously rendered reference labels.
const (
	lumR, lumG, lumB = 0.299, 0.587, 0.114

	threshold = 128
)

// Monochrome is a bi-level bitmap: R, G and B of every pixel are equal and
// either 0 (black) or 255 (white). Alpha is carried over from the source.
type Monochrome struct {
	Width, Height int
	Pix           []uint8
}

// BlackAt reports whether the pixel at (x, y) is black.
func (m Monochrome) BlackAt(x, y int) bool {
	return m.Pix[(y*m.Width+x)*4] == 0
}

// Reduce converts b to grayscale and then applies Floyd-Steinberg error
// diffusion. b is left untouched; the result owns a fresh buffer.
func Reduce(b Bitmap) (Monochrome, error) {
	if err := b.Validate(); err != nil {
		return Monochrome{}, err
	}

	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)

	grayscale(pix)
	diffuse(pix, b.Width, b.Height)

	return Monochrome{Width: b.Width, Height: b.Height, Pix: pix}, nil
}

func luminance(r, g, b uint8) uint8 {
	return uint8(math.Round(lumR*float64(r) + lumG*float64(g) + lumB*float64(b)))
}

func grayscale(pix []uint8) {
	for i := 0; i < len(pix); i += 4 {
		setGray(pix, i, luminance(pix[i], pix[i+1], pix[i+2]))
	}
}

// diffuse must scan in raster order: every decision depends on error pushed
// forward by the pixels before it.
func diffuse(pix []uint8, width, height int) {
	stride := width * 4
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*stride + x*4

			old := int(pix[i])
			level := 255
			if old < threshold {
				level = 0
			}
			setGray(pix, i, uint8(level))
			qe := old - level

			if x+1 < width {
				spread(pix, i+4, qe, 7)
			}
			if y+1 < height {
				below := i + stride
				if x > 0 {
					spread(pix, below-4, qe, 3)
				}
				spread(pix, below, qe, 5)
				if x+1 < width {
					spread(pix, below+4, qe, 1)
				}
			}
		}
	}
}

// spread adds weight/16 of the quantisation error to the pixel at i. The sum
// is clamped to [0, 255] and truncated on store.
func spread(pix []uint8, i, qe, weight int) {
	v := float64(pix[i]) + float64(qe*weight)/16
	switch {
	case v < 0:
		v = 0
	case v > 255:
		v = 255
	}
	setGray(pix, i, uint8(v))
}

func setGray(pix []uint8, i int, v uint8) {
	pix[i] = v
	pix[i+1] = v
	pix[i+2] = v
}
