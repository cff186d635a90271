package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestDecodeKeepsStraightAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(1, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	b, format, err := Decode(encodePNG(t, src), 0)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 3, b.Width)
	assert.Equal(t, 2, b.Height)
	require.NoError(t, b.Validate())

	i := (1*3 + 1) * 4
	assert.Equal(t, []uint8{200, 100, 50, 128}, b.Pix[i:i+4])
}

func TestDecodeFitsWidth(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 400, 200))

	b, _, err := Decode(encodePNG(t, src), 100)
	require.NoError(t, err)
	assert.Equal(t, 100, b.Width)
	assert.Equal(t, 50, b.Height)
}

func TestFitLeavesNarrowImages(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 40, 20))
	assert.Same(t, image.Image(src), Fit(src, 100))
	assert.Same(t, image.Image(src), Fit(src, 0))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("not an image")), 0)
	assert.Error(t, err)
}

func TestBitmapNRGBAShares(t *testing.T) {
	b := flat(2, 2, 1, 2, 3, 4)
	img := b.NRGBA()
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 4}, img.NRGBAAt(1, 1))
	assert.Equal(t, b, FromImage(img))
}
