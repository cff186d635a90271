package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowLen(t *testing.T) {
	testCases := map[int]int{1: 1, 7: 1, 8: 1, 9: 2, 16: 2, 609: 77, 812: 102, 1024: 128}
	for width, want := range testCases {
		assert.Equal(t, want, RowLen(width), "width %d", width)
	}
}

func TestPackTwoByTwo(t *testing.T) {
	src, err := NewBitmap(2, 2, []uint8{
		255, 255, 255, 255, 0, 0, 0, 255,
		0, 0, 0, 255, 255, 255, 255, 255,
	})
	require.NoError(t, err)

	mono, err := Reduce(src)
	require.NoError(t, err)

	r := Pack(mono)
	assert.Equal(t, 1, r.RowLen)
	assert.Equal(t, []byte{0b01000000, 0b10000000}, r.Data)
}

func TestPackPadsRowsWithZero(t *testing.T) {
	mono, err := Reduce(flat(13, 3, 0, 0, 0, 255))
	require.NoError(t, err)

	r := Pack(mono)
	require.Equal(t, 2, r.RowLen)
	for y := 0; y < r.Height; y++ {
		assert.Equal(t, []byte{0xff, 0xf8}, r.Row(y), "row %d", y)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	for _, width := range []int{1, 8, 13, 812} {
		mono, err := Reduce(noise(width, 5, int64(width)))
		require.NoError(t, err)

		r := Pack(mono)
		require.Len(t, r.Data, RowLen(width)*5)

		back := Unpack(r)
		for y := 0; y < mono.Height; y++ {
			for x := 0; x < mono.Width; x++ {
				require.Equal(t, mono.BlackAt(x, y), back.BlackAt(x, y), "width %d at (%d,%d)", width, x, y)
			}
			if pad := width % 8; pad != 0 {
				last := r.Row(y)[r.RowLen-1]
				assert.Zero(t, last&(0xff>>uint(pad)), "padding bits set in row %d", y)
			}
		}
	}
}
