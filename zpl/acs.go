package zpl

import (
	"encoding/hex"
	"strings"

	imgInternal "github.com/AlexStarov/labelprint/image"
)

// ACS encodes rasters with the ZPL ASCII compression scheme: uppercase hex
// with run-length prefixes, ',' and '!' to fill a row with 0 or F and ':' to
// repeat the previous row.
type ACS struct{}

func (ACS) Encode(r imgInternal.PackedRaster) (Payload, error) {
	var sb strings.Builder
	prev := ""
	for y := 0; y < r.Height; y++ {
		row := strings.ToUpper(hex.EncodeToString(r.Row(y)))
		if y > 0 && row == prev {
			sb.WriteByte(':')
			continue
		}
		writeRow(&sb, row)
		prev = row
	}

	return Payload{
		Data:             sb.String(),
		Length:           len(r.Data),
		CompressedLength: len(r.Data),
		RowLen:           r.RowLen,
	}, nil
}

func writeRow(sb *strings.Builder, row string) {
	body, fill := row, byte(0)
	switch last := row[len(row)-1]; last {
	case '0':
		body, fill = strings.TrimRight(row, "0"), ','
	case 'F':
		body, fill = strings.TrimRight(row, "F"), '!'
	}

	for i := 0; i < len(body); {
		j := i + 1
		for j < len(body) && body[j] == body[i] {
			j++
		}
		writeCount(sb, j-i)
		sb.WriteByte(body[i])
		i = j
	}
	if fill != 0 {
		sb.WriteByte(fill)
	}
}

// writeCount emits the repeat prefix for n copies of a hex digit: z per 400,
// g..y for multiples of 20, G..Y for 1..19. A single digit needs no prefix.
func writeCount(sb *strings.Builder, n int) {
	if n == 1 {
		return
	}
	for ; n > 400; n -= 400 {
		sb.WriteByte('z')
	}
	if n >= 20 {
		sb.WriteByte(byte('g' + n/20 - 1))
		n %= 20
	}
	if n > 0 {
		sb.WriteByte(byte('G' + n - 1))
	}
}
