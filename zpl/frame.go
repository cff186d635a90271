package zpl

import (
	"fmt"
	"strings"
)

// ZPL directives wrapping a graphic field.
const (
	JobStart   = "^XA"
	Origin     = "^FO0,0"
	FieldEnd   = "^FS"
	JobEnd     = "^XZ"
	fieldStart = "^GFA"
)

// Frame wraps p in a complete label: job start, a graphic field at the page
// origin, field separator and job end. The graphic field arguments are
// length, compressed length, bytes per row and data, in that order.
func Frame(p Payload) string {
	var sb strings.Builder
	sb.Grow(len(p.Data) + 48)
	sb.WriteString(JobStart)
	sb.WriteString(Origin)
	fmt.Fprintf(&sb, "%s,%d,%d,%d,%s", fieldStart, p.Length, p.CompressedLength, p.RowLen, p.Data)
	sb.WriteString(FieldEnd)
	sb.WriteString(JobEnd)
	return sb.String()
}
