package label

import (
	"context"
	"fmt"
	"net"

	"github.com/skip2/go-qrcode"

	imgInternal "github.com/AlexStarov/labelprint/image"
)

// QR renders a QR code (error correction level L, no quiet zone) for
// Content. The image is Size pixels square, or as wide as the type when
// Size is zero.
type QR struct {
	Content string
	Size    int
}

func (q QR) Render(ctx context.Context, t Type) (imgInternal.Bitmap, error) {
	code, err := q.code()
	if err != nil {
		return imgInternal.Bitmap{}, err
	}
	size := q.Size
	if size <= 0 {
		size = t.Width
	}
	return imgInternal.FromImage(code.Image(size)), nil
}

// WriteFile stores the code as a PNG at path.
func (q QR) WriteFile(path string) error {
	code, err := q.code()
	if err != nil {
		return err
	}
	size := q.Size
	if size <= 0 {
		size = 256
	}
	return code.WriteFile(size, path)
}

func (q QR) code() (*qrcode.QRCode, error) {
	code, err := qrcode.New(q.Content, qrcode.Low)
	if err != nil {
		return nil, fmt.Errorf("qr %q: %w", q.Content, err)
	}
	code.DisableBorder = true
	return code, nil
}

// LocalIP returns the address this host uses for outbound traffic, or
// 127.0.0.1 when it cannot be determined. No packet is sent.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
