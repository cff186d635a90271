package pipeline

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imgInternal "github.com/AlexStarov/labelprint/image"
	"github.com/AlexStarov/labelprint/label"
	"github.com/AlexStarov/labelprint/printer"
	"github.com/AlexStarov/labelprint/zpl"
)

// MockSource returns a fixed bitmap or error and counts calls.
type MockSource struct {
	bitmap imgInternal.Bitmap
	err    error
	calls  int
}

func (m *MockSource) Render(ctx context.Context, t label.Type) (imgInternal.Bitmap, error) {
	m.calls++
	return m.bitmap, m.err
}

// MockPrinter records delivered commands.
type MockPrinter struct {
	commands [][]byte
	err      error
}

func (m *MockPrinter) Deliver(ctx context.Context, command []byte) error {
	m.commands = append(m.commands, command)
	return m.err
}

type brokenEncoder struct {
	payload zpl.Payload
	err     error
}

func (b brokenEncoder) Encode(r imgInternal.PackedRaster) (zpl.Payload, error) {
	return b.payload, b.err
}

// checker is the 2x2 bitmap white, black / black, white.
func checker() imgInternal.Bitmap {
	return imgInternal.Bitmap{Width: 2, Height: 2, Pix: []uint8{
		255, 255, 255, 255, 0, 0, 0, 255,
		0, 0, 0, 255, 255, 255, 255, 255,
	}}
}

func TestRunEndToEnd(t *testing.T) {
	src := &MockSource{bitmap: checker()}
	prn := &MockPrinter{}
	p := &Pipeline{Source: src, Encoder: zpl.ACS{}, Printer: prn}

	res, err := p.Run(context.Background(), "location_label")
	require.NoError(t, err)

	want := "^XA^FO0,0^GFA,2,2,1,4,8,^FS^XZ"
	require.Len(t, prn.commands, 1)
	assert.Equal(t, want, string(prn.commands[0]))

	assert.NotEmpty(t, res.JobID)
	assert.Equal(t, "location_label", res.LabelType)
	assert.Equal(t, 2, res.Width)
	assert.Equal(t, 2, res.Height)
	assert.Equal(t, 2, res.Length)
	assert.Equal(t, 1, res.RowLen)
	assert.Equal(t, want, res.Command)
	assert.Empty(t, res.ZPLPath)
}

func TestRunOverNetwork(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	prn := &printer.Network{Host: "127.0.0.1", Port: l.Addr().(*net.TCPAddr).Port, Timeout: 2 * time.Second}
	p := &Pipeline{Source: &MockSource{bitmap: checker()}, Printer: prn}

	res, err := p.Run(context.Background(), "label")
	require.NoError(t, err)
	assert.Equal(t, res.Command, string(<-received))
	assert.Contains(t, res.Command, "^GFA,2,2,1,:Z64:")
}

func TestRunJobIDsAreUnique(t *testing.T) {
	p := &Pipeline{Source: &MockSource{bitmap: checker()}, Printer: &MockPrinter{}}
	a, err := p.Run(context.Background(), "label")
	require.NoError(t, err)
	b, err := p.Run(context.Background(), "label")
	require.NoError(t, err)
	assert.NotEqual(t, a.JobID, b.JobID)
	assert.Equal(t, a.Command, b.Command)
}

func TestConvertDoesNotPrint(t *testing.T) {
	prn := &MockPrinter{}
	dir := t.TempDir()
	p := &Pipeline{Source: &MockSource{bitmap: checker()}, Printer: prn, DumpDir: dir}

	res, err := p.Convert(context.Background(), "label")
	require.NoError(t, err)
	assert.Empty(t, prn.commands)

	assert.Equal(t, filepath.Join(dir, "label.zpl"), res.ZPLPath)
	data, err := os.ReadFile(res.ZPLPath)
	require.NoError(t, err)
	assert.Equal(t, res.Command, string(data))
	assert.NoError(t, res.DumpErr)
}

func TestDumpFailureDoesNotFailJob(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	prn := &MockPrinter{}
	p := &Pipeline{Source: &MockSource{bitmap: checker()}, Printer: prn, DumpDir: filepath.Join(blocker, "out")}

	res, err := p.Run(context.Background(), "label")
	require.NoError(t, err)
	assert.Error(t, res.DumpErr)
	assert.Len(t, prn.commands, 1)
}

func TestRunFailures(t *testing.T) {
	renderErr := errors.New("browser crashed")

	testCases := []struct {
		name    string
		label   string
		source  *MockSource
		encoder zpl.Encoder
		stage   Stage
		kinds   []error
	}{
		{"unknown label", "pallet", &MockSource{bitmap: checker()}, nil, StageLookup, []error{label.ErrUnknownLabel}},
		{"document layout", "audit", &MockSource{bitmap: checker()}, nil, StageLookup, []error{ErrDocumentLabel}},
		{"render error", "label", &MockSource{err: renderErr}, nil, StageRender, []error{ErrRender, renderErr}},
		{"malformed bitmap", "label", &MockSource{bitmap: imgInternal.Bitmap{Width: 3, Height: 2, Pix: make([]uint8, 20)}}, nil, StageRender, []error{ErrRender, imgInternal.ErrMalformedBitmap}},
		{"codec error", "label", &MockSource{bitmap: checker()}, brokenEncoder{err: errors.New("out of memory")}, StageEncode, []error{ErrCodec}},
		{"codec contract", "label", &MockSource{bitmap: checker()}, brokenEncoder{payload: zpl.Payload{Data: "^XZ", Length: 2, CompressedLength: 2, RowLen: 1}}, StageEncode, []error{ErrCodec, zpl.ErrUnsafePayload}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			prn := &MockPrinter{}
			p := &Pipeline{Source: tc.source, Encoder: tc.encoder, Printer: prn}

			res, err := p.Run(context.Background(), tc.label)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Empty(t, prn.commands)

			var je *JobError
			require.True(t, errors.As(err, &je))
			assert.Equal(t, tc.stage, je.Stage)
			assert.Equal(t, tc.label, je.LabelType)
			assert.NotEmpty(t, je.JobID)
			for _, kind := range tc.kinds {
				assert.ErrorIs(t, err, kind)
			}
		})
	}
}

func TestDocumentLayoutIsNotRendered(t *testing.T) {
	src := &MockSource{bitmap: checker()}
	p := &Pipeline{Source: src, Printer: &MockPrinter{}}

	_, err := p.Run(context.Background(), "transaction_log")
	assert.ErrorIs(t, err, ErrDocumentLabel)
	assert.Zero(t, src.calls)
}

func TestRunDeliveryFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	prn := &printer.Network{Host: "127.0.0.1", Port: port, Timeout: time.Second}
	p := &Pipeline{Source: &MockSource{bitmap: checker()}, Printer: prn}

	res, err := p.Run(context.Background(), "location_label")
	require.Error(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Command)

	assert.ErrorIs(t, err, ErrDeliver)
	assert.ErrorIs(t, err, printer.ErrConnect)

	var je *JobError
	require.True(t, errors.As(err, &je))
	assert.Equal(t, StageDeliver, je.Stage)
	assert.Equal(t, res.JobID, je.JobID)
}

func TestRunWithoutPrinter(t *testing.T) {
	p := &Pipeline{Source: &MockSource{bitmap: checker()}}
	_, err := p.Run(context.Background(), "label")
	assert.ErrorIs(t, err, ErrDeliver)
}

func TestCompose(t *testing.T) {
	cmd, payload, err := Compose(checker(), zpl.ACS{})
	require.NoError(t, err)
	assert.Equal(t, "4,8,", payload.Data)
	assert.Equal(t, zpl.Frame(payload), cmd)

	_, _, err = Compose(imgInternal.Bitmap{}, nil)
	assert.ErrorIs(t, err, ErrRender)
}

func TestComposeStage(t *testing.T) {
	_, _, err := Compose(imgInternal.Bitmap{Width: 2, Height: 2}, nil)
	require.Error(t, err)
	assert.Equal(t, StageRender, composeStage(err))

	_, _, err = Compose(checker(), brokenEncoder{err: errors.New("out of memory")})
	require.Error(t, err)
	assert.Equal(t, StageEncode, composeStage(err))
}
