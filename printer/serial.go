package printer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.bug.st/serial"
)

// Serial prints over a serial line (COM3, /dev/ttyUSB0 ...).
type Serial struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
}

// Deliver opens the port, writes command, waits for the output buffer to
// drain and closes the port.
func (s *Serial) Deliver(ctx context.Context, command []byte) error {
	ctx, cancel := withDeadline(ctx, s.Timeout)
	defer cancel()

	ports, err := serial.GetPortsList()
	if err != nil {
		return &DeliveryError{Kind: ErrConnect, Addr: s.Port, State: StateConnecting, Err: fmt.Errorf("list serial ports: %w", err)}
	}
	if !slices.Contains(ports, s.Port) {
		return &DeliveryError{Kind: ErrConnect, Addr: s.Port, State: StateConnecting, Err: errors.New("serial port not found")}
	}

	baud := s.BaudRate
	if baud == 0 {
		baud = 9600
	}
	mode := &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(s.Port, mode)
	if err != nil {
		return &DeliveryError{Kind: ErrConnect, Addr: s.Port, State: StateConnecting, Err: err}
	}
	closePort := closeOnce(port)
	defer closePort()

	err = runAborting(ctx, closePort, func() error {
		for b := command; len(b) > 0; {
			n, err := port.Write(b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
		return port.Drain()
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return &DeliveryError{Kind: ErrTimeout, Addr: s.Port, State: StateWriting, Err: err}
	default:
		return &DeliveryError{Kind: ErrIO, Addr: s.Port, State: StateWriting, Err: err}
	}
}
