// Package printer delivers framed label commands to thermal printers over a
// raw TCP socket, a serial line or USB.
package printer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/gousb"
)

// Deliverer sends one complete command to a printer. Each call owns its own
// connection: it is opened, written once and closed before Deliver returns.
type Deliverer interface {
	Deliver(ctx context.Context, command []byte) error
}

// Type selects how the printer is attached.
type Type string

const (
	TypeNetwork Type = "network"
	TypeSerial  Type = "serial"
	TypeUSB     Type = "usb"
)

const (
	DefaultPort    = 9100
	DefaultTimeout = 10 * time.Second
)

// Config describes the printer a Deliverer is built for.
type Config struct {
	Type Type

	// network
	Host string
	Port int

	// serial
	SerialPort string
	BaudRate   int

	// usb, zero IDs pick the first printer class device
	VendorID  uint16
	ProductID uint16

	// Timeout bounds a whole delivery, connect included.
	Timeout time.Duration
}

// New returns the Deliverer matching cfg.Type. An empty type means network.
func New(cfg Config) (Deliverer, error) {
	switch cfg.Type {
	case TypeNetwork, "":
		if cfg.Host == "" {
			return nil, fmt.Errorf("printer host not configured")
		}
		return &Network{Host: cfg.Host, Port: cfg.Port, Timeout: cfg.Timeout}, nil

	case TypeSerial:
		if cfg.SerialPort == "" {
			return nil, fmt.Errorf("serial port not configured")
		}
		return &Serial{Port: cfg.SerialPort, BaudRate: cfg.BaudRate, Timeout: cfg.Timeout}, nil

	case TypeUSB:
		return &USB{VendorID: gousb.ID(cfg.VendorID), ProductID: gousb.ID(cfg.ProductID), Timeout: cfg.Timeout}, nil

	default:
		return nil, fmt.Errorf("unknown printer type: %s", cfg.Type)
	}
}

// withDeadline narrows ctx to timeout from now, keeping an earlier caller
// deadline if there is one.
func withDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// runAborting runs fn and calls abort if ctx ends first, which must make fn
// return. It reports ctx's error in that case.
func runAborting(ctx context.Context, abort func(), fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		abort()
		<-done
		return ctx.Err()
	}
}

// closeOnce returns a func closing c on its first call only, so an abort and
// a deferred close can share it.
func closeOnce(c io.Closer) func() {
	return sync.OnceFunc(func() { _ = c.Close() })
}
