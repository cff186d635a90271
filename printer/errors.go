package printer

import (
	"errors"
	"fmt"
)

// Failure kinds. A *DeliveryError wraps exactly one of them.
var (
	ErrConnect = errors.New("connect failed")
	ErrTimeout = errors.New("delivery timed out")
	ErrIO      = errors.New("i/o error")
)

// DeliveryError describes a failed delivery: which kind of failure, the
// printer address, the state the job was in and the underlying cause.
type DeliveryError struct {
	Kind  error
	Addr  string
	State State
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("printer %s: %v while %s: %v", e.Addr, e.Kind, e.State, e.Err)
}

func (e *DeliveryError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
