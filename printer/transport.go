package printer

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"time"
)

// State is a step of a delivery.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateWriting
	StateClosing
	StateDelivered
	StateFailed
)

var stateNames = [...]string{"idle", "connecting", "connected", "writing", "closing", "delivered", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
	return stateNames[s]
}

// Network prints by streaming the command to a raw socket (port 9100 by
// convention). The printer sends no acknowledgement: the job counts as
// delivered once the printer closes its side after our half-close.
type Network struct {
	Host    string
	Port    int
	Timeout time.Duration

	// OnState, if set, is called on every state transition.
	OnState func(State)
}

// Addr returns host:port of the printer.
func (n *Network) Addr() string {
	port := n.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(n.Host, strconv.Itoa(port))
}

// Deliver connects, writes command, half-closes and waits for the printer to
// close. The whole exchange, connect included, must finish within Timeout
// measured from the call; there are no retries.
func (n *Network) Deliver(ctx context.Context, command []byte) error {
	ctx, cancel := withDeadline(ctx, n.Timeout)
	defer cancel()
	addr := n.Addr()

	n.enter(StateConnecting)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return n.fail(addr, ErrConnect, StateConnecting, err)
	}
	defer conn.Close()
	n.enter(StateConnected)

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return n.fail(addr, ErrIO, StateConnected, err)
		}
	}
	// caller cancellation interrupts blocked reads and writes
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	n.enter(StateWriting)
	if _, err := conn.Write(command); err != nil {
		return n.abort(ctx, conn, addr, StateWriting, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			return n.abort(ctx, conn, addr, StateWriting, err)
		}
	}

	n.enter(StateClosing)
	if _, err := io.Copy(io.Discard, conn); err != nil {
		return n.abort(ctx, conn, addr, StateClosing, err)
	}

	n.enter(StateDelivered)
	return nil
}

// abort classifies an i/o failure after connect. On timeout the connection is
// reset rather than closed gracefully.
func (n *Network) abort(ctx context.Context, conn net.Conn, addr string, state State, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return n.fail(addr, ErrIO, state, ctx.Err())
	case errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetLinger(0)
		}
		return n.fail(addr, ErrTimeout, state, err)
	default:
		return n.fail(addr, ErrIO, state, err)
	}
}

func (n *Network) fail(addr string, kind error, state State, err error) error {
	n.enter(StateFailed)
	return &DeliveryError{Kind: kind, Addr: addr, State: state, Err: err}
}

func (n *Network) enter(s State) {
	if n.OnState != nil {
		n.OnState(s)
	}
}
