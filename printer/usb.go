package printer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// USB prints to a USB printer class device through its bulk OUT endpoint.
type USB struct {
	// Zero IDs select the first device exposing a printer interface.
	VendorID, ProductID gousb.ID
	Timeout             time.Duration
}

func (u *USB) addr() string {
	if u.VendorID == 0 && u.ProductID == 0 {
		return "usb:auto"
	}
	return fmt.Sprintf("usb:%s:%s", u.VendorID, u.ProductID)
}

func (u *USB) Deliver(ctx context.Context, command []byte) error {
	ctx, cancel := withDeadline(ctx, u.Timeout)
	defer cancel()
	addr := u.addr()

	usbCtx, err := newUSBContext()
	if err != nil {
		return &DeliveryError{Kind: ErrConnect, Addr: addr, State: StateConnecting, Err: err}
	}
	defer usbCtx.Close()

	dev, err := u.open(usbCtx)
	if err != nil {
		return &DeliveryError{Kind: ErrConnect, Addr: addr, State: StateConnecting, Err: err}
	}
	defer dev.Close()
	dev.SetAutoDetach(true)

	out, release, err := printerEndpoint(dev)
	if err != nil {
		return &DeliveryError{Kind: ErrConnect, Addr: addr, State: StateConnected, Err: err}
	}
	defer release()

	if _, err := out.WriteContext(ctx, command); err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &DeliveryError{Kind: ErrTimeout, Addr: addr, State: StateWriting, Err: err}
		}
		return &DeliveryError{Kind: ErrIO, Addr: addr, State: StateWriting, Err: err}
	}
	return nil
}

// newUSBContext turns a libusb initialisation panic into an error.
func newUSBContext() (c *gousb.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("libusb unavailable: %v", r)
		}
	}()
	return gousb.NewContext(), nil
}

func (u *USB) open(ctx *gousb.Context) (*gousb.Device, error) {
	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if u.VendorID != 0 || u.ProductID != 0 {
			return desc.Vendor == u.VendorID && desc.Product == u.ProductID
		}
		return isPrinter(desc)
	})
	if len(devices) == 0 {
		if err != nil {
			return nil, err
		}
		return nil, errors.New("cannot find printer")
	}
	for _, d := range devices[1:] {
		d.Close()
	}
	return devices[0], nil
}

func isPrinter(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, iface := range cfg.Interfaces {
			for _, alt := range iface.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// printerEndpoint claims the printer interface of dev and returns its OUT
// endpoint together with a func releasing the claim.
func printerEndpoint(dev *gousb.Device) (*gousb.OutEndpoint, func(), error) {
	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get active config: %w", err)
	}
	cfg, err := dev.Config(cfgNum)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config: %w", err)
	}

	for _, iface := range cfg.Desc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class != gousb.ClassPrinter {
				continue
			}
			intf, err := cfg.Interface(iface.Number, alt.Alternate)
			if err != nil {
				cfg.Close()
				return nil, nil, fmt.Errorf("failed to claim interface: %w", err)
			}
			for _, ep := range intf.Setting.Endpoints {
				if ep.Direction != gousb.EndpointDirectionOut {
					continue
				}
				out, err := intf.OutEndpoint(ep.Number)
				if err != nil {
					continue
				}
				return out, func() { intf.Close(); cfg.Close() }, nil
			}
			intf.Close()
		}
	}

	cfg.Close()
	return nil, nil, errors.New("no printer interface with an output endpoint")
}
