// Package label knows the label and document layouts and where their
// bitmaps come from.
package label

import (
	"errors"
	"fmt"
)

// ErrUnknownLabel is returned for label names that are not registered.
var ErrUnknownLabel = errors.New("unknown label type")

// Class tells whether a layout goes to the thermal printer.
type Class int

const (
	// ClassLabel layouts are dithered and sent to the thermal printer.
	ClassLabel Class = iota
	// ClassDocument layouts are printed from the browser on a regular printer.
	ClassDocument
)

func (c Class) String() string {
	if c == ClassDocument {
		return "document"
	}
	return "label"
}

// Type is a registered layout rendered at a fixed pixel viewport.
type Type struct {
	Name   string
	Title  string
	Page   string
	Width  int
	Height int
	Class  Class
}

// 203 dpi: 4x6 in = 812x1218 dots, 4x3 in = 812x609 dots.
var registry = []Type{
	{Name: "label", Title: "Hold OSD Quarantine 4x6", Page: "hold_OSD_quarantine_card.html", Width: 812, Height: 1218},
	{Name: "location_label", Title: "Location Label 4x3", Page: "location_label.html", Width: 812, Height: 609},
	{Name: "audit", Title: "Master Logistics Tally & 3PL Audit", Page: "master_logistics_tally_and_3PL_revenue_audit_card.html", Width: 1024, Height: 1400, Class: ClassDocument},
	{Name: "audit_pallet_location", Title: "Master Logistics Tally & 3PL Audit + Pallet Location", Page: "master_logistics_tally_and_3PL_revenue_audit_card_pallet_location.html", Width: 1024, Height: 1400},
	{Name: "outbound_audit", Title: "Outbound OSD Audit", Page: "outbound_OSD_audit.html", Width: 1024, Height: 1400},
	{Name: "transaction_log", Title: "Transaction Log", Page: "transaction_log.html", Width: 1024, Height: 1400, Class: ClassDocument},
}

// DefaultName is printed when a request names no label.
const DefaultName = "location_label"

// Lookup returns the registered type called name.
func Lookup(name string) (Type, error) {
	for _, t := range registry {
		if t.Name == name {
			return t, nil
		}
	}
	return Type{}, fmt.Errorf("%w: %q", ErrUnknownLabel, name)
}

// Types lists all registered layouts in registration order.
func Types() []Type {
	return append([]Type(nil), registry...)
}
