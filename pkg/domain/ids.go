// Package domain holds typed identifiers shared across the ledger modules.
//
// Identifiers are distinct types so a carrier id can never be passed where a
// warehouse id is expected. Construct them via the Parse functions at trust
// boundaries; direct casting bypasses validation.
package domain

import (
	"strings"

	dErrors "freightledger/pkg/domain-errors"
)

// Typed identifiers. Shipment ids are ledger-derived hex digests; the rest
// are operator-assigned names or UUIDs registered out of band.
type (
	AccountID   string
	OrderID     string
	ShipmentID  string
	ProductID   string
	WarehouseID string
	CarrierID   string
)

const maxIDLength = 128

func parseID(s, kind string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", kind)
	}
	if len(trimmed) > maxIDLength {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "%s exceeds %d characters", kind, maxIDLength)
	}
	return trimmed, nil
}

func ParseAccountID(s string) (AccountID, error) {
	v, err := parseID(s, "account id")
	return AccountID(v), err
}

func ParseOrderID(s string) (OrderID, error) {
	v, err := parseID(s, "order id")
	return OrderID(v), err
}

func ParseShipmentID(s string) (ShipmentID, error) {
	v, err := parseID(s, "shipment id")
	return ShipmentID(v), err
}

func ParseProductID(s string) (ProductID, error) {
	v, err := parseID(s, "product id")
	return ProductID(v), err
}

func ParseWarehouseID(s string) (WarehouseID, error) {
	v, err := parseID(s, "warehouse id")
	return WarehouseID(v), err
}

func ParseCarrierID(s string) (CarrierID, error) {
	v, err := parseID(s, "carrier id")
	return CarrierID(v), err
}

func (i AccountID) String() string   { return string(i) }
func (i OrderID) String() string     { return string(i) }
func (i ShipmentID) String() string  { return string(i) }
func (i ProductID) String() string   { return string(i) }
func (i WarehouseID) String() string { return string(i) }
func (i CarrierID) String() string   { return string(i) }

func (i AccountID) IsZero() bool   { return i == "" }
func (i OrderID) IsZero() bool     { return i == "" }
func (i ShipmentID) IsZero() bool  { return i == "" }
func (i ProductID) IsZero() bool   { return i == "" }
func (i WarehouseID) IsZero() bool { return i == "" }
func (i CarrierID) IsZero() bool   { return i == "" }
