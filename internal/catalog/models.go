// Package catalog holds the reference data the shipment lifecycle consults:
// warehouse and carrier directories and the fulfillment order catalog. The
// ledger core only reads this data; administration happens out of band.
package catalog

import (
	"time"

	id "freightledger/pkg/domain"
)

type WarehouseStatus string

const (
	WarehouseActive    WarehouseStatus = "active"
	WarehouseSuspended WarehouseStatus = "suspended"
)

// Certification names a compliance attestation a warehouse holds
// (e.g. "gdp", "organic", "cold-chain").
type Certification string

// Region is a coarse delivery region used for carrier coverage matching.
type Region string

type ServiceLevel string

const (
	ServiceStandard     ServiceLevel = "standard"
	ServiceExpress      ServiceLevel = "express"
	ServiceRefrigerated ServiceLevel = "refrigerated"
)

// WarehouseInfo is directory data for one fulfillment site.
type WarehouseInfo struct {
	ID             id.WarehouseID
	Location       string
	Region         Region
	CapacityUnits  int64
	Certifications []Certification
	DispatchHours  int // typical hours from order to dispatch; selection tie-break
	Status         WarehouseStatus
}

func (w WarehouseInfo) holds(cert Certification) bool {
	for _, c := range w.Certifications {
		if c == cert {
			return true
		}
	}
	return false
}

// CarrierInfo is directory data for one carrier.
type CarrierInfo struct {
	ID           id.CarrierID
	ServiceLevel ServiceLevel
	Coverage     []Region
	CostRating   int // relative cost, lower is cheaper; selection tie-break
	Active       bool
}

func (c CarrierInfo) covers(region Region) bool {
	for _, r := range c.Coverage {
		if r == region {
			return true
		}
	}
	return false
}

// Address is a shipment destination.
type Address struct {
	Name   string
	Line1  string
	City   string
	Region Region
	Postal string
}

type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderCancelled OrderStatus = "cancelled"
)

// ProductQuantity is one order line.
type ProductQuantity struct {
	ProductID id.ProductID
	Quantity  int64
}

// Requirements constrain warehouse/carrier selection and derive the escrow
// release policy for a shipment.
type Requirements struct {
	MinCapacityUnits  int64
	Certifications    []Certification
	ServiceLevel      ServiceLevel
	ReleaseSignatures int // escrow signature threshold; 0 means single-signer
	QualityThreshold  int // minimum condition-report score; 0 disables the check
}

// FulfillmentOrder is created upstream and read-only to this core.
type FulfillmentOrder struct {
	ID           id.OrderID
	Products     []ProductQuantity
	Warehouse    id.WarehouseID // preferred site; selection may override
	Requirements Requirements
	Status       OrderStatus
	CreatedAt    time.Time
	ValueCents   int64
	Payee        id.AccountID
}

// TotalUnits sums the ordered quantities, the load the selected warehouse
// must be able to stage.
func (o FulfillmentOrder) TotalUnits() int64 {
	var total int64
	for _, p := range o.Products {
		total += p.Quantity
	}
	return total
}
