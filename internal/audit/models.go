package audit

import (
	"time"

	id "freightledger/pkg/domain"
)

// Kind tags an audit event for external query.
type Kind string

const (
	KindShipmentCreated      Kind = "shipment_created"
	KindShipmentUpdated      Kind = "shipment_updated"
	KindDeliveryVerified     Kind = "delivery_verified"
	KindProductAuthenticated Kind = "product_authenticated"
	KindEscrowReleased       Kind = "escrow_released"
	KindEscrowRefunded       Kind = "escrow_refunded"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Identifier fields are
// indexed by the journal for external query; unused fields stay empty.
type Event struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	Timestamp   time.Time      `json:"timestamp"`
	BlockHeight uint64         `json:"block_height,omitempty"`
	Actor       id.AccountID   `json:"actor,omitempty"`
	ShipmentID  id.ShipmentID  `json:"shipment_id,omitempty"`
	OrderID     id.OrderID     `json:"order_id,omitempty"`
	ProductID   id.ProductID   `json:"product_id,omitempty"`
	Warehouse   id.WarehouseID `json:"warehouse,omitempty"`
	Carrier     id.CarrierID   `json:"carrier,omitempty"`
	Status      string         `json:"status,omitempty"`
	EventType   string         `json:"event_type,omitempty"`
	Outcome     string         `json:"outcome,omitempty"`
}
