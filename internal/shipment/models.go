// Package shipment tracks a physical consignment from creation through
// verified delivery. A shipment's status only moves forward and its tracking
// sequence is append-only; records are never deleted.
package shipment

import (
	"time"

	"freightledger/internal/catalog"
	"freightledger/internal/provenance"
	id "freightledger/pkg/domain"
)

type Status string

const (
	StatusCreated   Status = "created"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusVerified  Status = "verified"
)

var statusRank = map[Status]int{
	StatusCreated:   0,
	StatusInTransit: 1,
	StatusDelivered: 2,
	StatusVerified:  3,
}

// AtLeast reports whether the status has reached the given stage.
func (s Status) AtLeast(other Status) bool {
	return statusRank[s] >= statusRank[other]
}

// advance returns the candidate when it ranks above current, else current.
// Status regression is a silent no-op, not an error.
func advance(current, candidate Status) Status {
	if statusRank[candidate] > statusRank[current] {
		return candidate
	}
	return current
}

// EventType classifies a tracking event reported by the carrier.
type EventType string

const (
	EventPickedUp  EventType = "picked_up"
	EventInTransit EventType = "in_transit"
	EventDelivered EventType = "delivered"
	EventException EventType = "exception"
)

func (t EventType) Valid() bool {
	switch t {
	case EventPickedUp, EventInTransit, EventDelivered, EventException:
		return true
	}
	return false
}

// statusAfter maps an event type to the status it drives the shipment
// toward. Event types outside the table leave status unchanged.
func statusAfter(t EventType) (Status, bool) {
	switch t {
	case EventPickedUp:
		return StatusInTransit, true
	case EventDelivered:
		return StatusDelivered, true
	}
	return "", false
}

// TrackingEvent is one carrier-reported observation. Appended in acceptance
// order, never reordered.
type TrackingEvent struct {
	Type       EventType
	Timestamp  time.Time
	Location   string
	Note       string
	RecordedBy id.AccountID
}

type Shipment struct {
	ID          id.ShipmentID
	OrderID     id.OrderID
	Status      Status
	Warehouse   id.WarehouseID
	Carrier     id.CarrierID
	Destination catalog.Address
	Events      []TrackingEvent
	Seal        provenance.Seal
	CreatedAt   time.Time
}
