// Package escrow holds payment for a shipment until its release conditions
// are satisfied. Release requires two independent facts: the carrier recorded
// physical delivery, and a verifier produced a signed delivery proof. Neither
// actor can move funds alone.
package escrow

import (
	"time"

	id "freightledger/pkg/domain"
)

type Status string

const (
	StatusPending       Status = "pending"
	StatusConditionsMet Status = "conditions_met"
	StatusReleased      Status = "released"
	StatusRefunded      Status = "refunded"
)

// Terminal reports whether the escrow can no longer change state.
func (s Status) Terminal() bool {
	return s == StatusReleased || s == StatusRefunded
}

// Condition is one requirement that must hold before funds move.
type Condition string

const (
	// ConditionDeliveryConfirmed is satisfied by the carrier recording a
	// Delivered lifecycle event.
	ConditionDeliveryConfirmed Condition = "delivery_confirmed"
	// ConditionProofVerified is satisfied by a valid signed delivery proof.
	ConditionProofVerified Condition = "proof_verified"
	// ConditionQualityReport is satisfied when the condition report scores at
	// or above the order's quality threshold.
	ConditionQualityReport Condition = "quality_report"
)

// Escrow is the held payment for one shipment. Status only moves forward;
// Released and Refunded are terminal.
type Escrow struct {
	ShipmentID         id.ShipmentID
	OrderID            id.OrderID
	Payee              id.AccountID
	AmountCents        int64
	Conditions         []Condition
	SignatureThreshold int
	QualityThreshold   int
	ReleaseSignatures  [][]byte
	Status             Status
	CreatedAt          time.Time
	ReleasedAt         time.Time
}

func (e Escrow) requires(c Condition) bool {
	for _, have := range e.Conditions {
		if have == c {
			return true
		}
	}
	return false
}

// LifecycleUpdate carries the shipment facts the engine needs to re-evaluate
// lifecycle-driven conditions after a tracking event.
type LifecycleUpdate struct {
	ShipmentID id.ShipmentID
	Delivered  bool
}

// ReleaseInput carries the verification facts for a final release attempt.
type ReleaseInput struct {
	ShipmentID   id.ShipmentID
	Delivered    bool
	Signature    []byte
	QualityScore int
}
