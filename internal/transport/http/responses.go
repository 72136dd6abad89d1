package httptransport

import (
	"time"

	"freightledger/internal/escrow"
	"freightledger/internal/provenance"
	"freightledger/internal/shipment"
	"freightledger/internal/verification"
)

type trackingEventResponse struct {
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Location   string    `json:"location,omitempty"`
	Note       string    `json:"note,omitempty"`
	RecordedBy string    `json:"recorded_by"`
}

type shipmentResponse struct {
	ID        string                  `json:"id"`
	OrderID   string                  `json:"order_id"`
	Status    string                  `json:"status"`
	Warehouse string                  `json:"warehouse"`
	Carrier   string                  `json:"carrier"`
	Events    []trackingEventResponse `json:"events,omitempty"`
	Seal      []byte                  `json:"seal"`
	CreatedAt time.Time               `json:"created_at"`
}

func toShipmentResponse(shp shipment.Shipment) shipmentResponse {
	events := make([]trackingEventResponse, 0, len(shp.Events))
	for _, ev := range shp.Events {
		events = append(events, trackingEventResponse{
			Type:       string(ev.Type),
			Timestamp:  ev.Timestamp,
			Location:   ev.Location,
			Note:       ev.Note,
			RecordedBy: ev.RecordedBy.String(),
		})
	}
	return shipmentResponse{
		ID:        shp.ID.String(),
		OrderID:   shp.OrderID.String(),
		Status:    string(shp.Status),
		Warehouse: shp.Warehouse.String(),
		Carrier:   shp.Carrier.String(),
		Events:    events,
		Seal:      shp.Seal.Ciphertext,
		CreatedAt: shp.CreatedAt,
	}
}

type escrowResponse struct {
	ShipmentID         string     `json:"shipment_id"`
	OrderID            string     `json:"order_id"`
	AmountCents        int64      `json:"amount_cents"`
	Status             string     `json:"status"`
	SignatureThreshold int        `json:"signature_threshold"`
	SignaturesHeld     int        `json:"signatures_held"`
	ReleasedAt         *time.Time `json:"released_at,omitempty"`
}

func toEscrowResponse(esc escrow.Escrow) escrowResponse {
	resp := escrowResponse{
		ShipmentID:         esc.ShipmentID.String(),
		OrderID:            esc.OrderID.String(),
		AmountCents:        esc.AmountCents,
		Status:             string(esc.Status),
		SignatureThreshold: esc.SignatureThreshold,
		SignaturesHeld:     len(esc.ReleaseSignatures),
	}
	if !esc.ReleasedAt.IsZero() {
		released := esc.ReleasedAt
		resp.ReleasedAt = &released
	}
	return resp
}

type verificationResponse struct {
	ShipmentID   string    `json:"shipment_id"`
	Verifier     string    `json:"verifier"`
	QualityScore int       `json:"quality_score"`
	Summary      string    `json:"summary,omitempty"`
	Signature    []byte    `json:"signature"`
	VerifiedAt   time.Time `json:"verified_at"`
}

func toVerificationResponse(ver verification.DeliveryVerification) verificationResponse {
	return verificationResponse{
		ShipmentID:   ver.ShipmentID.String(),
		Verifier:     ver.Verifier.String(),
		QualityScore: ver.Report.QualityScore,
		Summary:      ver.Report.Summary,
		Signature:    ver.Signature,
		VerifiedAt:   ver.VerifiedAt,
	}
}

type authenticationResponse struct {
	ProductID string `json:"product_id"`
	Authentic bool   `json:"authentic"`
}

type authenticationEventResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location,omitempty"`
	Verifier  string    `json:"verifier"`
	Authentic bool      `json:"authentic"`
}

func toHistoryResponse(history []provenance.AuthenticationEvent) []authenticationEventResponse {
	out := make([]authenticationEventResponse, 0, len(history))
	for _, ev := range history {
		out = append(out, authenticationEventResponse{
			Timestamp: ev.Timestamp,
			Location:  ev.Location,
			Verifier:  ev.Verifier.String(),
			Authentic: ev.Authentic,
		})
	}
	return out
}
