package httptransport

import (
	"freightledger/internal/catalog"
	"freightledger/internal/shipment"
	"freightledger/internal/verification"
)

type addressPayload struct {
	Name   string `json:"name,omitempty"`
	Line1  string `json:"line1,omitempty"`
	City   string `json:"city,omitempty"`
	Region string `json:"region"`
	Postal string `json:"postal,omitempty"`
}

func (p addressPayload) toDomain() catalog.Address {
	return catalog.Address{
		Name:   p.Name,
		Line1:  p.Line1,
		City:   p.City,
		Region: catalog.Region(p.Region),
		Postal: p.Postal,
	}
}

type requirementsPayload struct {
	MinCapacityUnits  int64    `json:"min_capacity_units,omitempty"`
	Certifications    []string `json:"certifications,omitempty"`
	ServiceLevel      string   `json:"service_level,omitempty"`
	ReleaseSignatures int      `json:"release_signatures,omitempty"`
	QualityThreshold  int      `json:"quality_threshold,omitempty"`
}

func (p requirementsPayload) toDomain() catalog.Requirements {
	certs := make([]catalog.Certification, 0, len(p.Certifications))
	for _, c := range p.Certifications {
		certs = append(certs, catalog.Certification(c))
	}
	return catalog.Requirements{
		MinCapacityUnits:  p.MinCapacityUnits,
		Certifications:    certs,
		ServiceLevel:      catalog.ServiceLevel(p.ServiceLevel),
		ReleaseSignatures: p.ReleaseSignatures,
		QualityThreshold:  p.QualityThreshold,
	}
}

type createShipmentRequest struct {
	OrderID      string              `json:"order_id"`
	Destination  addressPayload      `json:"destination"`
	Requirements requirementsPayload `json:"requirements"`
}

type trackingEventRequest struct {
	Type     string `json:"type"`
	Location string `json:"location,omitempty"`
	Note     string `json:"note,omitempty"`
}

func (p trackingEventRequest) toDomain() shipment.TrackingEvent {
	return shipment.TrackingEvent{
		Type:     shipment.EventType(p.Type),
		Location: p.Location,
		Note:     p.Note,
	}
}

type verifyDeliveryRequest struct {
	Proof        []byte `json:"proof"`
	QualityScore int    `json:"quality_score"`
	Summary      string `json:"summary,omitempty"`
}

func (p verifyDeliveryRequest) report() verification.Report {
	return verification.Report{
		QualityScore: p.QualityScore,
		Summary:      p.Summary,
	}
}

type registerProductRequest struct {
	ManufacturerProof []byte `json:"manufacturer_proof"`
	Content           []byte `json:"content"`
}

type authenticateProductRequest struct {
	Content []byte `json:"content"`
}
