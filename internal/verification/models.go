// Package verification produces signed proof-of-delivery records. A
// verification is a one-time write per shipment: it attests, under the
// verifier's registered key, that the delivered goods match the condition
// report, and it is the second independent fact escrow release requires.
package verification

import (
	"time"

	id "freightledger/pkg/domain"
)

// Report is the verifier's assessment of the delivered goods.
type Report struct {
	QualityScore int // 0-100
	Summary      string
}

// DeliveryVerification is the immutable signed record for one shipment.
type DeliveryVerification struct {
	ShipmentID id.ShipmentID
	Verifier   id.AccountID
	Proof      []byte
	Report     Report
	Signature  []byte
	VerifiedAt time.Time
}
