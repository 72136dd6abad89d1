// Package provenance owns product authenticity records and the quantum seal
// that binds a shipment to its originating order. A product's record keeps a
// keyed content hash set by the manufacturer and an append-only history of
// authentication attempts.
package provenance

import (
	"time"

	id "freightledger/pkg/domain"
)

// AuthenticationEvent is one authenticity check, recorded pass or fail.
type AuthenticationEvent struct {
	Timestamp time.Time
	Location  string
	Verifier  id.AccountID
	Authentic bool
}

// AuthenticationData is the authenticity record for one product. History only
// grows; entries are never removed or reordered.
type AuthenticationData struct {
	ProductID         id.ProductID
	ProductHash       [32]byte // keyed blake2b-256 of the product content
	ManufacturerProof []byte   // hash key, issued by the manufacturer
	History           []AuthenticationEvent
}

// Seal is the encapsulation artifact attached to a shipment at creation. The
// ciphertext targets the network's seal key; the binding ties the shared
// secret to the order so a seal cannot be replayed across orders.
type Seal struct {
	Ciphertext []byte
	Binding    [32]byte
}
