package provenance

import (
	"crypto/subtle"
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber768"
	"golang.org/x/crypto/blake2b"

	id "freightledger/pkg/domain"
	dErrors "freightledger/pkg/domain-errors"
)

// SealScheme is the key-encapsulation mechanism seals are produced with.
// Kyber keeps the seal binding sound against quantum cryptanalysis; like the
// signature mode, changing it invalidates existing seals.
var SealScheme kem.Scheme = kyber768.Scheme()

// Sealer produces provenance seals against the network seal key. Only the
// holder of the matching private key can open a seal; everyone can carry it.
type Sealer struct {
	public kem.PublicKey
}

func NewSealer(public kem.PublicKey) (*Sealer, error) {
	if public == nil {
		return nil, fmt.Errorf("seal public key is required")
	}
	return &Sealer{public: public}, nil
}

// NewSealerFromBytes builds a Sealer from a marshalled public key, the form
// configuration delivers it in.
func NewSealerFromBytes(raw []byte) (*Sealer, error) {
	public, err := SealScheme.UnmarshalBinaryPublicKey(raw)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unmarshal seal public key")
	}
	return NewSealer(public)
}

// Seal encapsulates against the network key and binds the shared secret to
// the order, so a captured seal cannot be reattached to another order's
// shipment.
func (s *Sealer) Seal(orderID id.OrderID) (Seal, error) {
	ciphertext, shared, err := SealScheme.Encapsulate(s.public)
	if err != nil {
		return Seal{}, dErrors.Wrap(err, dErrors.CodeInternal, "encapsulate seal")
	}
	return Seal{
		Ciphertext: ciphertext,
		Binding:    sealBinding(shared, orderID),
	}, nil
}

// OpenSeal checks a seal against an order using the network private key.
// Nodes without the key treat seals as opaque.
func OpenSeal(private kem.PrivateKey, seal Seal, orderID id.OrderID) error {
	shared, err := SealScheme.Decapsulate(private, seal.Ciphertext)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeVerificationFailed, "decapsulate seal")
	}
	binding := sealBinding(shared, orderID)
	if subtle.ConstantTimeCompare(binding[:], seal.Binding[:]) != 1 {
		return dErrors.New(dErrors.CodeVerificationFailed, "seal does not bind to order")
	}
	return nil
}

func sealBinding(shared []byte, orderID id.OrderID) [32]byte {
	h, _ := blake2b.New256(nil)
	h.Write(shared)
	h.Write([]byte(orderID))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
