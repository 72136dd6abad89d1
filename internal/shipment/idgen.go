package shipment

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sync"

	"golang.org/x/crypto/blake2b"

	id "freightledger/pkg/domain"
	dErrors "freightledger/pkg/domain-errors"
)

// IDGenerator derives shipment identifiers from the order id, a per-order
// monotonic counter, and ledger entropy. Wall-clock time is never an input,
// so replayed or same-instant transactions cannot collide.
type IDGenerator struct {
	mu       sync.Mutex
	counters map[id.OrderID]uint64
	entropy  io.Reader
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		counters: make(map[id.OrderID]uint64),
		entropy:  rand.Reader,
	}
}

// NewIDGeneratorWithEntropy pins the entropy source, for deterministic tests.
func NewIDGeneratorWithEntropy(entropy io.Reader) *IDGenerator {
	return &IDGenerator{
		counters: make(map[id.OrderID]uint64),
		entropy:  entropy,
	}
}

func (g *IDGenerator) Next(orderID id.OrderID) (id.ShipmentID, error) {
	g.mu.Lock()
	g.counters[orderID]++
	counter := g.counters[orderID]
	g.mu.Unlock()

	var nonce [16]byte
	if _, err := io.ReadFull(g.entropy, nonce[:]); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "read entropy")
	}

	h, _ := blake2b.New256(nil)
	h.Write([]byte(orderID))
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], counter)
	h.Write(seq[:])
	h.Write(nonce[:])

	return id.ShipmentID("shp-" + hex.EncodeToString(h.Sum(nil))), nil
}
