package verification

import (
	"context"
	"sync"

	id "freightledger/pkg/domain"
	"freightledger/pkg/platform/sentinel"
)

// Store keys verifications by shipment id. Create is single-shot: a second
// write for the same shipment fails with a conflict.
type Store interface {
	Create(ctx context.Context, ver DeliveryVerification) error
	Get(ctx context.Context, shipmentID id.ShipmentID) (DeliveryVerification, error)
}

type InMemoryStore struct {
	mu            sync.RWMutex
	verifications map[id.ShipmentID]DeliveryVerification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{verifications: make(map[id.ShipmentID]DeliveryVerification)}
}

func (s *InMemoryStore) Create(_ context.Context, ver DeliveryVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.verifications[ver.ShipmentID]; exists {
		return sentinel.ErrConflict
	}
	s.verifications[ver.ShipmentID] = ver
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, shipmentID id.ShipmentID) (DeliveryVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ver, ok := s.verifications[shipmentID]
	if !ok {
		return DeliveryVerification{}, sentinel.ErrNotFound
	}
	return ver, nil
}
