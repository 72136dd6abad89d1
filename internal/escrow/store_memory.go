package escrow

import (
	"context"
	"sync"

	id "freightledger/pkg/domain"
	"freightledger/pkg/platform/sentinel"
)

// Store persists escrows keyed by shipment id. One escrow per shipment.
type Store interface {
	Create(ctx context.Context, e Escrow) error
	Get(ctx context.Context, shipmentID id.ShipmentID) (Escrow, error)
	Update(ctx context.Context, e Escrow) error
}

type InMemoryStore struct {
	mu      sync.RWMutex
	escrows map[id.ShipmentID]Escrow
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{escrows: make(map[id.ShipmentID]Escrow)}
}

func (s *InMemoryStore) Create(_ context.Context, e Escrow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.escrows[e.ShipmentID]; exists {
		return sentinel.ErrConflict
	}
	s.escrows[e.ShipmentID] = e
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, shipmentID id.ShipmentID) (Escrow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.escrows[shipmentID]
	if !ok {
		return Escrow{}, sentinel.ErrNotFound
	}
	return e, nil
}

func (s *InMemoryStore) Update(_ context.Context, e Escrow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.escrows[e.ShipmentID]; !ok {
		return sentinel.ErrNotFound
	}
	s.escrows[e.ShipmentID] = e
	return nil
}
