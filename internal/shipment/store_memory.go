package shipment

import (
	"context"
	"sort"
	"sync"

	id "freightledger/pkg/domain"
	"freightledger/pkg/platform/sentinel"
)

// Store persists shipments keyed by id. Shipments are never deleted.
type Store interface {
	Create(ctx context.Context, shp Shipment) error
	Get(ctx context.Context, shipmentID id.ShipmentID) (Shipment, error)
	Update(ctx context.Context, shp Shipment) error
	ListByOrder(ctx context.Context, orderID id.OrderID) ([]Shipment, error)
}

type InMemoryStore struct {
	mu        sync.RWMutex
	shipments map[id.ShipmentID]Shipment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{shipments: make(map[id.ShipmentID]Shipment)}
}

func (s *InMemoryStore) Create(_ context.Context, shp Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.shipments[shp.ID]; exists {
		return sentinel.ErrConflict
	}
	s.shipments[shp.ID] = shp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, shipmentID id.ShipmentID) (Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shp, ok := s.shipments[shipmentID]
	if !ok {
		return Shipment{}, sentinel.ErrNotFound
	}
	return shp, nil
}

func (s *InMemoryStore) Update(_ context.Context, shp Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shipments[shp.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.shipments[shp.ID] = shp
	return nil
}

func (s *InMemoryStore) ListByOrder(_ context.Context, orderID id.OrderID) ([]Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Shipment
	for _, shp := range s.shipments {
		if shp.OrderID == orderID {
			out = append(out, shp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
