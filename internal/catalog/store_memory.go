package catalog

import (
	"context"
	"sort"
	"sync"

	id "freightledger/pkg/domain"
	"freightledger/pkg/platform/sentinel"
)

// Store interfaces are defined here because the shipment module consumes all
// three; in-memory implementations back the ledger-resident state.

type WarehouseStore interface {
	Get(ctx context.Context, warehouseID id.WarehouseID) (WarehouseInfo, error)
	List(ctx context.Context) ([]WarehouseInfo, error)
	Put(ctx context.Context, info WarehouseInfo) error
}

type CarrierStore interface {
	Get(ctx context.Context, carrierID id.CarrierID) (CarrierInfo, error)
	List(ctx context.Context) ([]CarrierInfo, error)
	Put(ctx context.Context, info CarrierInfo) error
}

type OrderStore interface {
	Get(ctx context.Context, orderID id.OrderID) (FulfillmentOrder, error)
	Put(ctx context.Context, order FulfillmentOrder) error
}

type InMemoryWarehouseStore struct {
	mu         sync.RWMutex
	warehouses map[id.WarehouseID]WarehouseInfo
}

func NewInMemoryWarehouseStore() *InMemoryWarehouseStore {
	return &InMemoryWarehouseStore{warehouses: make(map[id.WarehouseID]WarehouseInfo)}
}

func (s *InMemoryWarehouseStore) Get(_ context.Context, warehouseID id.WarehouseID) (WarehouseInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if info, ok := s.warehouses[warehouseID]; ok {
		return info, nil
	}
	return WarehouseInfo{}, sentinel.ErrNotFound
}

// List returns warehouses ordered by id so selection stays deterministic.
func (s *InMemoryWarehouseStore) List(_ context.Context) ([]WarehouseInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]WarehouseInfo, 0, len(s.warehouses))
	for _, info := range s.warehouses {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryWarehouseStore) Put(_ context.Context, info WarehouseInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouses[info.ID] = info
	return nil
}

type InMemoryCarrierStore struct {
	mu       sync.RWMutex
	carriers map[id.CarrierID]CarrierInfo
}

func NewInMemoryCarrierStore() *InMemoryCarrierStore {
	return &InMemoryCarrierStore{carriers: make(map[id.CarrierID]CarrierInfo)}
}

func (s *InMemoryCarrierStore) Get(_ context.Context, carrierID id.CarrierID) (CarrierInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if info, ok := s.carriers[carrierID]; ok {
		return info, nil
	}
	return CarrierInfo{}, sentinel.ErrNotFound
}

// List returns carriers ordered by id so selection stays deterministic.
func (s *InMemoryCarrierStore) List(_ context.Context) ([]CarrierInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CarrierInfo, 0, len(s.carriers))
	for _, info := range s.carriers {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryCarrierStore) Put(_ context.Context, info CarrierInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carriers[info.ID] = info
	return nil
}

type InMemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[id.OrderID]FulfillmentOrder
}

func NewInMemoryOrderStore() *InMemoryOrderStore {
	return &InMemoryOrderStore{orders: make(map[id.OrderID]FulfillmentOrder)}
}

func (s *InMemoryOrderStore) Get(_ context.Context, orderID id.OrderID) (FulfillmentOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if order, ok := s.orders[orderID]; ok {
		return order, nil
	}
	return FulfillmentOrder{}, sentinel.ErrNotFound
}

func (s *InMemoryOrderStore) Put(_ context.Context, order FulfillmentOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}
