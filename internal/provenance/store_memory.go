package provenance

import (
	"context"
	"sync"

	id "freightledger/pkg/domain"
	"freightledger/pkg/platform/sentinel"
)

// Store keeps one AuthenticationData per product.
type Store interface {
	Get(ctx context.Context, productID id.ProductID) (AuthenticationData, error)
	Put(ctx context.Context, data AuthenticationData) error
}

type InMemoryStore struct {
	mu       sync.RWMutex
	products map[id.ProductID]AuthenticationData
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{products: make(map[id.ProductID]AuthenticationData)}
}

func (s *InMemoryStore) Get(_ context.Context, productID id.ProductID) (AuthenticationData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.products[productID]
	if !ok {
		return AuthenticationData{}, sentinel.ErrNotFound
	}
	return data, nil
}

func (s *InMemoryStore) Put(_ context.Context, data AuthenticationData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[data.ProductID] = data
	return nil
}
