package registry

import (
	"context"
	"sync"

	id "freightledger/pkg/domain"
	"freightledger/pkg/platform/sentinel"
)

// Store holds identity and authorization facts. The core only reads them;
// writes are administrative.
type Store interface {
	GetAccount(ctx context.Context, account id.AccountID) (Account, error)
	PutAccount(ctx context.Context, acct Account) error

	CarrierOperator(ctx context.Context, carrier id.CarrierID) (id.AccountID, error)
	SetCarrierOperator(ctx context.Context, carrier id.CarrierID, operator id.AccountID) error

	VerifierKey(ctx context.Context, account id.AccountID) ([]byte, error)
	PutVerifierKey(ctx context.Context, account id.AccountID, publicKey []byte) error
}

type InMemoryStore struct {
	mu        sync.RWMutex
	accounts  map[id.AccountID]Account
	operators map[id.CarrierID]id.AccountID
	keys      map[id.AccountID][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts:  make(map[id.AccountID]Account),
		operators: make(map[id.CarrierID]id.AccountID),
		keys:      make(map[id.AccountID][]byte),
	}
}

func (s *InMemoryStore) GetAccount(_ context.Context, account id.AccountID) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acct, ok := s.accounts[account]; ok {
		return acct, nil
	}
	return Account{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) PutAccount(_ context.Context, acct Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acct.ID] = acct
	return nil
}

func (s *InMemoryStore) CarrierOperator(_ context.Context, carrier id.CarrierID) (id.AccountID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if operator, ok := s.operators[carrier]; ok {
		return operator, nil
	}
	return "", sentinel.ErrNotFound
}

func (s *InMemoryStore) SetCarrierOperator(_ context.Context, carrier id.CarrierID, operator id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operators[carrier] = operator
	return nil
}

func (s *InMemoryStore) VerifierKey(_ context.Context, account id.AccountID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.keys[account]; ok {
		return append([]byte{}, key...), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) PutVerifierKey(_ context.Context, account id.AccountID, publicKey []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[account] = append([]byte{}, publicKey...)
	return nil
}
