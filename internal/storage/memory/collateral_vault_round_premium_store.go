package memory

import (
	"context"
	"sync"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// CollateralVaultRoundPremiumStore is an in-memory implementation of storage.CollateralVaultRoundPremiumStore.
type CollateralVaultRoundPremiumStore struct {
	mu      sync.RWMutex
	records map[string]*domain.CollateralVaultRoundPremium // keyed by id
}

// NewCollateralVaultRoundPremiumStore creates a new in-memory round premium store.
func NewCollateralVaultRoundPremiumStore() *CollateralVaultRoundPremiumStore {
	return &CollateralVaultRoundPremiumStore{
		records: make(map[string]*domain.CollateralVaultRoundPremium),
	}
}

// Get retrieves a record by id. Returns ErrNotFound if not exists.
func (s *CollateralVaultRoundPremiumStore) Get(_ context.Context, id string) (*domain.CollateralVaultRoundPremium, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// Upsert creates or replaces a record.
func (s *CollateralVaultRoundPremiumStore) Upsert(_ context.Context, r *domain.CollateralVaultRoundPremium) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[r.ID] = r.Clone()
	return nil
}

// Len returns the number of stored records.
func (s *CollateralVaultRoundPremiumStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ storage.CollateralVaultRoundPremiumStore = (*CollateralVaultRoundPremiumStore)(nil)
