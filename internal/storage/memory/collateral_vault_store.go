package memory

import (
	"context"
	"sync"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// CollateralVaultStore is an in-memory implementation of storage.CollateralVaultStore.
type CollateralVaultStore struct {
	mu      sync.RWMutex
	records map[string]*domain.CollateralVault // keyed by id
}

// NewCollateralVaultStore creates a new in-memory collateral vault store.
func NewCollateralVaultStore() *CollateralVaultStore {
	return &CollateralVaultStore{
		records: make(map[string]*domain.CollateralVault),
	}
}

// Get retrieves a record by id. Returns ErrNotFound if not exists.
func (s *CollateralVaultStore) Get(_ context.Context, id string) (*domain.CollateralVault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// Upsert creates or replaces a record.
func (s *CollateralVaultStore) Upsert(_ context.Context, r *domain.CollateralVault) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[r.ID] = r.Clone()
	return nil
}

// Len returns the number of stored records.
func (s *CollateralVaultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ storage.CollateralVaultStore = (*CollateralVaultStore)(nil)
