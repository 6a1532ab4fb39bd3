package memory

import (
	"context"
	"sync"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// CollateralVaultRoundAnalyticStore is an in-memory implementation of storage.CollateralVaultRoundAnalyticStore.
type CollateralVaultRoundAnalyticStore struct {
	mu      sync.RWMutex
	records map[string]*domain.CollateralVaultRoundAnalytic // keyed by id
}

// NewCollateralVaultRoundAnalyticStore creates a new in-memory collateral vault round analytic store.
func NewCollateralVaultRoundAnalyticStore() *CollateralVaultRoundAnalyticStore {
	return &CollateralVaultRoundAnalyticStore{
		records: make(map[string]*domain.CollateralVaultRoundAnalytic),
	}
}

// Get retrieves a record by id. Returns ErrNotFound if not exists.
func (s *CollateralVaultRoundAnalyticStore) Get(_ context.Context, id string) (*domain.CollateralVaultRoundAnalytic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// Upsert creates or replaces a record.
func (s *CollateralVaultRoundAnalyticStore) Upsert(_ context.Context, r *domain.CollateralVaultRoundAnalytic) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[r.ID] = r.Clone()
	return nil
}

// Len returns the number of stored records.
func (s *CollateralVaultRoundAnalyticStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ storage.CollateralVaultRoundAnalyticStore = (*CollateralVaultRoundAnalyticStore)(nil)
