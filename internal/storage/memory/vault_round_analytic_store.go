package memory

import (
	"context"
	"sync"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// VaultRoundAnalyticStore is an in-memory implementation of storage.VaultRoundAnalyticStore.
type VaultRoundAnalyticStore struct {
	mu      sync.RWMutex
	records map[string]*domain.VaultRoundAnalytic // keyed by id
}

// NewVaultRoundAnalyticStore creates a new in-memory vault round analytic store.
func NewVaultRoundAnalyticStore() *VaultRoundAnalyticStore {
	return &VaultRoundAnalyticStore{
		records: make(map[string]*domain.VaultRoundAnalytic),
	}
}

// Get retrieves a record by id. Returns ErrNotFound if not exists.
func (s *VaultRoundAnalyticStore) Get(_ context.Context, id string) (*domain.VaultRoundAnalytic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// Upsert creates or replaces a record.
func (s *VaultRoundAnalyticStore) Upsert(_ context.Context, r *domain.VaultRoundAnalytic) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[r.ID] = r.Clone()
	return nil
}

// Len returns the number of stored records.
func (s *VaultRoundAnalyticStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ storage.VaultRoundAnalyticStore = (*VaultRoundAnalyticStore)(nil)
