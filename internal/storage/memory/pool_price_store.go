package memory

import (
	"context"
	"sync"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// PoolPriceStore is an in-memory implementation of storage.PoolPriceStore.
type PoolPriceStore struct {
	mu      sync.RWMutex
	records map[string]*domain.NeuronPoolsPrice // keyed by id
}

// NewPoolPriceStore creates a new in-memory pool price store.
func NewPoolPriceStore() *PoolPriceStore {
	return &PoolPriceStore{
		records: make(map[string]*domain.NeuronPoolsPrice),
	}
}

// Get retrieves a record by id. Returns ErrNotFound if not exists.
func (s *PoolPriceStore) Get(_ context.Context, id string) (*domain.NeuronPoolsPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// Upsert creates or replaces a record.
func (s *PoolPriceStore) Upsert(_ context.Context, r *domain.NeuronPoolsPrice) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[r.ID] = r.Clone()
	return nil
}

// Len returns the number of stored records.
func (s *PoolPriceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ storage.PoolPriceStore = (*PoolPriceStore)(nil)
