package postgres

import (
	"context"
	"fmt"

	"neuron-vault-indexer/internal/storage"
)

// ProgressStore is a PostgreSQL implementation of storage.ProgressStore.
// Uses a single-row ingestion_progress table.
type ProgressStore struct {
	pool *Pool
}

// NewProgressStore creates a new PostgreSQL progress store.
func NewProgressStore(pool *Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProgressStore = (*ProgressStore)(nil)

// GetLastProcessed returns the last handled position.
func (s *ProgressStore) GetLastProcessed(ctx context.Context) (*storage.Progress, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT block_number, log_index
		FROM ingestion_progress
		WHERE id = 1
	`)

	var block, logIndex int64
	if err := row.Scan(&block, &logIndex); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ingestion progress: %w", err)
	}

	return &storage.Progress{BlockNumber: uint64(block), LogIndex: uint(logIndex)}, nil
}

// SetLastProcessed saves the last handled position.
func (s *ProgressStore) SetLastProcessed(ctx context.Context, progress *storage.Progress) error {
	if progress == nil {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingestion_progress (id, block_number, log_index, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET block_number = EXCLUDED.block_number,
		    log_index = EXCLUDED.log_index,
		    updated_at = NOW()
	`, int64(progress.BlockNumber), int64(progress.LogIndex))
	if err != nil {
		return fmt.Errorf("set ingestion progress: %w", err)
	}
	return nil
}
