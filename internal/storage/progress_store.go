package storage

import "context"

// Progress represents the last fully handled event position on chain.
type Progress struct {
	BlockNumber uint64 // block of the last handled event
	LogIndex    uint   // log index of the last handled event within its block
}

// ProgressStore persists the ingestion cursor.
// This enables resumption after restarts and drops redelivered events.
type ProgressStore interface {
	// GetLastProcessed returns the last handled position.
	// Returns ErrNotFound if no progress has been saved yet.
	GetLastProcessed(ctx context.Context) (*Progress, error)

	// SetLastProcessed saves the last handled position.
	SetLastProcessed(ctx context.Context, progress *Progress) error
}
