package ingestion

import (
	"context"

	"neuron-vault-indexer/internal/domain"
)

// EventSource yields decoded events in chain order.
type EventSource interface {
	// Next returns the next event, or io.EOF when the source is exhausted.
	Next(ctx context.Context) (domain.Event, error)
}
