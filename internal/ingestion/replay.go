package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"neuron-vault-indexer/internal/domain"
)

// Replayer feeds a finite event source through the dispatcher.
type Replayer struct {
	source         EventSource
	dispatcher     *Dispatcher
	strictOrdering bool
	logger         *zap.Logger
}

// ReplayerOptions contains configuration for creating a Replayer.
type ReplayerOptions struct {
	Source     EventSource
	Dispatcher *Dispatcher

	// StrictOrdering fails the replay on the first event that does not
	// follow its predecessor in chain order.
	StrictOrdering bool
	Logger         *zap.Logger
}

// NewReplayer creates a new Replayer.
func NewReplayer(opts ReplayerOptions) *Replayer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Replayer{
		source:         opts.Source,
		dispatcher:     opts.Dispatcher,
		strictOrdering: opts.StrictOrdering,
		logger:         logger,
	}
}

// ReplayResult contains statistics from a replay operation.
type ReplayResult struct {
	EventsRead    int
	EventsHandled int
	EventsSkipped int
	Duration      time.Duration
}

// Run replays the source until it is exhausted. The first handler error stops
// the replay; events already handled stay applied.
func (r *Replayer) Run(ctx context.Context) (*ReplayResult, error) {
	start := time.Now()
	result := &ReplayResult{}
	defer func() { result.Duration = time.Since(start) }()

	r.logger.Info("Starting replay")

	var prev *domain.EventMeta
	for {
		ev, err := r.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("read event %d: %w", result.EventsRead+1, err)
		}
		result.EventsRead++

		meta := ev.Meta()
		if r.strictOrdering && prev != nil && compareEvents(*prev, meta) >= 0 {
			return result, fmt.Errorf("%w: block %d log %d after block %d log %d",
				ErrInvalidOrdering, meta.BlockNumber, meta.LogIndex, prev.BlockNumber, prev.LogIndex)
		}
		prev = &meta

		handled, err := r.dispatcher.Dispatch(ctx, ev)
		if err != nil {
			return result, err
		}
		if handled {
			result.EventsHandled++
		} else {
			result.EventsSkipped++
		}
	}

	r.logger.Info("Replay complete",
		zap.Int("read", result.EventsRead),
		zap.Int("handled", result.EventsHandled),
		zap.Int("skipped", result.EventsSkipped),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}
