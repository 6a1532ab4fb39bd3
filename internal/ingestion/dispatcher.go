package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/mapping"
	"neuron-vault-indexer/internal/observability"
	"neuron-vault-indexer/internal/storage"
)

type handlerFunc func(ctx context.Context, ev domain.Event) error

// Dispatcher routes events to their mapping handler and tracks the progress
// cursor. Events at or before the cursor are redeliveries and are skipped.
type Dispatcher struct {
	handlers map[domain.EventKind]handlerFunc
	progress storage.ProgressStore
	logger   *zap.Logger

	mu     sync.Mutex
	loaded bool
	cursor *storage.Progress
}

// NewDispatcher creates a dispatcher over h. progress may be nil, in which
// case the cursor lives only in memory.
func NewDispatcher(h *mapping.Handler, progress storage.ProgressStore, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		handlers: map[domain.EventKind]handlerFunc{
			domain.KindDeposit:         h.OnBalanceEvent,
			domain.KindInstantWithdraw: h.OnBalanceEvent,
			domain.KindWithdraw:        h.OnBalanceEvent,
			domain.KindCloseShort: func(ctx context.Context, ev domain.Event) error {
				return h.OnCloseShort(ctx, ev.(*domain.CloseShort))
			},
			domain.KindNextRoundParamsSelected: func(ctx context.Context, ev domain.Event) error {
				return h.OnRoundParamsSelected(ctx, ev.(*domain.NextRoundParamsSelected))
			},
			domain.KindOpenShort: func(ctx context.Context, ev domain.Event) error {
				return h.OnOpenShort(ctx, ev.(*domain.OpenShort))
			},
			domain.KindPremiumForRound: func(ctx context.Context, ev domain.Event) error {
				return h.OnPremiumForRound(ctx, ev.(*domain.PremiumForRound))
			},
			domain.KindPremiumDistribute: func(ctx context.Context, ev domain.Event) error {
				return h.OnPremiumDistribute(ctx, ev.(*domain.PremiumDistribute))
			},
		},
		progress: progress,
		logger:   logger,
	}
}

// Dispatch handles one event. It returns (false, nil) for skipped
// redeliveries. Handler errors are returned without advancing the cursor.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.Event) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kind := ev.Kind()
	meta := ev.Meta()
	observability.RecordEventReceived(kind.String())

	fn, ok := d.handlers[kind]
	if !ok {
		observability.RecordEventOutcome(kind.String(), observability.OutcomeError)
		return false, fmt.Errorf("%w: no handler for kind %q", ErrInvalidEvent, kind)
	}

	if err := d.loadCursor(ctx); err != nil {
		return false, err
	}
	if !afterCursor(meta, d.cursor) {
		observability.RecordEventOutcome(kind.String(), observability.OutcomeSkipped)
		d.logger.Debug("Skipping already handled event",
			zap.String("kind", kind.String()),
			zap.Uint64("block", meta.BlockNumber),
			zap.Uint("log_index", meta.LogIndex))
		return false, nil
	}

	start := time.Now()
	err := fn(ctx, ev)
	observability.RecordHandlerLatency(kind.String(), time.Since(start).Seconds())
	if err != nil {
		observability.RecordEventOutcome(kind.String(), observability.OutcomeError)
		d.logger.Error("Event handler failed",
			zap.String("kind", kind.String()),
			zap.Uint64("block", meta.BlockNumber),
			zap.Uint("log_index", meta.LogIndex),
			zap.String("tx", meta.TxHash.Hex()),
			zap.Error(err))
		return false, fmt.Errorf("handle %s at block %d log %d: %w", kind, meta.BlockNumber, meta.LogIndex, err)
	}
	observability.RecordEventOutcome(kind.String(), observability.OutcomeHandled)

	if err := d.advance(ctx, meta); err != nil {
		return true, err
	}
	return true, nil
}

// Cursor returns the last handled position, or nil if none.
func (d *Dispatcher) Cursor(ctx context.Context) (*storage.Progress, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.loadCursor(ctx); err != nil {
		return nil, err
	}
	if d.cursor == nil {
		return nil, nil
	}
	c := *d.cursor
	return &c, nil
}

func (d *Dispatcher) loadCursor(ctx context.Context) error {
	if d.loaded || d.progress == nil {
		return nil
	}
	p, err := d.progress.GetLastProcessed(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load progress: %w", err)
	}
	d.cursor = p
	d.loaded = true
	return nil
}

func (d *Dispatcher) advance(ctx context.Context, meta domain.EventMeta) error {
	next := &storage.Progress{BlockNumber: meta.BlockNumber, LogIndex: meta.LogIndex}
	if d.progress != nil {
		if err := d.progress.SetLastProcessed(ctx, next); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
	}
	d.cursor = next
	observability.UpdateProgress(meta.BlockNumber, int64(meta.BlockTimestamp))
	return nil
}
