package ingestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"neuron-vault-indexer/internal/observability"
)

// Runner processes live messages one at a time.
type Runner struct {
	messages   <-chan RawMessage
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Messages   <-chan RawMessage
	Dispatcher *Dispatcher
	Logger     *zap.Logger
}

// NewRunner creates a new live runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		messages:   opts.Messages,
		dispatcher: opts.Dispatcher,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled, the message channel is closed or a
// handler fails. A failed message is NAKed for redelivery and Run returns the
// error: later events must not be applied before it.
// Envelopes that cannot be decoded are logged and terminated.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Starting live runner")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-r.messages:
			if !ok {
				return nil
			}
			if err := r.process(ctx, msg); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) process(ctx context.Context, msg RawMessage) error {
	ev, err := ParseEnvelope(msg.Data)
	if err != nil {
		observability.RecordParseError()
		r.logger.Error("Dropping undecodable message",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		call(msg.TermFunc)
		return nil
	}

	if _, err := r.dispatcher.Dispatch(ctx, ev); err != nil {
		call(msg.NakFunc)
		return fmt.Errorf("subject %s: %w", msg.Subject, err)
	}

	call(msg.AckFunc)
	return nil
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
