package ingestion

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackRecorder struct {
	acks, naks, terms int
}

func (a *ackRecorder) message(data string) RawMessage {
	return RawMessage{
		Subject:  "neuron.events.test",
		Data:     []byte(data),
		AckFunc:  func() { a.acks++ },
		NakFunc:  func() { a.naks++ },
		TermFunc: func() { a.terms++ },
	}
}

func TestRunner_AcksHandledAndTerminatesGarbage(t *testing.T) {
	h := newHarness(t)
	h.reader.TotalBalances[depositVault] = big.NewInt(1)

	rec := &ackRecorder{}
	ch := make(chan RawMessage, 4)
	ch <- rec.message(depositLine(1, 0))
	ch <- rec.message("not json")
	ch <- rec.message(depositLine(1, 0)) // redelivery
	close(ch)

	r := NewRunner(RunnerOptions{Messages: ch, Dispatcher: h.dispatcher})
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 2, rec.acks)
	assert.Equal(t, 1, rec.terms)
	assert.Equal(t, 0, rec.naks)
}

func TestRunner_TerminatesEnvelopesWithoutPosition(t *testing.T) {
	h := newHarness(t)
	h.reader.TotalBalances[depositVault] = big.NewInt(1)

	rec := &ackRecorder{}
	ch := make(chan RawMessage, 2)
	ch <- rec.message(`{"kind":"Deposit","address":"0x1111111111111111111111111111111111111111"}`)
	ch <- rec.message(`{"kind":"Deposit","address":"0x2222222222222222222222222222222222222222"}`)
	close(ch)

	r := NewRunner(RunnerOptions{Messages: ch, Dispatcher: h.dispatcher})
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 2, rec.terms)
	assert.Equal(t, 0, rec.acks)
	assert.Equal(t, 0, h.reader.Calls("totalBalance"))
}

func TestRunner_NaksAndStopsOnHandlerError(t *testing.T) {
	h := newHarness(t)

	rec := &ackRecorder{}
	ch := make(chan RawMessage, 2)
	ch <- rec.message(depositLine(1, 0))
	ch <- rec.message(depositLine(2, 0))

	r := NewRunner(RunnerOptions{Messages: ch, Dispatcher: h.dispatcher})
	err := r.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1, rec.naks)
	assert.Equal(t, 0, rec.acks)
	assert.Len(t, ch, 1, "later messages stay queued")
}

func TestRunner_StopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(RunnerOptions{Messages: make(chan RawMessage), Dispatcher: h.dispatcher})
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}
