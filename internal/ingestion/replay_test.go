package ingestion

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func depositLine(block, logIndex int) string {
	return fmt.Sprintf(`{"kind":"Deposit","address":"0x1111111111111111111111111111111111111111","block_number":%d,"log_index":%d}`,
		block, logIndex)
}

func TestFileSource_SkipsBlankAndComments(t *testing.T) {
	input := strings.Join([]string{
		"# exported events",
		depositLine(1, 0),
		"",
		depositLine(2, 0),
	}, "\n")

	src := NewFileSource(strings.NewReader(input))
	ctx := context.Background()

	ev, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ev.Meta().BlockNumber)

	ev, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ev.Meta().BlockNumber)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, src.Close())
}

func TestFileSource_ReportsLine(t *testing.T) {
	src := NewFileSource(strings.NewReader(depositLine(1, 0) + "\n{\"kind\":\"Bogus\"}\n"))
	ctx := context.Background()

	_, err := src.Next(ctx)
	require.NoError(t, err)

	_, err = src.Next(ctx)
	require.ErrorIs(t, err, ErrInvalidEvent)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReplayer_CountsHandledAndSkipped(t *testing.T) {
	h := newHarness(t)
	h.reader.TotalBalances[depositVault] = big.NewInt(3)

	input := strings.Join([]string{depositLine(1, 0), depositLine(1, 0), depositLine(2, 1)}, "\n")
	r := NewReplayer(ReplayerOptions{
		Source:     NewFileSource(strings.NewReader(input)),
		Dispatcher: h.dispatcher,
	})

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.EventsRead)
	assert.Equal(t, 2, result.EventsHandled)
	assert.Equal(t, 1, result.EventsSkipped)
}

func TestReplayer_StrictOrdering(t *testing.T) {
	h := newHarness(t)
	h.reader.TotalBalances[depositVault] = big.NewInt(3)

	input := strings.Join([]string{depositLine(2, 0), depositLine(1, 0)}, "\n")
	r := NewReplayer(ReplayerOptions{
		Source:         NewFileSource(strings.NewReader(input)),
		Dispatcher:     h.dispatcher,
		StrictOrdering: true,
	})

	result, err := r.Run(context.Background())
	require.ErrorIs(t, err, ErrInvalidOrdering)
	assert.Equal(t, 1, result.EventsHandled)
}

func TestReplayer_StopsOnHandlerError(t *testing.T) {
	h := newHarness(t)
	// No balance configured: the first deposit fails.

	input := strings.Join([]string{depositLine(1, 0), depositLine(2, 0)}, "\n")
	r := NewReplayer(ReplayerOptions{
		Source:     NewFileSource(strings.NewReader(input)),
		Dispatcher: h.dispatcher,
	})

	result, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, result.EventsRead)
	assert.Equal(t, 0, result.EventsHandled)
}
