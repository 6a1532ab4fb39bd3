package ingestion

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuron-vault-indexer/internal/chain/stub"
	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/idhash"
	"neuron-vault-indexer/internal/mapping"
	"neuron-vault-indexer/internal/storage"
	"neuron-vault-indexer/internal/storage/memory"
)

var depositVault = common.HexToAddress("0x1111111111111111111111111111111111111111")

type harness struct {
	reader     *stub.Reader
	stores     storage.Stores
	progress   *memory.ProgressStore
	dispatcher *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		reader:   stub.NewReader(),
		stores:   memory.NewStores(),
		progress: memory.NewProgressStore(),
	}
	handler, err := mapping.NewHandler(mapping.Options{Reader: h.reader, Stores: h.stores})
	require.NoError(t, err)
	h.dispatcher = NewDispatcher(handler, h.progress, nil)
	return h
}

func deposit(block uint64, logIndex uint) *domain.Deposit {
	return &domain.Deposit{EventMeta: domain.EventMeta{Address: depositVault, BlockNumber: block, LogIndex: logIndex}}
}

func TestDispatcher_RoutesAndAdvancesCursor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.reader.TotalBalances[depositVault] = big.NewInt(10)

	handled, err := h.dispatcher.Dispatch(ctx, deposit(5, 2))
	require.NoError(t, err)
	assert.True(t, handled)

	vault, err := h.stores.CollateralVaults.Get(ctx, idhash.AddressID(depositVault))
	require.NoError(t, err)
	assert.Equal(t, int64(10), vault.TVL.Int64())

	p, err := h.progress.GetLastProcessed(ctx)
	require.NoError(t, err)
	assert.Equal(t, &storage.Progress{BlockNumber: 5, LogIndex: 2}, p)
}

func TestDispatcher_SkipsRedeliveries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.reader.TotalBalances[depositVault] = big.NewInt(10)

	_, err := h.dispatcher.Dispatch(ctx, deposit(5, 2))
	require.NoError(t, err)
	require.Equal(t, 1, h.reader.Calls("totalBalance"))

	for _, ev := range []*domain.Deposit{deposit(5, 2), deposit(5, 1), deposit(4, 9)} {
		handled, err := h.dispatcher.Dispatch(ctx, ev)
		require.NoError(t, err)
		assert.False(t, handled)
	}
	assert.Equal(t, 1, h.reader.Calls("totalBalance"))

	handled, err := h.dispatcher.Dispatch(ctx, deposit(5, 3))
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 2, h.reader.Calls("totalBalance"))
}

func TestDispatcher_ResumesFromSavedProgress(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.progress.SetLastProcessed(ctx, &storage.Progress{BlockNumber: 100, LogIndex: 0}))

	handled, err := h.dispatcher.Dispatch(ctx, deposit(99, 5))
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, 0, h.reader.Calls("totalBalance"))
}

func TestDispatcher_HandlerErrorKeepsCursor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	ev := &domain.PremiumForRound{
		EventMeta: domain.EventMeta{Address: depositVault, BlockNumber: 7},
		Round:     2,
		Premium:   big.NewInt(1),
	}
	handled, err := h.dispatcher.Dispatch(ctx, ev)
	require.ErrorIs(t, err, mapping.ErrMissingAggregate)
	assert.False(t, handled)

	_, err = h.progress.GetLastProcessed(ctx)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	cursor, err := h.dispatcher.Cursor(ctx)
	require.NoError(t, err)
	assert.Nil(t, cursor)
}

// flakyProgress fails the next failSaves writes of the cursor.
type flakyProgress struct {
	*memory.ProgressStore
	failSaves int
}

func (p *flakyProgress) SetLastProcessed(ctx context.Context, progress *storage.Progress) error {
	if p.failSaves > 0 {
		p.failSaves--
		return errors.New("progress store unavailable")
	}
	return p.ProgressStore.SetLastProcessed(ctx, progress)
}

func TestDispatcher_RedeliveryAfterFailedAdvanceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sub1 := common.HexToAddress("0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa")
	sub2 := common.HexToAddress("0xBbBbBbBbBbBbBbBbBbBbBbBbBbBbBbBbBbBbBbBb")
	option := common.HexToAddress("0x000000000000000000000000000000000000e001")

	reader := stub.NewReader()
	reader.CollateralTokens[sub1] = common.HexToAddress("0x000000000000000000000000000000000000d001")
	reader.CollateralTokens[sub2] = common.HexToAddress("0x000000000000000000000000000000000000d002")
	reader.OraclePrices[reader.CollateralTokens[sub1]] = big.NewInt(1500)
	reader.OraclePrices[reader.CollateralTokens[sub2]] = big.NewInt(2500)
	reader.Expiries[option] = big.NewInt(1_700_000_000)

	stores := memory.NewStores()
	progress := &flakyProgress{ProgressStore: memory.NewProgressStore()}
	handler, err := mapping.NewHandler(mapping.Options{Reader: reader, Stores: stores})
	require.NoError(t, err)
	d := NewDispatcher(handler, progress, nil)

	at := func(block uint64) domain.EventMeta {
		return domain.EventMeta{Address: depositVault, BlockNumber: block, BlockTimestamp: 1000 + block}
	}
	open := &domain.OpenShort{
		EventMeta:                  at(11),
		Round:                      3,
		CollateralVaults:           []common.Address{sub1, sub2},
		LockedCollateralAmounts:    []*big.Int{big.NewInt(40), big.NewInt(60)},
		TotalLockedCollateralValue: big.NewInt(100),
		OptionAddress:              option,
		OptionMintedAmount:         big.NewInt(7),
	}
	dist := &domain.PremiumDistribute{EventMeta: at(20), Round: 3, CollateralVault: sub1, Amount: big.NewInt(9)}

	_, err = d.Dispatch(ctx, &domain.NextRoundParamsSelected{
		EventMeta: at(10), Round: 3,
		StrikePrice: big.NewInt(100), Delta: big.NewInt(5000), PremiumForEachOption: big.NewInt(10),
	})
	require.NoError(t, err)

	for _, ev := range []domain.Event{open, dist} {
		progress.failSaves = 1
		handled, err := d.Dispatch(ctx, ev)
		require.Error(t, err)
		assert.True(t, handled, "handler ran before the cursor write failed")

		handled, err = d.Dispatch(ctx, ev)
		require.NoError(t, err)
		assert.True(t, handled, "failed advance leaves the event eligible for redelivery")
	}

	rec, err := stores.VaultRoundAnalytics.Get(ctx, idhash.RoundID(3, depositVault))
	require.NoError(t, err)
	assert.Len(t, rec.CollateralVaults, 2)
	assert.Len(t, rec.LockedAmounts, len(rec.CollateralVaults))
	assert.Len(t, rec.NeuronPoolsPricesRoundStart, len(rec.CollateralVaults))
	assert.Len(t, rec.NeuronPoolsPricesRoundEnd, len(rec.CollateralVaults))
	assert.Equal(t, []string{idhash.RoundID(3, sub1)}, rec.PremiumDistributed)

	cursor, err := d.Cursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, &storage.Progress{BlockNumber: 20}, cursor)
}

func TestDispatcher_AllKindsRouted(t *testing.T) {
	h := newHarness(t)
	for _, kind := range domain.AllEventKinds {
		_, ok := h.dispatcher.handlers[kind]
		assert.True(t, ok, "kind %s has no handler", kind)
	}
}
