package postgres

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

func TestVaultRoundAnalyticStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVaultRoundAnalyticStore(pool)

	// uint256 max must survive the NUMERIC round trip
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	a := &domain.VaultRoundAnalytic{
		ID:                          "3-0xvault",
		RoundNumber:                 3,
		VaultAddress:                "0xvault",
		Strike:                      big.NewInt(100),
		Delta:                       big.NewInt(5000),
		PremiumForEachOption:        big.NewInt(10),
		OptionAddress:               "0xoption",
		OptionExpiryTimestamp:       big.NewInt(1700000000),
		LockedAmounts:               []*big.Int{big.NewInt(40), maxUint256},
		LockedValue:                 big.NewInt(10000),
		OptionsMinted:               big.NewInt(7),
		CollateralVaults:            []string{"0xs1", "0xs2"},
		NeuronPoolsPricesRoundStart: []string{"0xp1-1000", "0xp2-1000"},
	}

	require.NoError(t, store.Upsert(ctx, a))

	got, err := store.Get(ctx, "3-0xvault")
	require.NoError(t, err)

	assert.Equal(t, uint64(3), got.RoundNumber)
	assert.Equal(t, "0xvault", got.VaultAddress)
	assert.Equal(t, 0, got.Strike.Cmp(big.NewInt(100)))
	assert.Equal(t, 0, got.LockedValue.Cmp(big.NewInt(10000)))
	require.Len(t, got.LockedAmounts, 2)
	assert.Equal(t, 0, got.LockedAmounts[1].Cmp(maxUint256))
	assert.Equal(t, []string{"0xs1", "0xs2"}, got.CollateralVaults)
	assert.Equal(t, []string{"0xp1-1000", "0xp2-1000"}, got.NeuronPoolsPricesRoundStart)
	assert.Nil(t, got.NeuronPoolsPricesRoundEnd)
	assert.Nil(t, got.PremiumReceived)
	assert.Nil(t, got.PremiumDistributed)
}

func TestVaultRoundAnalyticStore_UpsertReplacesLists(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVaultRoundAnalyticStore(pool)

	a := &domain.VaultRoundAnalytic{ID: "2-0xv", RoundNumber: 2, VaultAddress: "0xv"}
	require.NoError(t, store.Upsert(ctx, a))

	a.PremiumReceived = big.NewInt(50)
	a.PremiumDistributed = append(a.PremiumDistributed, "2-0xs1")
	require.NoError(t, store.Upsert(ctx, a))

	got, err := store.Get(ctx, "2-0xv")
	require.NoError(t, err)
	assert.Equal(t, 0, got.PremiumReceived.Cmp(big.NewInt(50)))
	assert.Equal(t, []string{"2-0xs1"}, got.PremiumDistributed)
}

func TestVaultRoundAnalyticStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVaultRoundAnalyticStore(pool)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
