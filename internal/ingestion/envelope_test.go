package ingestion

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuron-vault-indexer/internal/domain"
)

func testMeta(block uint64, logIndex uint) domain.EventMeta {
	return domain.EventMeta{
		Address:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
		BlockNumber:    block,
		BlockTimestamp: 1_700_000_000 + block,
		TxHash:         common.HexToHash("0xabc"),
		LogIndex:       logIndex,
	}
}

func uint256Max() *big.Int {
	v, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	return v
}

func TestEnvelope_RoundTripEveryKind(t *testing.T) {
	sub := common.HexToAddress("0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa")
	events := []domain.Event{
		&domain.Deposit{EventMeta: testMeta(1, 0)},
		&domain.InstantWithdraw{EventMeta: testMeta(1, 1)},
		&domain.Withdraw{EventMeta: testMeta(1, 2)},
		&domain.CloseShort{EventMeta: testMeta(2, 0), Round: 4, Premium: uint256Max()},
		&domain.NextRoundParamsSelected{
			EventMeta: testMeta(3, 0), Round: 5,
			StrikePrice: big.NewInt(100), Delta: big.NewInt(5000), PremiumForEachOption: big.NewInt(10),
		},
		&domain.OpenShort{
			EventMeta: testMeta(4, 0), Round: 5,
			CollateralVaults:           []common.Address{sub},
			LockedCollateralAmounts:    []*big.Int{big.NewInt(40)},
			TotalLockedCollateralValue: big.NewInt(40),
			OptionAddress:              common.HexToAddress("0x000000000000000000000000000000000000e001"),
			OptionMintedAmount:         big.NewInt(7),
		},
		&domain.PremiumForRound{EventMeta: testMeta(5, 0), Round: 5, Premium: big.NewInt(55)},
		&domain.PremiumDistribute{EventMeta: testMeta(5, 1), Round: 5, CollateralVault: sub, Amount: big.NewInt(9)},
	}

	seen := make(map[domain.EventKind]bool)
	for _, ev := range events {
		t.Run(ev.Kind().String(), func(t *testing.T) {
			data, err := MarshalEvent(ev)
			require.NoError(t, err)

			got, err := ParseEnvelope(data)
			require.NoError(t, err)
			assert.Equal(t, ev, got)
		})
		seen[ev.Kind()] = true
	}
	assert.Len(t, seen, len(domain.AllEventKinds))
}

func TestParseEnvelope_Valid(t *testing.T) {
	data := []byte(`{
		"kind": "PremiumDistribute",
		"address": "0x1111111111111111111111111111111111111111",
		"block_number": 120,
		"block_timestamp": 2000,
		"tx_hash": "0x01",
		"log_index": 3,
		"params": {"round": 3, "collateral_vault": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "amount": "9"}
	}`)

	ev, err := ParseEnvelope(data)
	require.NoError(t, err)

	pd, ok := ev.(*domain.PremiumDistribute)
	require.True(t, ok)
	assert.Equal(t, uint64(3), pd.Round)
	assert.Equal(t, int64(9), pd.Amount.Int64())
	assert.Equal(t, uint64(120), pd.BlockNumber)
	assert.Equal(t, uint64(2000), pd.BlockTimestamp)
	assert.Equal(t, uint(3), pd.LogIndex)
}

func TestParseEnvelope_ZeroPositionIsValid(t *testing.T) {
	ev, err := ParseEnvelope([]byte(`{"kind":"Deposit","address":"0x1111111111111111111111111111111111111111","block_number":0,"log_index":0}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ev.Meta().BlockNumber)
	assert.Equal(t, uint(0), ev.Meta().LogIndex)
}

func TestParseEnvelope_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"unknown kind", `{"kind":"Mint","address":"0x1111111111111111111111111111111111111111","block_number":1,"log_index":0}`},
		{"bad address", `{"kind":"Deposit","address":"0x11","block_number":1,"log_index":0}`},
		{"missing params", `{"kind":"CloseShort","address":"0x1111111111111111111111111111111111111111","block_number":1,"log_index":0}`},
		{"negative amount", `{"kind":"PremiumForRound","address":"0x1111111111111111111111111111111111111111","block_number":1,"log_index":0,"params":{"round":2,"premium":"-1"}}`},
		{"non numeric amount", `{"kind":"PremiumForRound","address":"0x1111111111111111111111111111111111111111","block_number":1,"log_index":0,"params":{"round":2,"premium":"1e18"}}`},
		{"bad sub vault", `{"kind":"OpenShort","address":"0x1111111111111111111111111111111111111111","block_number":1,"log_index":0,"params":{"round":2,"collateral_vaults":["nope"],"locked_collateral_amounts":["1"],"total_locked_collateral_value":"1","option_address":"0x1111111111111111111111111111111111111111","option_minted_amount":"1"}}`},
		{"missing block number", `{"kind":"Deposit","address":"0x1111111111111111111111111111111111111111","log_index":0}`},
		{"missing log index", `{"kind":"Deposit","address":"0x1111111111111111111111111111111111111111","block_number":1}`},
		{"null log index", `{"kind":"Deposit","address":"0x1111111111111111111111111111111111111111","block_number":1,"log_index":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}
