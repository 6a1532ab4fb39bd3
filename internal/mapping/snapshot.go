package mapping

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"neuron-vault-indexer/internal/chain"
	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/idhash"
	"neuron-vault-indexer/internal/observability"
)

// Snapshot phases used in metrics.
const (
	PhaseRoundStart = "round_start"
	PhaseRoundEnd   = "round_end"
)

// snapshot stores the oracle price of pool at timestamp and returns the
// snapshot id. The same (pool, timestamp) always maps to the same record.
func (h *Handler) snapshot(ctx context.Context, reader chain.ContractReader, pool common.Address, timestamp uint64, phase string) (string, error) {
	price, err := reader.OraclePrice(ctx, pool)
	if err != nil {
		return "", readError("oracle price of "+idhash.AddressID(pool), err)
	}

	rec := &domain.NeuronPoolsPrice{
		ID:        idhash.PoolPriceID(pool, timestamp),
		Address:   idhash.AddressID(pool),
		Price:     price,
		Timestamp: timestamp,
	}
	if err := h.stores.PoolPrices.Upsert(ctx, rec); err != nil {
		return "", fmt.Errorf("save pool price %s: %w", rec.ID, err)
	}
	observability.RecordEntityWritten(EntityNeuronPoolsPrice)
	observability.RecordPriceSnapshot(phase)

	return rec.ID, nil
}

// snapshotCollateralVault resolves the pool behind a collateral vault and
// snapshots its price.
func (h *Handler) snapshotCollateralVault(ctx context.Context, reader chain.ContractReader, vault common.Address, timestamp uint64, phase string) (string, error) {
	pool, err := reader.CollateralToken(ctx, vault)
	if err != nil {
		return "", readError("collateral token of "+idhash.AddressID(vault), err)
	}
	return h.snapshot(ctx, reader, pool, timestamp, phase)
}
