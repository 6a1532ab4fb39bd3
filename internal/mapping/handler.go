// Package mapping turns decoded vault events into entity updates.
//
// Every handler reads the current entity state, performs the contract reads the
// event needs and writes the updated entities back. Handlers never call each
// other and keep no state beyond the stores.
package mapping

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"neuron-vault-indexer/internal/chain"
	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/idhash"
	"neuron-vault-indexer/internal/observability"
	"neuron-vault-indexer/internal/storage"
)

// Entity names used in metrics.
const (
	EntityCollateralVault              = "collateral_vault"
	EntityCollateralVaultRoundAnalytic = "collateral_vault_round_analytic"
	EntityVaultRoundAnalytic           = "vault_round_analytic"
	EntityCollateralVaultRoundPremium  = "collateral_vault_round_premium"
	EntityNeuronPoolsPrice             = "neuron_pools_price"
)

// Options configures Handler.
type Options struct {
	Reader chain.ContractReader
	Stores storage.Stores
	Logger *zap.Logger

	// SnapshotEveryDistribution re-captures round-end pool prices on every
	// PremiumDistribute event instead of once per round.
	SnapshotEveryDistribution bool
}

// Handler applies vault events to the entity stores.
type Handler struct {
	reader                    chain.ContractReader
	stores                    storage.Stores
	logger                    *zap.Logger
	snapshotEveryDistribution bool
}

// NewHandler creates a Handler. Reader and every store are required.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Reader == nil {
		return nil, errors.New("mapping: reader is required")
	}
	s := opts.Stores
	if s.CollateralVaults == nil || s.CollateralVaultRoundAnalytics == nil ||
		s.VaultRoundAnalytics == nil || s.CollateralVaultRoundPremiums == nil || s.PoolPrices == nil {
		return nil, errors.New("mapping: all entity stores are required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		reader:                    opts.Reader,
		stores:                    opts.Stores,
		logger:                    logger,
		snapshotEveryDistribution: opts.SnapshotEveryDistribution,
	}, nil
}

// readerFor pins contract reads to the block that emitted the event.
func (h *Handler) readerFor(meta domain.EventMeta) chain.ContractReader {
	return chain.ReaderAt(h.reader, meta.BlockNumber)
}

// loadVaultRound returns the VaultRoundAnalytic for (round, vault) or
// ErrMissingAggregate.
func (h *Handler) loadVaultRound(ctx context.Context, round uint64, vault common.Address) (*domain.VaultRoundAnalytic, error) {
	id := idhash.RoundID(round, vault)
	rec, err := h.stores.VaultRoundAnalytics.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMissingAggregate, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load vault round analytic %s: %w", id, err)
	}
	return rec, nil
}

func (h *Handler) saveVaultRound(ctx context.Context, rec *domain.VaultRoundAnalytic) error {
	if err := h.stores.VaultRoundAnalytics.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("save vault round analytic %s: %w", rec.ID, err)
	}
	observability.RecordEntityWritten(EntityVaultRoundAnalytic)
	return nil
}

func readError(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExternalRead, what, err)
}

func isOpeningRound(round uint64) bool {
	return round == 1
}

// appendMissing appends id unless ids already holds it.
func appendMissing(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
