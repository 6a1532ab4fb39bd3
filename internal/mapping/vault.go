package mapping

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/idhash"
	"neuron-vault-indexer/internal/observability"
	"neuron-vault-indexer/internal/storage"
)

// OnBalanceEvent refreshes the TVL of the emitting collateral vault.
// Used for Deposit, InstantWithdraw and Withdraw.
func (h *Handler) OnBalanceEvent(ctx context.Context, ev domain.Event) error {
	meta := ev.Meta()
	vault, err := h.ensureCollateralVault(ctx, meta.Address)
	if err != nil {
		return err
	}

	tvl, err := h.readerFor(meta).TotalBalance(ctx, meta.Address)
	if err != nil {
		return readError("total balance of "+vault.ID, err)
	}

	vault.TVL = tvl
	if err := h.saveCollateralVault(ctx, vault); err != nil {
		return err
	}

	h.logger.Debug("Collateral vault balance refreshed",
		zap.String("event", ev.Kind().String()),
		zap.String("vault", vault.ID),
		zap.Stringer("tvl", tvl))
	return nil
}

// OnCloseShort records the valuation of a collateral vault at the close of a round.
func (h *Handler) OnCloseShort(ctx context.Context, ev *domain.CloseShort) error {
	reader := h.readerFor(ev.EventMeta)
	vaultAddr := ev.Address

	pool, err := reader.CollateralToken(ctx, vaultAddr)
	if err != nil {
		return readError("collateral token of "+idhash.AddressID(vaultAddr), err)
	}

	vault, err := h.ensureCollateralVault(ctx, vaultAddr)
	if err != nil {
		return err
	}

	id := idhash.RoundNamedID(idhash.CollateralVaultRoundAnalyticName, ev.Round, vaultAddr)
	analytic, err := h.stores.CollateralVaultRoundAnalytics.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		analytic = &domain.CollateralVaultRoundAnalytic{ID: id}
	} else if err != nil {
		return fmt.Errorf("load collateral vault round analytic %s: %w", id, err)
	}

	tvl, err := reader.TotalBalance(ctx, vaultAddr)
	if err != nil {
		return readError("total balance of "+vault.ID, err)
	}
	vaultPPS, err := reader.PricePerShare(ctx, vaultAddr)
	if err != nil {
		return readError("price per share of "+vault.ID, err)
	}
	poolPPS, err := reader.PoolPricePerShare(ctx, pool)
	if err != nil {
		return readError("price per share of pool "+idhash.AddressID(pool), err)
	}

	vault.TVL = tvl
	if err := h.saveCollateralVault(ctx, vault); err != nil {
		return err
	}

	analytic.CollateralVaultAddress = vault.Address
	analytic.RoundNumber = ev.Round
	analytic.CollateralVaultPricePerShare = vaultPPS
	analytic.NeuronPoolPricePerShare = poolPPS
	analytic.PremiumReceived = ev.Premium
	if err := h.stores.CollateralVaultRoundAnalytics.Upsert(ctx, analytic); err != nil {
		return fmt.Errorf("save collateral vault round analytic %s: %w", id, err)
	}
	observability.RecordEntityWritten(EntityCollateralVaultRoundAnalytic)

	h.logger.Debug("Collateral vault round closed",
		zap.String("id", id),
		zap.Uint64("round", ev.Round),
		zap.Stringer("premium", ev.Premium))
	return nil
}

// ensureCollateralVault loads the vault for address, creating and persisting
// it first when it does not exist yet.
func (h *Handler) ensureCollateralVault(ctx context.Context, address common.Address) (*domain.CollateralVault, error) {
	id := idhash.AddressID(address)
	vault, err := h.stores.CollateralVaults.Get(ctx, id)
	if err == nil {
		return vault, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load collateral vault %s: %w", id, err)
	}

	vault = &domain.CollateralVault{ID: id, Address: id}
	if err := h.saveCollateralVault(ctx, vault); err != nil {
		return nil, err
	}
	h.logger.Info("Collateral vault created", zap.String("vault", id))
	return vault, nil
}

func (h *Handler) saveCollateralVault(ctx context.Context, vault *domain.CollateralVault) error {
	if err := h.stores.CollateralVaults.Upsert(ctx, vault); err != nil {
		return fmt.Errorf("save collateral vault %s: %w", vault.ID, err)
	}
	observability.RecordEntityWritten(EntityCollateralVault)
	return nil
}
