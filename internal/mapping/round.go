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

// OnRoundParamsSelected creates or overwrites the VaultRoundAnalytic of the
// selected round.
func (h *Handler) OnRoundParamsSelected(ctx context.Context, ev *domain.NextRoundParamsSelected) error {
	id := idhash.RoundID(ev.Round, ev.Address)

	rec, err := h.stores.VaultRoundAnalytics.Get(ctx, id)
	created := false
	if errors.Is(err, storage.ErrNotFound) {
		rec = &domain.VaultRoundAnalytic{ID: id}
		created = true
	} else if err != nil {
		return fmt.Errorf("load vault round analytic %s: %w", id, err)
	}

	rec.RoundNumber = ev.Round
	rec.VaultAddress = idhash.AddressID(ev.Address)
	rec.Strike = ev.StrikePrice
	rec.Delta = ev.Delta
	rec.PremiumForEachOption = ev.PremiumForEachOption

	if err := h.saveVaultRound(ctx, rec); err != nil {
		return err
	}

	if created {
		h.logger.Info("Vault round analytic created",
			zap.String("id", id),
			zap.Uint64("round", ev.Round))
	}
	return nil
}

// OnOpenShort records the option position of a round and snapshots the pool
// price of every collateral vault backing it.
func (h *Handler) OnOpenShort(ctx context.Context, ev *domain.OpenShort) error {
	if len(ev.LockedCollateralAmounts) != len(ev.CollateralVaults) {
		return fmt.Errorf("%w: %d locked amounts for %d collateral vaults",
			ErrInvalidEvent, len(ev.LockedCollateralAmounts), len(ev.CollateralVaults))
	}

	rec, err := h.loadVaultRound(ctx, ev.Round, ev.Address)
	if err != nil {
		return err
	}

	reader := h.readerFor(ev.EventMeta)
	expiry, err := reader.ExpiryTimestamp(ctx, ev.OptionAddress)
	if err != nil {
		return readError("expiry of option "+idhash.AddressID(ev.OptionAddress), err)
	}

	rec.OptionExpiryTimestamp = expiry
	rec.OptionAddress = idhash.AddressID(ev.OptionAddress)
	rec.LockedAmounts = ev.LockedCollateralAmounts
	rec.LockedValue = ev.TotalLockedCollateralValue
	rec.OptionsMinted = ev.OptionMintedAmount

	// Both lists are rebuilt from the event so they stay index-aligned with
	// LockedAmounts when the event is delivered again.
	vaults := make([]string, 0, len(ev.CollateralVaults))
	startPrices := make([]string, 0, len(ev.CollateralVaults))
	for _, sub := range ev.CollateralVaults {
		priceID, err := h.snapshotCollateralVault(ctx, reader, sub, ev.BlockTimestamp, PhaseRoundStart)
		if err != nil {
			return err
		}
		startPrices = append(startPrices, priceID)
		vaults = append(vaults, idhash.AddressID(sub))
	}
	rec.NeuronPoolsPricesRoundStart = startPrices
	rec.CollateralVaults = vaults

	if err := h.saveVaultRound(ctx, rec); err != nil {
		return err
	}

	h.logger.Debug("Short opened",
		zap.String("id", rec.ID),
		zap.Int("collateral_vaults", len(ev.CollateralVaults)),
		zap.Stringer("options_minted", ev.OptionMintedAmount))
	return nil
}

// OnPremiumForRound stores the premium received for a round.
// The first round has no predecessor and is ignored.
func (h *Handler) OnPremiumForRound(ctx context.Context, ev *domain.PremiumForRound) error {
	if isOpeningRound(ev.Round) {
		return nil
	}

	rec, err := h.loadVaultRound(ctx, ev.Round, ev.Address)
	if err != nil {
		return err
	}

	rec.PremiumReceived = ev.Premium
	return h.saveVaultRound(ctx, rec)
}

// OnPremiumDistribute records the premium paid to one collateral vault and
// links it into the round. Round-end pool prices are captured on the first
// distribution of the round, or on every distribution when configured so.
// The first round is ignored.
func (h *Handler) OnPremiumDistribute(ctx context.Context, ev *domain.PremiumDistribute) error {
	if isOpeningRound(ev.Round) {
		return nil
	}

	rec, err := h.loadVaultRound(ctx, ev.Round, ev.Address)
	if err != nil {
		return err
	}

	if h.snapshotEveryDistribution || len(rec.NeuronPoolsPricesRoundEnd) == 0 {
		reader := h.readerFor(ev.EventMeta)
		for _, sub := range rec.CollateralVaults {
			priceID, err := h.snapshotCollateralVault(ctx, reader, common.HexToAddress(sub), ev.BlockTimestamp, PhaseRoundEnd)
			if err != nil {
				return err
			}
			rec.NeuronPoolsPricesRoundEnd = appendMissing(rec.NeuronPoolsPricesRoundEnd, priceID)
		}
	}

	premium := &domain.CollateralVaultRoundPremium{
		ID:           idhash.RoundID(ev.Round, ev.CollateralVault),
		VaultAddress: idhash.AddressID(ev.CollateralVault),
		Premium:      ev.Amount,
		RoundNumber:  ev.Round,
	}
	if err := h.stores.CollateralVaultRoundPremiums.Upsert(ctx, premium); err != nil {
		return fmt.Errorf("save collateral vault round premium %s: %w", premium.ID, err)
	}
	observability.RecordEntityWritten(EntityCollateralVaultRoundPremium)

	rec.PremiumDistributed = appendMissing(rec.PremiumDistributed, premium.ID)
	if err := h.saveVaultRound(ctx, rec); err != nil {
		return err
	}

	h.logger.Debug("Premium distributed",
		zap.String("id", premium.ID),
		zap.String("round", rec.ID),
		zap.Stringer("amount", ev.Amount))
	return nil
}
