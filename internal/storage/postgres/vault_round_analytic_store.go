package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// VaultRoundAnalyticStore implements storage.VaultRoundAnalyticStore using PostgreSQL.
// List fields are stored as TEXT[] and replaced whole on every upsert.
type VaultRoundAnalyticStore struct {
	pool *Pool
}

// NewVaultRoundAnalyticStore creates a new VaultRoundAnalyticStore.
func NewVaultRoundAnalyticStore(pool *Pool) *VaultRoundAnalyticStore {
	return &VaultRoundAnalyticStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VaultRoundAnalyticStore = (*VaultRoundAnalyticStore)(nil)

// Get retrieves an analytic by id. Returns ErrNotFound if not exists.
func (s *VaultRoundAnalyticStore) Get(ctx context.Context, id string) (*domain.VaultRoundAnalytic, error) {
	query := `
		SELECT id, round_number, vault_address, strike, delta, premium_for_each_option,
		       option_address, option_expiry_timestamp, locked_amounts, locked_value,
		       options_minted, collateral_vaults, neuron_pools_prices_round_start,
		       neuron_pools_prices_round_end, premium_received, premium_distributed
		FROM vault_round_analytics
		WHERE id = $1
	`

	a, err := scanVaultRoundAnalytic(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get vault round analytic: %w", err)
	}
	return a, nil
}

// Upsert creates or replaces an analytic.
func (s *VaultRoundAnalyticStore) Upsert(ctx context.Context, a *domain.VaultRoundAnalytic) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO vault_round_analytics (
			id, round_number, vault_address, strike, delta, premium_for_each_option,
			option_address, option_expiry_timestamp, locked_amounts, locked_value,
			options_minted, collateral_vaults, neuron_pools_prices_round_start,
			neuron_pools_prices_round_end, premium_received, premium_distributed,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		ON CONFLICT (id) DO UPDATE
		SET round_number = EXCLUDED.round_number,
		    vault_address = EXCLUDED.vault_address,
		    strike = EXCLUDED.strike,
		    delta = EXCLUDED.delta,
		    premium_for_each_option = EXCLUDED.premium_for_each_option,
		    option_address = EXCLUDED.option_address,
		    option_expiry_timestamp = EXCLUDED.option_expiry_timestamp,
		    locked_amounts = EXCLUDED.locked_amounts,
		    locked_value = EXCLUDED.locked_value,
		    options_minted = EXCLUDED.options_minted,
		    collateral_vaults = EXCLUDED.collateral_vaults,
		    neuron_pools_prices_round_start = EXCLUDED.neuron_pools_prices_round_start,
		    neuron_pools_prices_round_end = EXCLUDED.neuron_pools_prices_round_end,
		    premium_received = EXCLUDED.premium_received,
		    premium_distributed = EXCLUDED.premium_distributed,
		    updated_at = NOW()
	`

	_, err := s.pool.Exec(ctx, query,
		a.ID,
		int64(a.RoundNumber),
		a.VaultAddress,
		toNumeric(a.Strike),
		toNumeric(a.Delta),
		toNumeric(a.PremiumForEachOption),
		a.OptionAddress,
		toNumeric(a.OptionExpiryTimestamp),
		toDecimalStrings(a.LockedAmounts),
		toNumeric(a.LockedValue),
		toNumeric(a.OptionsMinted),
		emptyIfNil(a.CollateralVaults),
		emptyIfNil(a.NeuronPoolsPricesRoundStart),
		emptyIfNil(a.NeuronPoolsPricesRoundEnd),
		toNumeric(a.PremiumReceived),
		emptyIfNil(a.PremiumDistributed),
	)
	if err != nil {
		return fmt.Errorf("upsert vault round analytic: %w", err)
	}
	return nil
}

// scanVaultRoundAnalytic scans a single row into VaultRoundAnalytic.
func scanVaultRoundAnalytic(row pgx.Row) (*domain.VaultRoundAnalytic, error) {
	var a domain.VaultRoundAnalytic
	var round int64
	var strike, delta, premiumPerOption, expiry, lockedValue, minted, premium pgtype.Numeric
	var lockedAmounts []string

	err := row.Scan(
		&a.ID,
		&round,
		&a.VaultAddress,
		&strike,
		&delta,
		&premiumPerOption,
		&a.OptionAddress,
		&expiry,
		&lockedAmounts,
		&lockedValue,
		&minted,
		&a.CollateralVaults,
		&a.NeuronPoolsPricesRoundStart,
		&a.NeuronPoolsPricesRoundEnd,
		&premium,
		&a.PremiumDistributed,
	)
	if err != nil {
		return nil, err
	}

	amounts, err := fromDecimalStrings(lockedAmounts)
	if err != nil {
		return nil, fmt.Errorf("decode locked amounts: %w", err)
	}

	a.RoundNumber = uint64(round)
	a.Strike = fromNumeric(strike)
	a.Delta = fromNumeric(delta)
	a.PremiumForEachOption = fromNumeric(premiumPerOption)
	a.OptionExpiryTimestamp = fromNumeric(expiry)
	a.LockedAmounts = amounts
	a.LockedValue = fromNumeric(lockedValue)
	a.OptionsMinted = fromNumeric(minted)
	a.PremiumReceived = fromNumeric(premium)
	a.CollateralVaults = nilIfEmpty(a.CollateralVaults)
	a.NeuronPoolsPricesRoundStart = nilIfEmpty(a.NeuronPoolsPricesRoundStart)
	a.NeuronPoolsPricesRoundEnd = nilIfEmpty(a.NeuronPoolsPricesRoundEnd)
	a.PremiumDistributed = nilIfEmpty(a.PremiumDistributed)

	return &a, nil
}
