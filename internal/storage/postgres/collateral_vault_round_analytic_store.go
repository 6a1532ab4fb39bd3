package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// CollateralVaultRoundAnalyticStore implements storage.CollateralVaultRoundAnalyticStore using PostgreSQL.
type CollateralVaultRoundAnalyticStore struct {
	pool *Pool
}

// NewCollateralVaultRoundAnalyticStore creates a new CollateralVaultRoundAnalyticStore.
func NewCollateralVaultRoundAnalyticStore(pool *Pool) *CollateralVaultRoundAnalyticStore {
	return &CollateralVaultRoundAnalyticStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CollateralVaultRoundAnalyticStore = (*CollateralVaultRoundAnalyticStore)(nil)

// Get retrieves an analytic by id. Returns ErrNotFound if not exists.
func (s *CollateralVaultRoundAnalyticStore) Get(ctx context.Context, id string) (*domain.CollateralVaultRoundAnalytic, error) {
	query := `
		SELECT id, round_number, collateral_vault_address,
		       collateral_vault_price_per_share, neuron_pool_price_per_share, premium_received
		FROM collateral_vault_round_analytics
		WHERE id = $1
	`

	var a domain.CollateralVaultRoundAnalytic
	var round int64
	var vaultPPS, poolPPS, premium pgtype.Numeric
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&round,
		&a.CollateralVaultAddress,
		&vaultPPS,
		&poolPPS,
		&premium,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get collateral vault round analytic: %w", err)
	}

	a.RoundNumber = uint64(round)
	a.CollateralVaultPricePerShare = fromNumeric(vaultPPS)
	a.NeuronPoolPricePerShare = fromNumeric(poolPPS)
	a.PremiumReceived = fromNumeric(premium)
	return &a, nil
}

// Upsert creates or replaces an analytic.
func (s *CollateralVaultRoundAnalyticStore) Upsert(ctx context.Context, a *domain.CollateralVaultRoundAnalytic) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO collateral_vault_round_analytics (
			id, round_number, collateral_vault_address,
			collateral_vault_price_per_share, neuron_pool_price_per_share, premium_received,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE
		SET round_number = EXCLUDED.round_number,
		    collateral_vault_address = EXCLUDED.collateral_vault_address,
		    collateral_vault_price_per_share = EXCLUDED.collateral_vault_price_per_share,
		    neuron_pool_price_per_share = EXCLUDED.neuron_pool_price_per_share,
		    premium_received = EXCLUDED.premium_received,
		    updated_at = NOW()
	`

	_, err := s.pool.Exec(ctx, query,
		a.ID,
		int64(a.RoundNumber),
		a.CollateralVaultAddress,
		toNumeric(a.CollateralVaultPricePerShare),
		toNumeric(a.NeuronPoolPricePerShare),
		toNumeric(a.PremiumReceived),
	)
	if err != nil {
		return fmt.Errorf("upsert collateral vault round analytic: %w", err)
	}
	return nil
}
