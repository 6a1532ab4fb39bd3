package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// CollateralVaultRoundPremiumStore implements storage.CollateralVaultRoundPremiumStore using PostgreSQL.
type CollateralVaultRoundPremiumStore struct {
	pool *Pool
}

// NewCollateralVaultRoundPremiumStore creates a new CollateralVaultRoundPremiumStore.
func NewCollateralVaultRoundPremiumStore(pool *Pool) *CollateralVaultRoundPremiumStore {
	return &CollateralVaultRoundPremiumStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CollateralVaultRoundPremiumStore = (*CollateralVaultRoundPremiumStore)(nil)

// Get retrieves a premium record by id. Returns ErrNotFound if not exists.
func (s *CollateralVaultRoundPremiumStore) Get(ctx context.Context, id string) (*domain.CollateralVaultRoundPremium, error) {
	query := `
		SELECT id, vault_address, premium, round_number
		FROM collateral_vault_round_premiums
		WHERE id = $1
	`

	var p domain.CollateralVaultRoundPremium
	var premium pgtype.Numeric
	var round int64
	err := s.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.VaultAddress, &premium, &round)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get collateral vault round premium: %w", err)
	}
	p.Premium = fromNumeric(premium)
	p.RoundNumber = uint64(round)
	return &p, nil
}

// Upsert creates or replaces a premium record.
func (s *CollateralVaultRoundPremiumStore) Upsert(ctx context.Context, p *domain.CollateralVaultRoundPremium) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO collateral_vault_round_premiums (id, vault_address, premium, round_number, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET vault_address = EXCLUDED.vault_address,
		    premium = EXCLUDED.premium,
		    round_number = EXCLUDED.round_number,
		    updated_at = NOW()
	`

	_, err := s.pool.Exec(ctx, query, p.ID, p.VaultAddress, toNumeric(p.Premium), int64(p.RoundNumber))
	if err != nil {
		return fmt.Errorf("upsert collateral vault round premium: %w", err)
	}
	return nil
}
