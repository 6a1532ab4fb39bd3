package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// CollateralVaultStore implements storage.CollateralVaultStore using PostgreSQL.
type CollateralVaultStore struct {
	pool *Pool
}

// NewCollateralVaultStore creates a new CollateralVaultStore.
func NewCollateralVaultStore(pool *Pool) *CollateralVaultStore {
	return &CollateralVaultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CollateralVaultStore = (*CollateralVaultStore)(nil)

// Get retrieves a vault by id. Returns ErrNotFound if not exists.
func (s *CollateralVaultStore) Get(ctx context.Context, id string) (*domain.CollateralVault, error) {
	query := `
		SELECT id, address, tvl
		FROM collateral_vaults
		WHERE id = $1
	`

	var v domain.CollateralVault
	var tvl pgtype.Numeric
	err := s.pool.QueryRow(ctx, query, id).Scan(&v.ID, &v.Address, &tvl)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get collateral vault: %w", err)
	}
	v.TVL = fromNumeric(tvl)
	return &v, nil
}

// Upsert creates or replaces a vault.
func (s *CollateralVaultStore) Upsert(ctx context.Context, v *domain.CollateralVault) error {
	if v == nil || v.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO collateral_vaults (id, address, tvl, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET address = EXCLUDED.address,
		    tvl = EXCLUDED.tvl,
		    updated_at = NOW()
	`

	if _, err := s.pool.Exec(ctx, query, v.ID, v.Address, toNumeric(v.TVL)); err != nil {
		return fmt.Errorf("upsert collateral vault: %w", err)
	}
	return nil
}
