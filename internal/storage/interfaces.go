package storage

import (
	"context"

	"neuron-vault-indexer/internal/domain"
)

// Every entity store offers point lookup and upsert by id. Upsert replaces the
// whole record, so list fields must be appended by the caller before saving.

// CollateralVaultStore provides access to collateral_vaults storage.
type CollateralVaultStore interface {
	// Get retrieves a vault by id. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.CollateralVault, error)

	// Upsert creates or replaces a vault.
	Upsert(ctx context.Context, v *domain.CollateralVault) error
}

// CollateralVaultRoundAnalyticStore provides access to collateral_vault_round_analytics storage.
type CollateralVaultRoundAnalyticStore interface {
	// Get retrieves an analytic by id. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.CollateralVaultRoundAnalytic, error)

	// Upsert creates or replaces an analytic.
	Upsert(ctx context.Context, a *domain.CollateralVaultRoundAnalytic) error
}

// VaultRoundAnalyticStore provides access to vault_round_analytics storage.
type VaultRoundAnalyticStore interface {
	// Get retrieves an analytic by id. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.VaultRoundAnalytic, error)

	// Upsert creates or replaces an analytic.
	Upsert(ctx context.Context, a *domain.VaultRoundAnalytic) error
}

// CollateralVaultRoundPremiumStore provides access to collateral_vault_round_premiums storage.
type CollateralVaultRoundPremiumStore interface {
	// Get retrieves a premium record by id. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.CollateralVaultRoundPremium, error)

	// Upsert creates or replaces a premium record.
	Upsert(ctx context.Context, p *domain.CollateralVaultRoundPremium) error
}

// PoolPriceStore provides access to neuron_pools_prices storage.
type PoolPriceStore interface {
	// Get retrieves a price snapshot by id. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.NeuronPoolsPrice, error)

	// Upsert creates or replaces a price snapshot. Same id means same (pool, timestamp).
	Upsert(ctx context.Context, p *domain.NeuronPoolsPrice) error
}

// Stores groups the entity stores the mapping handlers write to.
type Stores struct {
	CollateralVaults              CollateralVaultStore
	CollateralVaultRoundAnalytics CollateralVaultRoundAnalyticStore
	VaultRoundAnalytics           VaultRoundAnalyticStore
	CollateralVaultRoundPremiums  CollateralVaultRoundPremiumStore
	PoolPrices                    PoolPriceStore
}
