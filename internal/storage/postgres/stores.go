package postgres

import "neuron-vault-indexer/internal/storage"

// NewStores wires every PostgreSQL entity store onto one pool.
func NewStores(pool *Pool) storage.Stores {
	return storage.Stores{
		CollateralVaults:              NewCollateralVaultStore(pool),
		CollateralVaultRoundAnalytics: NewCollateralVaultRoundAnalyticStore(pool),
		VaultRoundAnalytics:           NewVaultRoundAnalyticStore(pool),
		CollateralVaultRoundPremiums:  NewCollateralVaultRoundPremiumStore(pool),
		PoolPrices:                    NewPoolPriceStore(pool),
	}
}
