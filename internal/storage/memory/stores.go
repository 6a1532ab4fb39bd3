package memory

import "neuron-vault-indexer/internal/storage"

// NewStores returns a storage.Stores backed entirely by fresh in-memory stores.
func NewStores() storage.Stores {
	return storage.Stores{
		CollateralVaults:              NewCollateralVaultStore(),
		CollateralVaultRoundAnalytics: NewCollateralVaultRoundAnalyticStore(),
		VaultRoundAnalytics:           NewVaultRoundAnalyticStore(),
		CollateralVaultRoundPremiums:  NewCollateralVaultRoundPremiumStore(),
		PoolPrices:                    NewPoolPriceStore(),
	}
}
