package domain

import "math/big"

// VaultRoundAnalytic aggregates everything known about one round of a theta vault.
// It is created when the next round parameters are selected and filled in by the
// open-short, premium-for-round and premium-distribute events of the same round.
// Corresponds to the vault_round_analytics table.
//
// CollateralVaults, LockedAmounts, NeuronPoolsPricesRoundStart and
// NeuronPoolsPricesRoundEnd share index order.
type VaultRoundAnalytic struct {
	ID                    string
	RoundNumber           uint64
	VaultAddress          string
	Strike                *big.Int
	Delta                 *big.Int
	PremiumForEachOption  *big.Int
	OptionAddress         string
	OptionExpiryTimestamp *big.Int
	LockedAmounts         []*big.Int
	LockedValue           *big.Int
	OptionsMinted         *big.Int

	CollateralVaults            []string // sub-vault addresses recorded at open-short
	NeuronPoolsPricesRoundStart []string // NeuronPoolsPrice ids
	NeuronPoolsPricesRoundEnd   []string // NeuronPoolsPrice ids

	PremiumReceived    *big.Int
	PremiumDistributed []string // CollateralVaultRoundPremium ids
}

// Clone returns a deep copy of the analytic.
func (a *VaultRoundAnalytic) Clone() *VaultRoundAnalytic {
	if a == nil {
		return nil
	}
	c := *a
	c.Strike = cloneInt(a.Strike)
	c.Delta = cloneInt(a.Delta)
	c.PremiumForEachOption = cloneInt(a.PremiumForEachOption)
	c.OptionExpiryTimestamp = cloneInt(a.OptionExpiryTimestamp)
	c.LockedAmounts = cloneInts(a.LockedAmounts)
	c.LockedValue = cloneInt(a.LockedValue)
	c.OptionsMinted = cloneInt(a.OptionsMinted)
	c.CollateralVaults = cloneStrings(a.CollateralVaults)
	c.NeuronPoolsPricesRoundStart = cloneStrings(a.NeuronPoolsPricesRoundStart)
	c.NeuronPoolsPricesRoundEnd = cloneStrings(a.NeuronPoolsPricesRoundEnd)
	c.PremiumReceived = cloneInt(a.PremiumReceived)
	c.PremiumDistributed = cloneStrings(a.PremiumDistributed)
	return &c
}

// CollateralVaultRoundPremium is the premium paid out to one collateral vault for a round.
// Corresponds to the collateral_vault_round_premiums table.
type CollateralVaultRoundPremium struct {
	ID           string
	VaultAddress string // collateral vault that received the premium
	Premium      *big.Int
	RoundNumber  uint64
}

// Clone returns a deep copy of the premium record.
func (p *CollateralVaultRoundPremium) Clone() *CollateralVaultRoundPremium {
	if p == nil {
		return nil
	}
	c := *p
	c.Premium = cloneInt(p.Premium)
	return &c
}
