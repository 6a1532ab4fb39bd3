package domain

import "math/big"

// CollateralVault is the singleton record of a collateral vault contract.
// Corresponds to the collateral_vaults table.
type CollateralVault struct {
	ID      string   // lower-case vault address
	Address string   // lower-case vault address
	TVL     *big.Int // total balance as last read from the vault (nullable until first read)
}

// Clone returns a deep copy of the vault.
func (v *CollateralVault) Clone() *CollateralVault {
	if v == nil {
		return nil
	}
	c := *v
	c.TVL = cloneInt(v.TVL)
	return &c
}

// CollateralVaultRoundAnalytic captures a collateral vault's valuation at the
// close of a round.
// Corresponds to the collateral_vault_round_analytics table.
type CollateralVaultRoundAnalytic struct {
	ID                           string
	RoundNumber                  uint64
	CollateralVaultAddress       string
	CollateralVaultPricePerShare *big.Int
	NeuronPoolPricePerShare      *big.Int
	PremiumReceived              *big.Int
}

// Clone returns a deep copy of the analytic.
func (a *CollateralVaultRoundAnalytic) Clone() *CollateralVaultRoundAnalytic {
	if a == nil {
		return nil
	}
	c := *a
	c.CollateralVaultPricePerShare = cloneInt(a.CollateralVaultPricePerShare)
	c.NeuronPoolPricePerShare = cloneInt(a.NeuronPoolPricePerShare)
	c.PremiumReceived = cloneInt(a.PremiumReceived)
	return &c
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func cloneInts(vs []*big.Int) []*big.Int {
	if vs == nil {
		return nil
	}
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = cloneInt(v)
	}
	return out
}

func cloneStrings(vs []string) []string {
	if vs == nil {
		return nil
	}
	out := make([]string, len(vs))
	copy(out, vs)
	return out
}
