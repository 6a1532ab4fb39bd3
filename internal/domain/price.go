package domain

import "math/big"

// NeuronPoolsPrice is an oracle price of a neuron pool token at a block timestamp.
// Corresponds to the neuron_pools_prices table.
type NeuronPoolsPrice struct {
	ID        string
	Address   string   // lower-case pool address
	Price     *big.Int // oracle price
	Timestamp uint64   // block timestamp (seconds)
}

// Clone returns a deep copy of the price.
func (p *NeuronPoolsPrice) Clone() *NeuronPoolsPrice {
	if p == nil {
		return nil
	}
	c := *p
	c.Price = cloneInt(p.Price)
	return &c
}
