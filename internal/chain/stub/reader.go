// Package stub provides an in-memory chain.ContractReader for tests.
package stub

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"neuron-vault-indexer/internal/chain"
)

// ErrNotConfigured is returned when no value was set for a queried contract.
var ErrNotConfigured = errors.New("stub: value not configured")

// Reader implements chain.ContractReader from preset maps.
// Values can be changed between calls to simulate state moving on chain.
type Reader struct {
	mu sync.Mutex

	TotalBalances      map[common.Address]*big.Int
	PricesPerShare     map[common.Address]*big.Int
	CollateralTokens   map[common.Address]common.Address
	PoolPricesPerShare map[common.Address]*big.Int
	Expiries           map[common.Address]*big.Int
	OraclePrices       map[common.Address]*big.Int

	// Err, when set, is returned by every call.
	Err error

	calls map[string]int
}

// NewReader creates an empty stub reader.
func NewReader() *Reader {
	return &Reader{
		TotalBalances:      make(map[common.Address]*big.Int),
		PricesPerShare:     make(map[common.Address]*big.Int),
		CollateralTokens:   make(map[common.Address]common.Address),
		PoolPricesPerShare: make(map[common.Address]*big.Int),
		Expiries:           make(map[common.Address]*big.Int),
		OraclePrices:       make(map[common.Address]*big.Int),
		calls:              make(map[string]int),
	}
}

var _ chain.ContractReader = (*Reader)(nil)

// Calls returns how many times method was queried.
func (r *Reader) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

// TotalBalance returns the preset total balance.
func (r *Reader) TotalBalance(_ context.Context, vault common.Address) (*big.Int, error) {
	return r.lookupInt(chain.MethodTotalBalance, r.TotalBalances, vault)
}

// PricePerShare returns the preset vault price per share.
func (r *Reader) PricePerShare(_ context.Context, vault common.Address) (*big.Int, error) {
	return r.lookupInt(chain.MethodPricePerShare, r.PricesPerShare, vault)
}

// CollateralToken returns the preset pool for a vault.
func (r *Reader) CollateralToken(_ context.Context, vault common.Address) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls[chain.MethodCollateralToken]++
	if r.Err != nil {
		return common.Address{}, r.Err
	}
	pool, ok := r.CollateralTokens[vault]
	if !ok {
		return common.Address{}, ErrNotConfigured
	}
	return pool, nil
}

// PoolPricePerShare returns the preset pool price per share.
func (r *Reader) PoolPricePerShare(_ context.Context, pool common.Address) (*big.Int, error) {
	return r.lookupInt("poolPricePerShare", r.PoolPricesPerShare, pool)
}

// ExpiryTimestamp returns the preset option expiry.
func (r *Reader) ExpiryTimestamp(_ context.Context, option common.Address) (*big.Int, error) {
	return r.lookupInt(chain.MethodExpiryTimestamp, r.Expiries, option)
}

// OraclePrice returns the preset oracle price.
func (r *Reader) OraclePrice(_ context.Context, asset common.Address) (*big.Int, error) {
	return r.lookupInt(chain.MethodGetPrice, r.OraclePrices, asset)
}

func (r *Reader) lookupInt(method string, values map[common.Address]*big.Int, addr common.Address) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls[method]++
	if r.Err != nil {
		return nil, r.Err
	}
	v, ok := values[addr]
	if !ok {
		return nil, ErrNotConfigured
	}
	return new(big.Int).Set(v), nil
}
