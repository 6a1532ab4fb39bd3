// Package chain reads vault, pool, option and oracle state from deployed contracts.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ContractReader defines the read-only contract surface the mapping handlers use.
// Every call is a blocking query; failures are returned, never retried by callers.
type ContractReader interface {
	// TotalBalance returns a collateral vault's total balance.
	TotalBalance(ctx context.Context, vault common.Address) (*big.Int, error)

	// PricePerShare returns a collateral vault's price per share.
	PricePerShare(ctx context.Context, vault common.Address) (*big.Int, error)

	// CollateralToken returns the neuron pool a collateral vault holds.
	CollateralToken(ctx context.Context, vault common.Address) (common.Address, error)

	// PoolPricePerShare returns a neuron pool's price per share.
	PoolPricePerShare(ctx context.Context, pool common.Address) (*big.Int, error)

	// ExpiryTimestamp returns an option token's expiry timestamp.
	ExpiryTimestamp(ctx context.Context, option common.Address) (*big.Int, error)

	// OraclePrice returns the oracle price of an asset.
	OraclePrice(ctx context.Context, asset common.Address) (*big.Int, error)
}

// BlockScoped is implemented by readers that can pin queries to a block height.
// Handlers use it to read state as of the block that emitted the event.
type BlockScoped interface {
	AtBlock(number uint64) ContractReader
}

// ReaderAt returns r pinned to block number when r supports it.
// Block zero means "latest" and returns r unchanged.
func ReaderAt(r ContractReader, number uint64) ContractReader {
	if number == 0 {
		return r
	}
	if scoped, ok := r.(BlockScoped); ok {
		return scoped.AtBlock(number)
	}
	return r
}
