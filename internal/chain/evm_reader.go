package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"neuron-vault-indexer/internal/observability"
)

// Default configuration values.
const (
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
)

// ContractCaller executes a read-only message call.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// EVMReader implements ContractReader over eth_call.
type EVMReader struct {
	caller      ContractCaller
	abis        *ABIs
	oracle      common.Address
	blockNumber *big.Int // nil means latest
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	logger      *zap.Logger
}

// ReaderOption configures EVMReader.
type ReaderOption func(*EVMReader)

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ReaderOption {
	return func(r *EVMReader) {
		r.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ReaderOption {
	return func(r *EVMReader) {
		r.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ReaderOption {
	return func(r *EVMReader) {
		r.maxDelay = d
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *zap.Logger) ReaderOption {
	return func(r *EVMReader) {
		r.logger = l
	}
}

// NewEVMReader creates a reader over caller. oracle is the price oracle contract.
func NewEVMReader(caller ContractCaller, oracle common.Address, opts ...ReaderOption) (*EVMReader, error) {
	abis, err := ParseABIs()
	if err != nil {
		return nil, err
	}

	r := &EVMReader{
		caller:      caller,
		abis:        abis,
		oracle:      oracle,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dial connects to an EVM JSON-RPC endpoint and returns a reader over it.
func Dial(ctx context.Context, endpoint string, oracle common.Address, opts ...ReaderOption) (*EVMReader, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	r, err := NewEVMReader(client, oracle, opts...)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return r, client, nil
}

// AtBlock returns a copy of the reader that queries state at block number.
func (r *EVMReader) AtBlock(number uint64) ContractReader {
	c := *r
	c.blockNumber = new(big.Int).SetUint64(number)
	return &c
}

// Compile-time interface checks.
var (
	_ ContractReader = (*EVMReader)(nil)
	_ BlockScoped    = (*EVMReader)(nil)
)

// TotalBalance returns a collateral vault's total balance.
func (r *EVMReader) TotalBalance(ctx context.Context, vault common.Address) (*big.Int, error) {
	return r.callUint(ctx, r.abis.CollateralVault, vault, MethodTotalBalance)
}

// PricePerShare returns a collateral vault's price per share.
func (r *EVMReader) PricePerShare(ctx context.Context, vault common.Address) (*big.Int, error) {
	return r.callUint(ctx, r.abis.CollateralVault, vault, MethodPricePerShare)
}

// CollateralToken returns the neuron pool a collateral vault holds.
func (r *EVMReader) CollateralToken(ctx context.Context, vault common.Address) (common.Address, error) {
	out, err := r.call(ctx, r.abis.CollateralVault, vault, MethodCollateralToken)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unexpected output type %T", MethodCollateralToken, out[0])
	}
	return addr, nil
}

// PoolPricePerShare returns a neuron pool's price per share.
func (r *EVMReader) PoolPricePerShare(ctx context.Context, pool common.Address) (*big.Int, error) {
	return r.callUint(ctx, r.abis.NeuronPool, pool, MethodPricePerShare)
}

// ExpiryTimestamp returns an option token's expiry timestamp.
func (r *EVMReader) ExpiryTimestamp(ctx context.Context, option common.Address) (*big.Int, error) {
	return r.callUint(ctx, r.abis.ONToken, option, MethodExpiryTimestamp)
}

// OraclePrice returns the oracle price of an asset.
func (r *EVMReader) OraclePrice(ctx context.Context, asset common.Address) (*big.Int, error) {
	return r.callUint(ctx, r.abis.Oracle, r.oracle, MethodGetPrice, asset)
}

func (r *EVMReader) callUint(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...interface{}) (*big.Int, error) {
	out, err := r.call(ctx, contract, to, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return v, nil
}

// call packs, executes with retries and unpacks a single contract call.
func (r *EVMReader) call(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	start := time.Now()
	raw, err := r.callWithRetry(ctx, ethereum.CallMsg{To: &to, Data: data}, method)
	observability.RecordContractCall(method, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}

	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s from %s: %w", method, to.Hex(), err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s on %s: empty output", method, to.Hex())
	}
	return out, nil
}

// callWithRetry performs the eth_call with exponential backoff.
func (r *EVMReader) callWithRetry(ctx context.Context, msg ethereum.CallMsg, method string) ([]byte, error) {
	delay := r.retryDelay
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			observability.RecordContractRetry(method)
			r.logger.Warn("Contract call failed, retrying",
				zap.String("method", method),
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", delay),
				zap.Error(lastErr))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * r.backoffMult)
			if delay > r.maxDelay {
				delay = r.maxDelay
			}
		}

		out, err := r.caller.CallContract(ctx, msg, r.blockNumber)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if isRevert(err) {
			return nil, fmt.Errorf("%s reverted: %w", method, err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRevert reports whether err is a reverted call. Reverts are answers from
// the node, so repeating the call at the same block returns the same error.
func isRevert(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
