// Package app wires configuration into stores, the contract reader and the
// event dispatcher shared by the indexer binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"neuron-vault-indexer/internal/chain"
	"neuron-vault-indexer/internal/config"
	"neuron-vault-indexer/internal/ingestion"
	"neuron-vault-indexer/internal/mapping"
	"neuron-vault-indexer/internal/observability"
	"neuron-vault-indexer/internal/storage"
	chstore "neuron-vault-indexer/internal/storage/clickhouse"
	"neuron-vault-indexer/internal/storage/memory"
	"neuron-vault-indexer/internal/storage/migrations"
	pgstore "neuron-vault-indexer/internal/storage/postgres"
)

// Runtime holds the wired components of one indexer process.
type Runtime struct {
	Stores     storage.Stores
	Progress   storage.ProgressStore
	Reader     chain.ContractReader
	Handler    *mapping.Handler
	Dispatcher *ingestion.Dispatcher

	closers []func()
}

// Build opens storage and the chain connection described by cfg.
// On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	rt := &Runtime{}

	if err := rt.openStores(ctx, cfg, logger); err != nil {
		rt.Close()
		return nil, err
	}

	reader, client, err := chain.Dial(ctx, cfg.Chain.RPCURL, common.HexToAddress(cfg.Chain.OracleAddress),
		chain.WithMaxRetries(cfg.Chain.MaxRetries),
		chain.WithRetryDelay(cfg.Chain.RetryDelay),
		chain.WithMaxDelay(cfg.Chain.MaxDelay),
		chain.WithLogger(logger),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, client.Close)
	rt.Reader = reader
	if !cfg.Chain.PinBlock {
		rt.Reader = latestReader{reader}
	}

	handler, err := mapping.NewHandler(mapping.Options{
		Reader:                    rt.Reader,
		Stores:                    rt.Stores,
		Logger:                    logger.Named("mapping"),
		SnapshotEveryDistribution: cfg.Mapping.SnapshotEveryDistribution,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Handler = handler
	rt.Dispatcher = ingestion.NewDispatcher(handler, rt.Progress, logger.Named("dispatcher"))

	return rt, nil
}

func (rt *Runtime) openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		rt.Stores = memory.NewStores()
		rt.Progress = memory.NewProgressStore()
		logger.Info("Using in-memory storage")

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN, cfg.Storage.MaxConns)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)

		if cfg.Storage.Migrate {
			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				return fmt.Errorf("postgres migrations: %w", err)
			}
			logger.Info("Applied postgres migrations", zap.Strings("files", applied))
		}

		rt.Stores = pgstore.NewStores(pool)
		rt.Progress = pgstore.NewProgressStore(pool)
		logger.Info("Using postgres storage")

	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.PoolPriceBackend() == config.BackendClickhouse {
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.Storage.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		}
		if err != nil {
			return fmt.Errorf("connect clickhouse: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = conn.Close() })

		rt.Stores.PoolPrices = chstore.NewPoolPriceStore(conn)
		logger.Info("Storing pool price snapshots in clickhouse")
	}
	return nil
}

// Close releases connections in reverse order of opening.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// latestReader hides chain.BlockScoped so reads always target the latest block.
type latestReader struct {
	chain.ContractReader
}

// ServeMetrics starts the /metrics and /health endpoint in the background.
// An empty addr disables it and returns nil.
func ServeMetrics(addr string, logger *zap.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()
	return srv
}
