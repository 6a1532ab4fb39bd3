package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"neuron-vault-indexer/internal/app"
	"neuron-vault-indexer/internal/config"
	"neuron-vault-indexer/internal/ingestion"
	"neuron-vault-indexer/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	envFile := flag.String("env-file", ".env", "Path to .env file (missing file is ignored)")
	logLevel := flag.String("log-level", "", "Override log level (debug, info, warn, error)")
	natsURL := flag.String("nats-url", "", "Override NATS server URL")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *natsURL != "" {
		cfg.NATS.URL = *natsURL
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	srv := app.ServeMetrics(cfg.Metrics.Addr, logger)

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warn("Received second signal, forcing immediate shutdown", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Error("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, logger)
	done <- err
	cancel()

	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		stop()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Indexer stopped", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	rt, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if cursor, err := rt.Dispatcher.Cursor(ctx); err != nil {
		return err
	} else if cursor != nil {
		logger.Info("Resuming after last handled event",
			zap.Uint64("block", cursor.BlockNumber),
			zap.Uint("log_index", cursor.LogIndex))
	}

	nc, js, err := ingestion.ConnectNATS(cfg.NATS.URL, logger.Named("nats"))
	if err != nil {
		return err
	}
	defer nc.Close()

	subject := ingestion.DefaultSubjectConfig()
	subject.StreamName = cfg.NATS.Stream
	subject.Subject = cfg.NATS.Subject
	subject.ConsumerName = cfg.NATS.Consumer
	subject.AckWait = cfg.NATS.AckWait

	if cfg.NATS.EnsureStream {
		if err := ingestion.EnsureStream(ctx, js, subject); err != nil {
			return err
		}
	}

	messages := make(chan ingestion.RawMessage)
	sub := ingestion.NewNATSSubscriber(js, messages, logger.Named("nats"))
	if err := sub.Subscribe(ctx, subject); err != nil {
		return err
	}
	defer sub.Stop()

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Messages:   messages,
		Dispatcher: rt.Dispatcher,
		Logger:     logger.Named("runner"),
	})
	return runner.Run(ctx)
}
