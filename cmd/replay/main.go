package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"neuron-vault-indexer/internal/app"
	"neuron-vault-indexer/internal/config"
	"neuron-vault-indexer/internal/ingestion"
	"neuron-vault-indexer/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	envFile := flag.String("env-file", ".env", "Path to .env file (missing file is ignored)")
	file := flag.String("file", "", "JSONL file of event envelopes (required)")
	strict := flag.Bool("strict", true, "Fail on events out of chain order")
	backend := flag.String("storage", "", "Override storage backend (memory, postgres)")
	outputJSON := flag.Bool("json", false, "Output summary as JSON")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(2)
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	rt, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Build runtime", zap.Error(err))
	}
	defer rt.Close()

	src, err := ingestion.OpenFileSource(*file)
	if err != nil {
		logger.Fatal("Open event file", zap.Error(err))
	}
	defer src.Close()

	replayer := ingestion.NewReplayer(ingestion.ReplayerOptions{
		Source:         src,
		Dispatcher:     rt.Dispatcher,
		StrictOrdering: *strict,
		Logger:         logger.Named("replay"),
	})

	result, runErr := replayer.Run(ctx)

	summary := replaySummary{
		File:          *file,
		EventsRead:    result.EventsRead,
		EventsHandled: result.EventsHandled,
		EventsSkipped: result.EventsSkipped,
		DurationMS:    result.Duration.Milliseconds(),
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("\n=== Replay Summary ===\n")
		fmt.Printf("File:            %s\n", summary.File)
		fmt.Printf("Events Read:     %d\n", summary.EventsRead)
		fmt.Printf("Events Handled:  %d\n", summary.EventsHandled)
		fmt.Printf("Events Skipped:  %d\n", summary.EventsSkipped)
		fmt.Printf("Duration:        %dms\n", summary.DurationMS)
		if summary.Error != "" {
			fmt.Printf("Error:           %s\n", summary.Error)
		}
	}

	if runErr != nil {
		rt.Close()
		os.Exit(1)
	}
}

type replaySummary struct {
	File          string `json:"file"`
	EventsRead    int    `json:"events_read"`
	EventsHandled int    `json:"events_handled"`
	EventsSkipped int    `json:"events_skipped"`
	DurationMS    int64  `json:"duration_ms"`
	Error         string `json:"error,omitempty"`
}
