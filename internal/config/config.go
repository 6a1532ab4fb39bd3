// Package config loads indexer configuration from YAML, .env files and the
// environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultOracleAddress is the price oracle the vault contracts report to.
const DefaultOracleAddress = "0xf0b7A1Bd858Cc8d6F09694D7cEf3b6a504f0804E"

// Storage backends.
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
)

// Config holds the indexer configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Chain   ChainConfig   `yaml:"chain"`
	NATS    NATSConfig    `yaml:"nats"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
	Mapping MappingConfig `yaml:"mapping"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// ChainConfig configures contract reads.
type ChainConfig struct {
	RPCURL        string        `yaml:"rpc_url"`
	OracleAddress string        `yaml:"oracle_address"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	// PinBlock reads contract state at the event's block instead of latest.
	PinBlock bool `yaml:"pin_block"`
}

// NATSConfig configures the live event stream.
type NATSConfig struct {
	URL          string        `yaml:"url"`
	Stream       string        `yaml:"stream"`
	Subject      string        `yaml:"subject"`
	Consumer     string        `yaml:"consumer"`
	AckWait      time.Duration `yaml:"ack_wait"`
	EnsureStream bool          `yaml:"ensure_stream"`
}

// StorageConfig selects and configures entity storage.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	MaxConns      int32  `yaml:"max_conns"`
	PoolPrices    string `yaml:"pool_prices"` // backend for price snapshots; empty means Backend
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	Migrate       bool   `yaml:"migrate"`
}

// MetricsConfig configures the HTTP endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// MappingConfig configures the event handlers.
type MappingConfig struct {
	SnapshotEveryDistribution bool `yaml:"snapshot_every_distribution"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Encoding: "json"},
		Chain: ChainConfig{
			RPCURL:        "http://localhost:8545",
			OracleAddress: DefaultOracleAddress,
			MaxRetries:    3,
			RetryDelay:    500 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			PinBlock:      true,
		},
		NATS: NATSConfig{
			URL:          "nats://localhost:4222",
			Stream:       "NEURON_EVENTS",
			Subject:      "neuron.events.>",
			Consumer:     "neuron-vault-indexer",
			AckWait:      30 * time.Second,
			EnsureStream: true,
		},
		Storage: StorageConfig{
			Backend:  BackendMemory,
			MaxConns: 10,
			Migrate:  true,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env style files into the process environment.
// Missing files are ignored; variables already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv overrides fields from NEURON_* variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"NEURON_LOG_LEVEL":      &c.Log.Level,
		"NEURON_LOG_ENCODING":   &c.Log.Encoding,
		"NEURON_RPC_URL":        &c.Chain.RPCURL,
		"NEURON_ORACLE_ADDRESS": &c.Chain.OracleAddress,
		"NEURON_NATS_URL":       &c.NATS.URL,
		"NEURON_NATS_STREAM":    &c.NATS.Stream,
		"NEURON_NATS_SUBJECT":   &c.NATS.Subject,
		"NEURON_NATS_CONSUMER":  &c.NATS.Consumer,
		"NEURON_STORAGE":        &c.Storage.Backend,
		"NEURON_POSTGRES_DSN":   &c.Storage.PostgresDSN,
		"NEURON_POOL_PRICES":    &c.Storage.PoolPrices,
		"NEURON_CLICKHOUSE_DSN": &c.Storage.ClickhouseDSN,
		"NEURON_METRICS_ADDR":   &c.Metrics.Addr,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"NEURON_PIN_BLOCK":                  &c.Chain.PinBlock,
		"NEURON_NATS_ENSURE_STREAM":         &c.NATS.EnsureStream,
		"NEURON_MIGRATE":                    &c.Storage.Migrate,
		"NEURON_SNAPSHOT_EVERY_DISTRIBUTION": &c.Mapping.SnapshotEveryDistribution,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	if v, ok := lookup("NEURON_RPC_MAX_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NEURON_RPC_MAX_RETRIES: %w", err)
		}
		c.Chain.MaxRetries = n
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []string

	if !common.IsHexAddress(c.Chain.OracleAddress) {
		errs = append(errs, fmt.Sprintf("chain.oracle_address %q is not an address", c.Chain.OracleAddress))
	}
	if c.Chain.MaxRetries < 0 {
		errs = append(errs, "chain.max_retries must be >= 0")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, "storage.postgres_dsn is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend %q must be memory or postgres", c.Storage.Backend))
	}

	switch c.PoolPriceBackend() {
	case BackendMemory, BackendPostgres:
		if c.PoolPriceBackend() != c.Storage.Backend {
			errs = append(errs, fmt.Sprintf("storage.pool_prices %q must match storage.backend or be clickhouse", c.Storage.PoolPrices))
		}
	case BackendClickhouse:
		if c.Storage.ClickhouseDSN == "" {
			errs = append(errs, "storage.clickhouse_dsn is required for clickhouse pool prices")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.pool_prices %q is not a known backend", c.Storage.PoolPrices))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PoolPriceBackend returns the backend that stores price snapshots.
func (c *Config) PoolPriceBackend() string {
	if c.Storage.PoolPrices == "" {
		return c.Storage.Backend
	}
	return c.Storage.PoolPrices
}
