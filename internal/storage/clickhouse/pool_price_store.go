package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// PoolPriceStore implements storage.PoolPriceStore using ClickHouse.
// The table is a ReplacingMergeTree ordered by id, so an upsert is a plain
// insert and reads use FINAL to see the last version.
type PoolPriceStore struct {
	conn *Conn
}

// NewPoolPriceStore creates a new PoolPriceStore.
func NewPoolPriceStore(conn *Conn) *PoolPriceStore {
	return &PoolPriceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PoolPriceStore = (*PoolPriceStore)(nil)

// Get retrieves a price snapshot by id. Returns ErrNotFound if not exists.
func (s *PoolPriceStore) Get(ctx context.Context, id string) (*domain.NeuronPoolsPrice, error) {
	query := `
		SELECT id, address, price, timestamp
		FROM neuron_pools_prices FINAL
		WHERE id = ?
	`

	var p domain.NeuronPoolsPrice
	price := new(big.Int)
	err := s.conn.QueryRow(ctx, query, id).Scan(&p.ID, &p.Address, price, &p.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool price: %w", err)
	}
	p.Price = price
	return &p, nil
}

// Upsert creates or replaces a price snapshot.
func (s *PoolPriceStore) Upsert(ctx context.Context, p *domain.NeuronPoolsPrice) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO neuron_pools_prices (id, address, price, timestamp)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	price := p.Price
	if price == nil {
		price = new(big.Int)
	}

	if err := batch.Append(p.ID, p.Address, price, p.Timestamp); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
