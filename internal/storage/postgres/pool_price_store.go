package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// PoolPriceStore implements storage.PoolPriceStore using PostgreSQL.
type PoolPriceStore struct {
	pool *Pool
}

// NewPoolPriceStore creates a new PoolPriceStore.
func NewPoolPriceStore(pool *Pool) *PoolPriceStore {
	return &PoolPriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolPriceStore = (*PoolPriceStore)(nil)

// Get retrieves a price snapshot by id. Returns ErrNotFound if not exists.
func (s *PoolPriceStore) Get(ctx context.Context, id string) (*domain.NeuronPoolsPrice, error) {
	query := `
		SELECT id, address, price, timestamp
		FROM neuron_pools_prices
		WHERE id = $1
	`

	var p domain.NeuronPoolsPrice
	var price pgtype.Numeric
	var ts int64
	err := s.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Address, &price, &ts)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool price: %w", err)
	}
	p.Price = fromNumeric(price)
	p.Timestamp = uint64(ts)
	return &p, nil
}

// Upsert creates or replaces a price snapshot.
func (s *PoolPriceStore) Upsert(ctx context.Context, p *domain.NeuronPoolsPrice) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO neuron_pools_prices (id, address, price, timestamp)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET address = EXCLUDED.address,
		    price = EXCLUDED.price,
		    timestamp = EXCLUDED.timestamp
	`

	if _, err := s.pool.Exec(ctx, query, p.ID, p.Address, toNumeric(p.Price), int64(p.Timestamp)); err != nil {
		return fmt.Errorf("upsert pool price: %w", err)
	}
	return nil
}
