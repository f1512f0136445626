package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/taproom-menu/internal/domain/cart"
)

const (
	loadCartSQL = `SELECT state FROM carts WHERE id = $1`

	saveCartSQL = `INSERT INTO carts (id, state, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`
)

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store backed by PostgreSQL. The whole cart is one
// JSONB row per namespace key, so a save is a single atomic upsert.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore that uses the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Load returns the cart persisted under key, or cart.ErrNotFound.
func (s *CartStore) Load(ctx context.Context, key string) (*cart.Cart, error) {
	var state []byte
	err := s.pool.QueryRow(ctx, loadCartSQL, key).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrapf(err, "load cart %q", key)
	}

	var c cart.Cart
	if err := json.Unmarshal(state, &c); err != nil {
		return nil, errors.Wrapf(err, "decode cart %q", key)
	}
	return &c, nil
}

// Save upserts the cart under key.
func (s *CartStore) Save(ctx context.Context, key string, c *cart.Cart) error {
	state, err := json.Marshal(c)
	if err != nil {
		return errors.Wrapf(err, "encode cart %q", key)
	}

	if _, err := s.pool.Exec(ctx, saveCartSQL, key, state); err != nil {
		return errors.Wrapf(err, "save cart %q", key)
	}
	return nil
}
