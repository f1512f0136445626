// Package redis implements the durable cart store on Redis. The cart lives
// in a single key, so every save is atomic.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/taproom-menu/internal/domain/cart"
)

// NewClient connects to Redis using a redis:// URL and verifies the
// connection with a ping.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis URL")
	}
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store on a Redis client. Carts never expire;
// clearing is an explicit ledger operation, not a TTL.
type CartStore struct {
	client *redis.Client
}

// NewCartStore returns a CartStore using the given client.
func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{client: client}
}

// Load returns the cart persisted under key, or cart.ErrNotFound.
func (s *CartStore) Load(ctx context.Context, key string) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrapf(err, "load cart %q", key)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "decode cart %q", key)
	}
	return &c, nil
}

// Save stores the cart under key.
func (s *CartStore) Save(ctx context.Context, key string, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrapf(err, "encode cart %q", key)
	}

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return errors.Wrapf(err, "save cart %q", key)
	}
	return nil
}
