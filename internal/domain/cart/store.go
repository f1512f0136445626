package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-faster/errors"
)

// DefaultNamespace is the durable key the ledger persists under when no other
// namespace is configured.
const DefaultNamespace = "taproom-cart"

// ErrNotFound is returned by Store.Load when no cart has been persisted under
// the given key yet.
var ErrNotFound = errors.New("cart not found")

// Store is the durable backend for a cart. Save must be atomic per key: a
// reader observes either the previous state or the new one, never a partial
// write.
type Store interface {
	Load(ctx context.Context, key string) (*Cart, error)
	Save(ctx context.Context, key string, c *Cart) error
}

// MemoryStore is an in-process Store used in tests and as the fallback
// backend when no durable store is configured. Values are copied through JSON
// so callers cannot alias stored state.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]byte)}
}

// Load returns the cart stored under key, or ErrNotFound.
func (s *MemoryStore) Load(_ context.Context, key string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.carts[key]
	if !ok {
		return nil, ErrNotFound
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return &c, nil
}

// Save stores the cart under key.
func (s *MemoryStore) Save(_ context.Context, key string, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[key] = data
	return nil
}
