package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/taproom-menu/internal/domain/catalog"
)

// Ledger owns one cart, bound to a fixed namespace key in a Store. All
// mutation goes through its operations; no other component holds a competing
// copy of the cart.
//
// Mutations serialize under a mutex, so rapid repeated triggers apply as a
// strictly ordered sequence with each operation observing the previous one.
// Each mutation persists the updated cart before it is considered complete:
// on a store failure the in-memory cart stays at the last persisted state and
// the error is returned to the caller.
type Ledger struct {
	store Store
	key   string

	mu   sync.Mutex // held across the persist call
	cart Cart
}

// NewLedger creates a Ledger persisting under the given namespace key. An
// empty key uses DefaultNamespace. Call Hydrate before serving operations.
func NewLedger(store Store, key string) *Ledger {
	if key == "" {
		key = DefaultNamespace
	}
	return &Ledger{store: store, key: key}
}

// Hydrate restores the cart persisted under the ledger's key. A missing
// record hydrates an empty cart.
func (l *Ledger) Hydrate(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, err := l.store.Load(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.cart = Cart{}
			return nil
		}
		return errors.Wrap(err, "load cart")
	}
	l.cart = *stored
	return nil
}

// Add appends a line for (product, variant) with quantity 1, or increments
// the existing line's quantity when the merge key already exists. Insertion
// order of first-added distinct keys is preserved.
func (l *Ledger) Add(ctx context.Context, product catalog.Product, variant string) error {
	return l.mutate(ctx, func(c *Cart) {
		key := LineKey{ProductID: product.ID, Variant: variant}
		if i := c.find(key); i >= 0 {
			c.Lines[i].Quantity++
			return
		}
		c.Lines = append(c.Lines, Line{Product: product, Quantity: 1, Variant: variant})
	})
}

// SetQuantity overwrites the quantity of the matching line in place, keeping
// its position. A quantity of zero or less removes the line. No matching
// line is a no-op.
func (l *Ledger) SetQuantity(ctx context.Context, productID string, quantity int, variant string) error {
	if quantity <= 0 {
		return l.Remove(ctx, productID, variant)
	}
	return l.mutate(ctx, func(c *Cart) {
		if i := c.find(LineKey{ProductID: productID, Variant: variant}); i >= 0 {
			c.Lines[i].Quantity = quantity
		}
	})
}

// Remove deletes the matching line. No matching line is a no-op.
func (l *Ledger) Remove(ctx context.Context, productID, variant string) error {
	return l.mutate(ctx, func(c *Cart) {
		if i := c.find(LineKey{ProductID: productID, Variant: variant}); i >= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		}
	})
}

// SetNotes replaces the order notes verbatim.
func (l *Ledger) SetNotes(ctx context.Context, notes string) error {
	return l.mutate(ctx, func(c *Cart) {
		c.Notes = notes
	})
}

// Clear resets lines and notes together.
func (l *Ledger) Clear(ctx context.Context) error {
	return l.mutate(ctx, func(c *Cart) {
		*c = Cart{}
	})
}

// Snapshot returns a copy of the current cart.
func (l *Ledger) Snapshot() Cart {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cart.Clone()
}

// Total returns the cart total, resolving variant prices per line.
func (l *Ledger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cart.Total()
}

// ItemCount returns the sum of line quantities.
func (l *Ledger) ItemCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cart.ItemCount()
}

// mutate applies fn to a copy of the cart, persists the copy, and only then
// commits it as the in-memory state.
func (l *Ledger) mutate(ctx context.Context, fn func(*Cart)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.cart.Clone()
	fn(&next)

	if err := l.store.Save(ctx, l.key, &next); err != nil {
		return errors.Wrap(err, "persist cart")
	}

	l.cart = next
	return nil
}
