// Package cart implements the order ledger: a single-owner, durably persisted
// collection of selected line items plus free-text order notes.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/taproom-menu/internal/domain/catalog"
	"github.com/xenking/taproom-menu/internal/domain/pricing"
)

// Line is one cart entry. The product snapshot is taken at add time and kept
// with the line, so a persisted cart stays displayable and priceable even if
// the catalog changes afterwards. Snapshots are treated as immutable.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Variant  string          `json:"variant,omitempty"`
}

// Key returns the merge identity of the line. Two lines with the same product
// id but different variants (including no variant) never merge.
func (l Line) Key() LineKey {
	return LineKey{ProductID: l.Product.ID, Variant: l.Variant}
}

// LineKey identifies a line for merge purposes.
type LineKey struct {
	ProductID string
	Variant   string
}

// Cart is the authoritative "what will be ordered" state: an ordered line
// list (insertion order preserved for display) plus order notes.
type Cart struct {
	Lines []Line `json:"lines"`
	Notes string `json:"notes"`
}

// Clone returns a copy whose line slice is independent of the receiver's.
// Product snapshots are shared; they are never mutated.
func (c Cart) Clone() Cart {
	out := Cart{Notes: c.Notes}
	if len(c.Lines) > 0 {
		out.Lines = make([]Line, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}

// find returns the index of the line with the given key, or -1.
func (c Cart) find(key LineKey) int {
	for i, l := range c.Lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}

// Total sums resolved unit prices times quantities over every line. Prices
// are resolved per call, never cached on the line.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		unit := pricing.Resolve(&l.Product, l.Variant)
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// ItemCount sums line quantities.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}
