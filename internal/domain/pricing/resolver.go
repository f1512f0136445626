// Package pricing resolves the price to charge for a product and an optional
// variant selection.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/taproom-menu/internal/domain/catalog"
)

// Resolve returns the unit price for the given product and variant key.
//
// Precedence, in order:
//  1. a matching entry in the product's variant price list
//  2. the legacy fixed two-size beer pricing pair embedded in metadata
//  3. the product's base price
//
// The variant list always wins over the legacy pair: catalogs in transition
// may carry both for the same size key, and the list is authoritative. An
// empty or unknown variant resolves to the base price; there is no failure
// case. Resolve is pure and deterministic.
func Resolve(p *catalog.Product, variant string) decimal.Decimal {
	if variant == "" {
		return p.Price
	}

	for _, v := range p.Variants {
		if v.Size == variant {
			return v.Price
		}
	}

	if p.Metadata != nil && p.Metadata.Beer != nil {
		beer := p.Metadata.Beer
		switch variant {
		case catalog.LegacySizeSmall:
			if beer.Size033 != nil {
				return *beer.Size033
			}
		case catalog.LegacySizeLarge:
			if beer.Size050 != nil {
				return *beer.Size050
			}
		}
	}

	return p.Price
}
