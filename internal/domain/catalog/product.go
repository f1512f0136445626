// Package catalog defines the canonical product and category model and the
// normalization of raw upstream menu records into it.
//
// The upstream provider's record shape has gone through three generations:
// fixed two-size beer pricing embedded in metadata, then an arbitrary
// size/price list, then raw pass-through metadata with per-field fallbacks.
// Everything downstream consumes only the canonical types in this package.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a canonical catalog entry, independent of the upstream record
// generation it was normalized from.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	NameVi        string          `json:"nameVi,omitempty"`
	NameJa        string          `json:"nameJa,omitempty"`
	NameKo        string          `json:"nameKo,omitempty"`
	Description   string          `json:"description,omitempty"`
	DescriptionVi string          `json:"descriptionVi,omitempty"`
	DescriptionJa string          `json:"descriptionJa,omitempty"`
	DescriptionKo string          `json:"descriptionKo,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	Subcategory   string          `json:"subcategory,omitempty"`
	Metadata      *Metadata       `json:"metadata,omitempty"`
	Variants      []VariantPrice  `json:"prices,omitempty"`
	RawMetadata   RawMetadata     `json:"rawMetadata,omitempty"`
}

// VariantPrice is one purchasable size of a product with its own price.
// When a product carries a non-empty variant list, the list is the
// authoritative source of purchasable options and Product.Price is only a
// display fallback (the cheapest variant).
type VariantPrice struct {
	ID    string          `json:"id"`
	Size  string          `json:"size"`
	Price decimal.Decimal `json:"price"`
}

// Metadata holds the structured, interpreted attributes of a product.
type Metadata struct {
	Beer *BeerMetadata `json:"beer,omitempty"`
	Wine *WineMetadata `json:"wine,omitempty"`
	Tags []string      `json:"tags,omitempty"`
}

// Legacy beer sizes with per-item embedded prices. Catalogs in transition may
// still carry these alongside a generic variant list; the variant list wins.
const (
	LegacySizeSmall = "0.33"
	LegacySizeLarge = "0.50"
)

// BeerMetadata describes a beer. IBU and ABV are optional: upstream may send
// them as numbers or numeric strings, and anything that does not parse to a
// finite number is treated as absent.
type BeerMetadata struct {
	IBU *int     `json:"ibu,omitempty"`
	ABV *float64 `json:"abv,omitempty"`

	// First-generation fixed two-size pricing, kept only as a pricing
	// fallback beneath the variant list.
	Size033 *decimal.Decimal `json:"size033ml,omitempty"`
	Size050 *decimal.Decimal `json:"size050ml,omitempty"`
}

// WineMetadata describes a wine. Each field accepts a modern key or its
// legacy wine_-prefixed synonym; the modern key wins when both are present.
type WineMetadata struct {
	Region       string `json:"region,omitempty"`
	Country      string `json:"country,omitempty"`
	GrapeVariety string `json:"grapeVariety,omitempty"`
	Style        string `json:"style,omitempty"`
}

// RawMetadata preserves upstream metadata fields that are not projected into
// Metadata, verbatim and in upstream key order. It exists purely for display;
// no code interprets the values.
type RawMetadata []RawMetadataField

// RawMetadataField is one preserved key/value pair. Value is a generically
// decoded JSON value: string, float64, bool, nil, map[string]any or []any.
type RawMetadataField struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Category is a canonical menu category. ID is the routing-stable slug;
// UpstreamID is the provider's own identifier, used only to attach products
// to their category during normalization.
type Category struct {
	ID         string `json:"id"`
	UpstreamID string `json:"-"`
	Name       string `json:"name"`
	NameVi     string `json:"nameVi,omitempty"`
	NameJa     string `json:"nameJa,omitempty"`
	NameKo     string `json:"nameKo,omitempty"`
	Icon       string `json:"icon,omitempty"`
	Order      int    `json:"order"`
}

// Source supplies raw catalog records. The transport behind it is not this
// package's concern; see the upstream package for the HTTP implementation.
type Source interface {
	FetchCatalog(ctx context.Context) (categories, items []RawRecord, err error)
}
