package catalog

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// projectedMetaKeys is the fixed exclusion set for raw-metadata pass-through:
// every key, under any of its synonyms, that normalization projects into the
// structured Metadata. Anything else in the upstream metadata object is
// preserved verbatim in RawMetadata.
var projectedMetaKeys = map[string]struct{}{
	"beer":          {},
	"wine":          {},
	"tags":          {},
	"ibu":           {},
	"abv":           {},
	"size033ml":     {},
	"size050ml":     {},
	"region":        {},
	"wine_region":   {},
	"country":       {},
	"wine_country":  {},
	"grapeVariety":  {},
	"grape_variety": {},
	"style":         {},
	"wine_style":    {},
}

// NormalizeProduct converts one raw upstream item record into a canonical
// Product attached to categorySlug. It never fails: malformed optional fields
// degrade to absent, and the price defaults to zero.
//
// Field precedence, per derived field:
//   - purchasable variants: "prices" list entries sorted ascending by price,
//     the cheapest becoming the display price; otherwise a flat "price";
//     otherwise zero
//   - beer/wine fields: metadata.beer / metadata.wine objects first, then
//     flat keys of the metadata object, then the top-level record, with the
//     modern key name winning over its legacy synonym at each level
//   - tags: accepted only when the raw value is a list
func NormalizeProduct(raw RawRecord, categorySlug string) Product {
	p := Product{
		ID:            textField(raw, "id"),
		Name:          textField(raw, "name"),
		NameVi:        textField(raw, "nameVi", "name_vi"),
		NameJa:        textField(raw, "nameJa", "name_ja"),
		NameKo:        textField(raw, "nameKo", "name_ko"),
		Description:   textField(raw, "description"),
		DescriptionVi: textField(raw, "descriptionVi", "description_vi"),
		DescriptionJa: textField(raw, "descriptionJa", "description_ja"),
		DescriptionKo: textField(raw, "descriptionKo", "description_ko"),
		Category:      categorySlug,
		Subcategory:   textField(raw, "subcategory"),
	}

	p.Variants = normalizeVariants(raw)
	switch {
	case len(p.Variants) > 0:
		p.Price = p.Variants[0].Price
	default:
		if d, ok := raw.Decimal("price"); ok && !d.IsNegative() {
			p.Price = d
		} else {
			p.Price = decimal.Zero
		}
	}

	meta, _ := raw.Object("metadata")
	m := Metadata{
		Beer: normalizeBeer(meta, raw),
		Wine: normalizeWine(meta, raw),
		Tags: normalizeTags(meta, raw),
	}
	if m.Beer != nil || m.Wine != nil || m.Tags != nil {
		p.Metadata = &m
	}

	p.RawMetadata = passthroughMetadata(meta)

	return p
}

// NormalizeCategory converts one raw category record. index is the position
// of the record in the upstream response and is used as the sort order when
// the record carries none.
func NormalizeCategory(raw RawRecord, index int) Category {
	c := Category{
		ID:         textField(raw, "slug"),
		UpstreamID: textField(raw, "id"),
		Name:       textField(raw, "name"),
		NameVi:     textField(raw, "nameVi", "name_vi"),
		NameJa:     textField(raw, "nameJa", "name_ja"),
		NameKo:     textField(raw, "nameKo", "name_ko"),
		Icon:       textField(raw, "icon"),
		Order:      index,
	}
	if c.ID == "" {
		c.ID = c.UpstreamID
	}
	if n, ok := raw.Number("display_order"); ok {
		c.Order = int(n)
	} else if n, ok := raw.Number("order"); ok {
		c.Order = int(n)
	}
	return c
}

func normalizeVariants(raw RawRecord) []VariantPrice {
	elems, ok := raw.Array("prices")
	if !ok || len(elems) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(elems))
	variants := make([]VariantPrice, 0, len(elems))
	for _, e := range elems {
		rec, err := ParseRawRecord(e)
		if err != nil {
			continue
		}
		size, ok := rec.Text("size")
		if !ok || size == "" {
			continue
		}
		price, ok := rec.Decimal("price")
		if !ok || price.IsNegative() {
			continue
		}
		// Sizes must be unique within a product; first occurrence wins.
		if _, dup := seen[size]; dup {
			continue
		}
		seen[size] = struct{}{}
		variants = append(variants, VariantPrice{
			ID:    textField(rec, "id"),
			Size:  size,
			Price: price,
		})
	}
	if len(variants) == 0 {
		return nil
	}

	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Price.LessThan(variants[j].Price)
	})
	return variants
}

func normalizeBeer(meta, top RawRecord) *BeerMetadata {
	nested, _ := meta.Object("beer")

	var b BeerMetadata
	if f, ok := lookupNumber(nested, meta, top, "ibu"); ok && f >= 0 {
		v := int(math.Round(f))
		b.IBU = &v
	}
	if f, ok := lookupNumber(nested, meta, top, "abv"); ok && f >= 0 {
		b.ABV = &f
	}
	if d, ok := lookupDecimal(nested, meta, top, "size033ml"); ok && !d.IsNegative() {
		b.Size033 = &d
	}
	if d, ok := lookupDecimal(nested, meta, top, "size050ml"); ok && !d.IsNegative() {
		b.Size050 = &d
	}

	if b.IBU == nil && b.ABV == nil && b.Size033 == nil && b.Size050 == nil {
		return nil
	}
	return &b
}

func normalizeWine(meta, top RawRecord) *WineMetadata {
	nested, _ := meta.Object("wine")

	w := WineMetadata{
		Region:       lookupText(nested, meta, top, "region", "wine_region"),
		Country:      lookupText(nested, meta, top, "country", "wine_country"),
		GrapeVariety: lookupText(nested, meta, top, "grapeVariety", "grape_variety"),
		Style:        lookupText(nested, meta, top, "style", "wine_style"),
	}
	if w == (WineMetadata{}) {
		return nil
	}
	return &w
}

func normalizeTags(meta, top RawRecord) []string {
	for _, rec := range []RawRecord{meta, top} {
		elems, ok := rec.Array("tags")
		if !ok {
			continue
		}
		tags := make([]string, 0, len(elems))
		for _, e := range elems {
			if s, ok := rawText(e); ok {
				tags = append(tags, s)
			}
		}
		if len(tags) > 0 {
			return tags
		}
	}
	return nil
}

// passthroughMetadata collects every metadata key that normalization did not
// consume, in upstream order.
func passthroughMetadata(meta RawRecord) RawMetadata {
	var out RawMetadata
	for _, key := range meta.Keys() {
		if _, projected := projectedMetaKeys[key]; projected {
			continue
		}
		raw, _ := meta.Get(key)
		out = append(out, RawMetadataField{Key: key, Value: decodeValue(raw)})
	}
	return out
}

// textField returns the first present text value among the given keys.
func textField(raw RawRecord, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw.Text(key); ok {
			return s
		}
	}
	return ""
}

// lookupText resolves a field across the three record generations: the nested
// block first, then the flat metadata object, then the top level. Within each
// level the keys are tried in the given order (modern name first).
func lookupText(nested, meta, top RawRecord, keys ...string) string {
	for _, rec := range []RawRecord{nested, meta, top} {
		for _, key := range keys {
			if s, ok := rec.Text(key); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func lookupNumber(nested, meta, top RawRecord, key string) (float64, bool) {
	for _, rec := range []RawRecord{nested, meta, top} {
		if f, ok := rec.Number(key); ok {
			return f, true
		}
	}
	return 0, false
}

func lookupDecimal(nested, meta, top RawRecord, key string) (decimal.Decimal, bool) {
	for _, rec := range []RawRecord{nested, meta, top} {
		if d, ok := rec.Decimal(key); ok {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}
