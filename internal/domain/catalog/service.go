package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ErrNotReady is returned by read accessors before the first successful
// refresh has produced a catalog snapshot.
var ErrNotReady = errors.New("catalog not ready")

// Service holds the normalized catalog in memory and refreshes it from a raw
// record Source. Reads see a consistent snapshot; Refresh swaps the whole
// snapshot at once.
type Service struct {
	source Source

	mu         sync.RWMutex
	ready      bool
	categories []Category
	products   []Product
	byID       map[string]int
	byCategory map[string][]int
}

// NewService creates a Service over the given source. The catalog is empty
// and not ready until the first successful Refresh.
func NewService(source Source) *Service {
	return &Service{source: source}
}

// Refresh fetches raw records from the source, normalizes them, and swaps in
// the new snapshot. On error the previous snapshot stays in place.
func (s *Service) Refresh(ctx context.Context) error {
	rawCategories, rawItems, err := s.source.FetchCatalog(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch catalog")
	}

	categories := make([]Category, 0, len(rawCategories))
	slugByUpstreamID := make(map[string]string, len(rawCategories))
	for i, raw := range rawCategories {
		c := NormalizeCategory(raw, i)
		categories = append(categories, c)
		if c.UpstreamID != "" {
			slugByUpstreamID[c.UpstreamID] = c.ID
		}
	}
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Order != categories[j].Order {
			return categories[i].Order < categories[j].Order
		}
		return categories[i].ID < categories[j].ID
	})

	products := make([]Product, 0, len(rawItems))
	byID := make(map[string]int, len(rawItems))
	byCategory := make(map[string][]int)
	for _, raw := range rawItems {
		p := NormalizeProduct(raw, categorySlug(raw, slugByUpstreamID))
		if p.ID == "" || p.Name == "" {
			// A record without identity cannot be displayed or ordered.
			continue
		}
		if _, dup := byID[p.ID]; dup {
			continue
		}
		idx := len(products)
		products = append(products, p)
		byID[p.ID] = idx
		byCategory[p.Category] = append(byCategory[p.Category], idx)
	}

	s.mu.Lock()
	s.ready = true
	s.categories = categories
	s.products = products
	s.byID = byID
	s.byCategory = byCategory
	s.mu.Unlock()

	return nil
}

// categorySlug resolves the owning category slug for a raw item: a nested
// category object's slug when the provider embeds one, otherwise the
// category_id mapped through the fetched categories.
func categorySlug(raw RawRecord, slugByUpstreamID map[string]string) string {
	if nested, ok := raw.Object("category"); ok {
		if slug, ok := nested.Text("slug"); ok && slug != "" {
			return slug
		}
	}
	if id, ok := raw.Text("category_id"); ok {
		if slug, ok := slugByUpstreamID[id]; ok {
			return slug
		}
		return id
	}
	if slug, ok := raw.Text("category"); ok {
		return slug
	}
	return ""
}

// Run refreshes the catalog at the given interval until ctx is cancelled.
// Failures are logged and retried on the next tick.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				zctx.From(ctx).Warn("Catalog refresh failed", zap.Error(err))
			}
		}
	}
}

// Ready reports whether at least one refresh has succeeded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Categories returns the categories sorted by display order, ties broken by
// id.
func (s *Service) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Products returns every product in upstream order.
func (s *Service) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// ProductsByCategory returns the products of one category slug in upstream
// order. An unknown slug yields an empty slice.
func (s *Service) ProductsByCategory(slug string) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idxs := s.byCategory[slug]
	out := make([]Product, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, s.products[i])
	}
	return out
}

// Category returns one category by slug.
func (s *Service) Category(slug string) (Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == slug {
			return c, true
		}
	}
	return Category{}, false
}

// Product returns one product by id.
func (s *Service) Product(id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, ErrNotReady
	}
	idx, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := s.products[idx]
	return &p, nil
}

// Search returns products whose name (in any language), description,
// or subcategory contains the query, case-insensitively.
func (s *Service) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Product
	for _, p := range s.products {
		if matchesQuery(&p, q) {
			out = append(out, p)
		}
	}
	return out
}

func matchesQuery(p *Product, q string) bool {
	for _, field := range []string{
		p.Name, p.NameVi, p.NameJa, p.NameKo,
		p.Description, p.DescriptionVi, p.DescriptionJa, p.DescriptionKo,
		p.Subcategory,
	} {
		if field != "" && strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
