package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) (*httptest.Server, *[]*http.Request) {
	t.Helper()

	var (
		mu       sync.Mutex
		requests []*http.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Clone(context.Background()))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/rest/v1/organizations":
			if r.URL.Query().Get("slug") != "eq.eighty-one" {
				w.Write([]byte(`[]`))
				return
			}
			w.Write([]byte(`[{"id": "org-1"}]`))
		case "/rest/v1/categories":
			w.Write([]byte(`[
				{"id": "c1", "slug": "beers", "name": "Beers", "display_order": 1},
				{"id": "c2", "slug": "wines", "name": "Wines", "display_order": 2}
			]`))
		case "/rest/v1/menu_items":
			w.Write([]byte(`[
				{"id": "ipa", "name": "IPA", "category_id": "c1",
				 "prices": [{"size": "0.33", "price": 25}]}
			]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestFetchCatalog(t *testing.T) {
	srv, requests := newTestProvider(t)

	client := NewClient(Config{
		BaseURL:      srv.URL,
		APIKey:       "secret",
		Organization: "eighty-one",
	})

	categories, items, err := client.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	require.Len(t, items, 1)

	slug, ok := categories[0].Text("slug")
	require.True(t, ok)
	assert.Equal(t, "beers", slug)

	id, ok := items[0].Text("id")
	require.True(t, ok)
	assert.Equal(t, "ipa", id)

	// Embedded price rows survive untouched.
	prices, ok := items[0].Array("prices")
	require.True(t, ok)
	assert.Len(t, prices, 1)

	byPath := map[string]*http.Request{}
	for _, r := range *requests {
		byPath[r.URL.Path] = r
	}

	org := byPath["/rest/v1/organizations"]
	require.NotNil(t, org)
	assert.Equal(t, "secret", org.Header.Get("apikey"))
	assert.Equal(t, "Bearer secret", org.Header.Get("Authorization"))
	assert.Equal(t, "id", org.URL.Query().Get("select"))

	cats := byPath["/rest/v1/categories"]
	require.NotNil(t, cats)
	assert.Equal(t, "eq.org-1", cats.URL.Query().Get("organization_id"))
	assert.Equal(t, "display_order.asc", cats.URL.Query().Get("order"))

	menu := byPath["/rest/v1/menu_items"]
	require.NotNil(t, menu)
	assert.Equal(t, "*,prices(*),category:categories(*)", menu.URL.Query().Get("select"))
	assert.Equal(t, "eq.false", menu.URL.Query().Get("is_disabled"))
}

func TestFetchCatalogUnknownOrganization(t *testing.T) {
	srv, _ := newTestProvider(t)

	client := NewClient(Config{BaseURL: srv.URL, Organization: "nobody"})

	_, _, err := client.FetchCatalog(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestFetchCatalogProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "permission denied"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, Organization: "eighty-one"})

	_, _, err := client.FetchCatalog(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "permission denied")
}
