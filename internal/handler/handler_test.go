package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/taproom-menu/internal/domain/cart"
	"github.com/xenking/taproom-menu/internal/domain/catalog"
)

// staticSource serves fixed raw records to the catalog service.
type staticSource struct {
	categories []string
	items      []string
}

func (s *staticSource) FetchCatalog(context.Context) ([]catalog.RawRecord, []catalog.RawRecord, error) {
	parse := func(docs []string) []catalog.RawRecord {
		out := make([]catalog.RawRecord, 0, len(docs))
		for _, doc := range docs {
			rec, err := catalog.ParseRawRecord([]byte(doc))
			if err != nil {
				panic(err)
			}
			out = append(out, rec)
		}
		return out
	}
	return parse(s.categories), parse(s.items), nil
}

func newTestServer(t *testing.T) (*httptest.Server, *cart.Ledger) {
	t.Helper()

	src := &staticSource{
		categories: []string{
			`{"id": "c1", "slug": "beers", "name": "Beers", "display_order": 1}`,
			`{"id": "c2", "slug": "wines", "name": "Wines", "display_order": 2}`,
		},
		items: []string{
			`{"id": "ipa", "name": "Hazy IPA", "category_id": "c1",
			  "prices": [{"size": "0.33", "price": 25}, {"size": "0.50", "price": 35}]}`,
			`{"id": "merlot", "name": "Merlot", "price": 50, "category_id": "c2"}`,
		},
	}
	svc := catalog.NewService(src)
	require.NoError(t, svc.Refresh(context.Background()))

	ledger := cart.NewLedger(cart.NewMemoryStore(), "")
	require.NoError(t, ledger.Hydrate(context.Background()))

	h := New(Config{WhatsAppPhone: "+84367871781"}, svc, ledger)
	mux := http.NewServeMux()
	h.Routes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, ledger
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeResp[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestListCategories(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/categories")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cats := decodeResp[[]catalog.Category](t, resp)
	require.Len(t, cats, 2)
	assert.Equal(t, "beers", cats[0].ID)
	assert.Equal(t, "wines", cats[1].ID)
}

func TestListCategoryProducts(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/categories/beers/products")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decodeResp[[]catalog.Product](t, resp)
	require.Len(t, products, 1)
	assert.Equal(t, "ipa", products[0].ID)

	resp, err = http.Get(srv.URL + "/api/categories/nope/products")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListProductsSearch(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/products?q=hazy")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decodeResp[[]catalog.Product](t, resp)
	require.Len(t, products, 1)
	assert.Equal(t, "ipa", products[0].ID)

	resp, err = http.Get(srv.URL + "/api/products?q=whiskey")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeResp[[]catalog.Product](t, resp))
}

func TestGetProduct(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/products/merlot")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decodeResp[catalog.Product](t, resp)
	assert.Equal(t, "Merlot", p.Name)

	resp, err = http.Get(srv.URL + "/api/products/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogNotReady(t *testing.T) {
	svc := catalog.NewService(&staticSource{})
	ledger := cart.NewLedger(cart.NewMemoryStore(), "")
	require.NoError(t, ledger.Hydrate(context.Background()))

	h := New(Config{}, svc, ledger)
	mux := http.NewServeMux()
	h.Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	for _, path := range []string{"/api/categories", "/api/products", "/api/products/x"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}
}

func TestCartFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	// Add twice: the lines merge.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items", map[string]any{
		"productId": "ipa", "variant": "0.33",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/cart/items", map[string]any{
		"productId": "ipa", "variant": "0.33",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeResp[cartView](t, resp)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.InDelta(t, 25.0, view.Lines[0].UnitPrice, 1e-9)
	assert.InDelta(t, 50.0, view.Total, 1e-9)
	assert.Equal(t, "50,000 VND", view.FormattedTotal)

	// Update quantity.
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/cart/items", map[string]any{
		"productId": "ipa", "variant": "0.33", "quantity": 4,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decodeResp[cartView](t, resp)
	assert.Equal(t, 4, view.ItemCount)

	// Notes.
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/cart/notes", map[string]any{"notes": "table 4"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decodeResp[cartView](t, resp)
	assert.Equal(t, "table 4", view.Notes)

	// Remove via query params.
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/cart/items?productId=ipa&variant=0.33", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decodeResp[cartView](t, resp)
	assert.Empty(t, view.Lines)
	assert.Equal(t, "table 4", view.Notes, "removing a line keeps the notes")

	// Clear resets everything.
	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/api/cart", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decodeResp[cartView](t, resp)
	assert.Empty(t, view.Notes)
}

func TestAddUnknownProduct(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items", map[string]any{"productId": "nope"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/cart/items", map[string]any{})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreviewOrder(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items", map[string]any{"productId": "merlot"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/order/preview", map[string]any{"lang": "vi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decodeResp[previewResponse](t, resp)
	assert.Equal(t, "vi", preview.Language)
	assert.Contains(t, preview.Message, "Đơn hàng mới từ Taproom")
	assert.Contains(t, preview.Message, "Merlot")

	// Preview leaves the cart intact.
	resp, err := http.Get(srv.URL + "/api/cart")
	require.NoError(t, err)
	view := decodeResp[cartView](t, resp)
	assert.Equal(t, 1, view.ItemCount)
}

func TestPreviewOrderLanguageFallbacks(t *testing.T) {
	srv, _ := newTestServer(t)

	// Accept-Language drives the choice when nothing explicit is sent.
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/order/preview", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "ja,en;q=0.8")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decodeResp[previewResponse](t, resp)
	assert.Equal(t, "ja", preview.Language)

	// The lang query parameter wins over the header.
	req, err = http.NewRequest(http.MethodPost, srv.URL+"/api/order/preview?lang=ko", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "ja")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	preview = decodeResp[previewResponse](t, resp)
	assert.Equal(t, "ko", preview.Language)
}

func TestDispatchOrder(t *testing.T) {
	srv, ledger := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items", map[string]any{"productId": "merlot"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/order/dispatch", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dispatch := decodeResp[dispatchResponse](t, resp)
	assert.Equal(t, "en", dispatch.Language)
	assert.Contains(t, dispatch.Message, "Merlot")
	assert.Contains(t, dispatch.URL, "https://wa.me/84367871781?text=")

	// Dispatch clears the cart.
	assert.Equal(t, 0, ledger.ItemCount())
}

func TestDispatchEmptyCart(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/order/dispatch", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, "cart is empty", e.Message)
}
