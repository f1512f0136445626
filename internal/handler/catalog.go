package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/taproom-menu/internal/domain/catalog"
)

// ListCategories returns every category in display order.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Ready() {
		writeError(w, r, http.StatusServiceUnavailable, "catalog not available yet")
		return
	}
	writeJSON(w, r, http.StatusOK, h.catalog.Categories())
}

// ListCategoryProducts returns the products of one category slug.
func (h *Handler) ListCategoryProducts(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Ready() {
		writeError(w, r, http.StatusServiceUnavailable, "catalog not available yet")
		return
	}

	slug := r.PathValue("slug")
	if _, ok := h.catalog.Category(slug); !ok {
		writeError(w, r, http.StatusNotFound, "category not found")
		return
	}
	writeJSON(w, r, http.StatusOK, h.catalog.ProductsByCategory(slug))
}

// ListProducts returns the whole catalog, or the search results for ?q=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Ready() {
		writeError(w, r, http.StatusServiceUnavailable, "catalog not available yet")
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		results := h.catalog.Search(q)
		if results == nil {
			results = []catalog.Product{}
		}
		writeJSON(w, r, http.StatusOK, results)
		return
	}
	writeJSON(w, r, http.StatusOK, h.catalog.Products())
}

// GetProduct returns a single product by id.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Product(r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotReady):
			writeError(w, r, http.StatusServiceUnavailable, "catalog not available yet")
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "product not found")
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}
