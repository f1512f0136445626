// Package handler exposes the catalog, cart, and order operations over HTTP.
package handler

import (
	"net/http"

	"github.com/xenking/taproom-menu/internal/domain/cart"
	"github.com/xenking/taproom-menu/internal/domain/catalog"
	"github.com/xenking/taproom-menu/internal/domain/order"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// WhatsAppPhone is the channel address order messages are dispatched to.
	WhatsAppPhone string
}

// Handler serves the HTTP API, delegating to the catalog service and the
// cart ledger.
type Handler struct {
	catalog *catalog.Service
	ledger  *cart.Ledger
	phone   string
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, catalogSvc *catalog.Service, ledger *cart.Ledger) *Handler {
	return &Handler{
		catalog: catalogSvc,
		ledger:  ledger,
		phone:   cfg.WhatsAppPhone,
	}
}

// Routes registers every API route on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/categories", h.ListCategories)
	mux.HandleFunc("GET /api/categories/{slug}/products", h.ListCategoryProducts)
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PUT /api/cart/items", h.UpdateCartItem)
	mux.HandleFunc("DELETE /api/cart/items", h.RemoveCartItem)
	mux.HandleFunc("PUT /api/cart/notes", h.SetCartNotes)
	mux.HandleFunc("DELETE /api/cart", h.ClearCart)

	mux.HandleFunc("POST /api/order/preview", h.PreviewOrder)
	mux.HandleFunc("POST /api/order/dispatch", h.DispatchOrder)
}

// language resolves the message language for a request: an explicit body
// value wins, then the lang query parameter, then Accept-Language.
func (h *Handler) language(r *http.Request, explicit string) order.Language {
	if explicit != "" {
		return order.MatchLanguage(explicit)
	}
	if q := r.URL.Query().Get("lang"); q != "" {
		return order.MatchLanguage(q)
	}
	return order.MatchLanguage(r.Header.Get("Accept-Language"))
}
