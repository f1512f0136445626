package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/taproom-menu/internal/domain/catalog"
	"github.com/xenking/taproom-menu/internal/domain/order"
	"github.com/xenking/taproom-menu/internal/domain/pricing"
)

// cartView is the cart representation served to clients: the ledger's lines
// with per-line resolved prices plus the derived aggregates.
type cartView struct {
	Lines          []cartLineView `json:"lines"`
	Notes          string         `json:"notes"`
	ItemCount      int            `json:"itemCount"`
	Total          float64        `json:"total"`
	FormattedTotal string         `json:"formattedTotal"`
}

type cartLineView struct {
	Product   catalog.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	Variant   string          `json:"variant,omitempty"`
	UnitPrice float64         `json:"unitPrice"`
	LineTotal float64         `json:"lineTotal"`
}

func (h *Handler) cartView() cartView {
	snapshot := h.ledger.Snapshot()

	view := cartView{
		Lines:          make([]cartLineView, 0, len(snapshot.Lines)),
		Notes:          snapshot.Notes,
		ItemCount:      snapshot.ItemCount(),
		Total:          snapshot.Total().InexactFloat64(),
		FormattedTotal: order.FormatPrice(snapshot.Total()),
	}
	for _, line := range snapshot.Lines {
		unit := pricing.Resolve(&line.Product, line.Variant)
		view.Lines = append(view.Lines, cartLineView{
			Product:   line.Product,
			Quantity:  line.Quantity,
			Variant:   line.Variant,
			UnitPrice: unit.InexactFloat64(),
			LineTotal: unit.Mul(decimal.NewFromInt(int64(line.Quantity))).InexactFloat64(),
		})
	}
	return view
}

// GetCart returns the current cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.cartView())
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Variant   string `json:"variant,omitempty"`
}

// AddCartItem adds one unit of a product (and optional variant) to the cart,
// merging with an existing line for the same key.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(r, &req); err != nil || req.ProductID == "" {
		writeError(w, r, http.StatusBadRequest, "productId is required")
		return
	}

	p, err := h.catalog.Product(req.ProductID)
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

	if err := h.ledger.Add(r.Context(), *p, req.Variant); err != nil {
		h.persistError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.cartView())
}

type updateItemRequest struct {
	ProductID string `json:"productId"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItem overwrites the quantity of a cart line. Zero or negative
// quantities remove the line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeBody(r, &req); err != nil || req.ProductID == "" {
		writeError(w, r, http.StatusBadRequest, "productId is required")
		return
	}

	if err := h.ledger.SetQuantity(r.Context(), req.ProductID, req.Quantity, req.Variant); err != nil {
		h.persistError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.cartView())
}

// RemoveCartItem deletes a cart line, identified by the productId and variant
// query parameters.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("productId")
	if productID == "" {
		writeError(w, r, http.StatusBadRequest, "productId is required")
		return
	}
	variant := r.URL.Query().Get("variant")

	if err := h.ledger.Remove(r.Context(), productID, variant); err != nil {
		h.persistError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.cartView())
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// SetCartNotes replaces the order notes verbatim.
func (h *Handler) SetCartNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ledger.SetNotes(r.Context(), req.Notes); err != nil {
		h.persistError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.cartView())
}

// ClearCart resets lines and notes together.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Clear(r.Context()); err != nil {
		h.persistError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.cartView())
}

// persistError reports a failed cart mutation. The ledger guarantees the
// in-memory cart still matches the last persisted state.
func (h *Handler) persistError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Cart mutation failed", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "cart could not be saved")
}
