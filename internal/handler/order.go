package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/taproom-menu/internal/domain/order"
)

type orderRequest struct {
	Lang string `json:"lang,omitempty"`
}

type previewResponse struct {
	Language string `json:"language"`
	Message  string `json:"message"`
}

type dispatchResponse struct {
	Language string `json:"language"`
	Message  string `json:"message"`
	URL      string `json:"url"`
}

// PreviewOrder renders the order message for the current cart without
// dispatching it. Previewing an empty cart is allowed.
func (h *Handler) PreviewOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	lang := h.language(r, req.Lang)
	message := order.Message(h.ledger.Snapshot(), lang)
	writeJSON(w, r, http.StatusOK, previewResponse{
		Language: string(lang),
		Message:  message,
	})
}

// DispatchOrder renders the order message, builds the WhatsApp URI for it,
// and clears the cart. Dispatching an empty cart is rejected; the formatter
// itself would render it fine, but an empty order must never reach the venue.
func (h *Handler) DispatchOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	snapshot := h.ledger.Snapshot()
	if snapshot.ItemCount() == 0 {
		writeError(w, r, http.StatusConflict, "cart is empty")
		return
	}

	lang := h.language(r, req.Lang)
	message := order.Message(snapshot, lang)
	dispatchURL := order.DispatchURL(message, h.phone)

	// The hand-off is complete once the URI exists; the cart clears as part
	// of the same operation so a second dispatch cannot duplicate the order.
	if err := h.ledger.Clear(r.Context()); err != nil {
		h.persistError(w, r, err)
		return
	}

	zctx.From(r.Context()).Info("Order dispatched",
		zap.String("language", string(lang)),
		zap.Int("lines", len(snapshot.Lines)),
	)

	writeJSON(w, r, http.StatusOK, dispatchResponse{
		Language: string(lang),
		Message:  message,
		URL:      dispatchURL,
	})
}
