package handler

import (
	"log/slog"
	"net/http"

	"github.com/BlixtWallet/noah-sub000/internal/application/invoice"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// InvoiceHandler receives BOLT11 invoices back from payee devices.
type InvoiceHandler struct {
	bridge *invoice.Bridge
}

func NewInvoiceHandler(bridge *invoice.Bridge) *InvoiceHandler {
	return &InvoiceHandler{bridge: bridge}
}

// Submit resolves the waiter the invoice belongs to. Late or duplicate
// submissions find no waiter; that is a no-op, not an error, so a slow
// device never sees a failure for doing its job.
func (h *InvoiceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitInvoiceRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.bridge.Resolve(req.TransactionID, req.Invoice) {
		slog.Debug("invoice arrived for a gone waiter", "transaction_id", req.TransactionID)
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ok"})
}
