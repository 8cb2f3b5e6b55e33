package handler

import (
	"errors"
	"net/http"

	"github.com/BlixtWallet/noah-sub000/internal/application/notification"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
	"github.com/BlixtWallet/noah-sub000/internal/transport/http/middleware"
)

// ReportHandler receives job outcome reports from devices. The report is tied
// to the k1 the device authenticated with, which is the per-device challenge
// that was embedded in the triggering push.
type ReportHandler struct {
	svc notification.Service
}

func NewReportHandler(svc notification.Service) *ReportHandler { return &ReportHandler{svc: svc} }

func (h *ReportHandler) ReportJobStatus(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	k1, ok := middleware.K1FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.ReportJobStatusRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.ReportJobStatus(r.Context(), pubkey, k1, req); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "no job for this challenge")
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "job belongs to another user")
		case errors.Is(err, domain.ErrBadRequest):
			writeError(w, http.StatusBadRequest, "report type mismatch")
		default:
			writeError(w, http.StatusInternalServerError, "could not record report")
		}
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ok"})
}
