package handler

import (
	"errors"
	"net/http"

	"github.com/BlixtWallet/noah-sub000/internal/application/offboarding"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
	"github.com/BlixtWallet/noah-sub000/internal/transport/http/middleware"
)

// OffboardingHandler handles sweep-out requests.
type OffboardingHandler struct {
	svc *offboarding.Service
}

func NewOffboardingHandler(svc *offboarding.Service) *OffboardingHandler {
	return &OffboardingHandler{svc: svc}
}

func (h *OffboardingHandler) Register(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.RegisterOffboardingRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.Register(r.Context(), pubkey, req)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeError(w, http.StatusConflict, "offboarding already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not register offboarding")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"request_id": created.RequestID,
		"status":     string(created.Status),
	})
}

func (h *OffboardingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CompleteOffboardingRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Complete(r.Context(), pubkey, req.RequestID, req.Success); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "offboarding request not found")
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "not your offboarding request")
		default:
			writeError(w, http.StatusInternalServerError, "could not complete offboarding")
		}
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ok"})
}
