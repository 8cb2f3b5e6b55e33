package handler

import (
	"errors"
	"net/http"

	"github.com/BlixtWallet/noah-sub000/internal/application/heartbeat"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
	"github.com/BlixtWallet/noah-sub000/internal/transport/http/middleware"
)

// HeartbeatHandler receives wallet answers to heartbeat notifications.
type HeartbeatHandler struct {
	svc *heartbeat.Service
}

func NewHeartbeatHandler(svc *heartbeat.Service) *HeartbeatHandler {
	return &HeartbeatHandler{svc: svc}
}

func (h *HeartbeatHandler) Respond(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.HeartbeatResponseRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RecordResponse(r.Context(), pubkey, req.NotificationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "heartbeat not found or already answered")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not record heartbeat")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ok"})
}
