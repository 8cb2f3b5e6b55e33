package handler

import (
	"net/http"

	"github.com/BlixtWallet/noah-sub000/internal/application/device"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
	"github.com/BlixtWallet/noah-sub000/internal/transport/http/middleware"
)

// DeviceHandler handles push-token registration and version checks.
type DeviceHandler struct {
	svc *device.Service
}

func NewDeviceHandler(svc *device.Service) *DeviceHandler { return &DeviceHandler{svc: svc} }

func (h *DeviceHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.RegisterPushTokenRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RegisterPushToken(r.Context(), pubkey, req); err != nil {
		writeError(w, http.StatusInternalServerError, "could not store push token")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ok"})
}

func (h *DeviceHandler) CheckAppVersion(w http.ResponseWriter, r *http.Request) {
	var req domain.AppVersionCheckRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	info, err := h.svc.CheckAppVersion(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "version check failed")
		return
	}
	writeJSON(w, http.StatusOK, info)
}
