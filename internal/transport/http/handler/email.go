package handler

import (
	"net/http"

	"github.com/BlixtWallet/noah-sub000/internal/application/email"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
	"github.com/BlixtWallet/noah-sub000/internal/transport/http/middleware"
)

// EmailHandler handles the email verification flow.
type EmailHandler struct {
	svc *email.Service
}

func NewEmailHandler(svc *email.Service) *EmailHandler { return &EmailHandler{svc: svc} }

func (h *EmailHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.SendEmailVerificationRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if err := h.svc.SendVerification(r.Context(), pubkey, req); err != nil {
		writeError(w, http.StatusInternalServerError, "could not send verification code")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *EmailHandler) Verify(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.VerifyEmailRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.svc.Verify(r.Context(), pubkey, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
