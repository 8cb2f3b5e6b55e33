package handler

import (
	"errors"
	"net/http"

	"github.com/BlixtWallet/noah-sub000/internal/application/backup"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
	"github.com/BlixtWallet/noah-sub000/internal/transport/http/middleware"
)

// BackupHandler handles the encrypted-backup endpoints.
type BackupHandler struct {
	svc *backup.Service
}

func NewBackupHandler(svc *backup.Service) *BackupHandler { return &BackupHandler{svc: svc} }

func (h *BackupHandler) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.GetUploadURLRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.svc.GetUploadURL(r.Context(), pubkey, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not mint upload url")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BackupHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CompleteUploadRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.CompleteUpload(r.Context(), pubkey, req); err != nil {
		if errors.Is(err, domain.ErrBadRequest) {
			writeError(w, http.StatusBadRequest, "s3 key does not match backup slot")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not record backup")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ok"})
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	infos, err := h.svc.List(r.Context(), pubkey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list backups")
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *BackupHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.GetDownloadURLRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.svc.GetDownloadURL(r.Context(), pubkey, req)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no backup found")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not mint download url")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.DeleteBackupRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Delete(r.Context(), pubkey, req); err != nil {
		writeError(w, http.StatusInternalServerError, "could not delete backup")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ok"})
}

func (h *BackupHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := middleware.PubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.BackupSettingsRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.UpdateSettings(r.Context(), pubkey, req); err != nil {
		writeError(w, http.StatusInternalServerError, "could not update settings")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ok"})
}
