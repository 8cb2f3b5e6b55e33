package handler

import (
	"encoding/json"
	"net/http"

	"github.com/BlixtWallet/noah-sub000/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusEnvelope is the LNURL-style error wrapper used on the public
// LNURL-pay surface, where clients expect {"status":"ERROR","reason":...}.
type StatusEnvelope struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

func writeLnurlError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, StatusEnvelope{Status: "ERROR", Reason: reason})
}

// decodeValid decodes the JSON body into v and runs struct validation.
func decodeValid(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return validate.Struct(v)
}
