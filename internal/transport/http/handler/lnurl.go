package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BlixtWallet/noah-sub000/internal/application/auth"
	"github.com/BlixtWallet/noah-sub000/internal/application/invoice"
	"github.com/BlixtWallet/noah-sub000/internal/application/notification"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// AddressResolver resolves an LNURL-pay username to its wallet.
type AddressResolver interface {
	ResolveLightningAddress(ctx context.Context, localPart string) (*domain.User, error)
}

// Notifier pushes the invoice request to the payee's device.
type Notifier interface {
	SendToUser(ctx context.Context, pubkey string, req notification.Request) error
}

// LnurlHandler serves the public LNURL surface: the login challenge endpoint
// and the two-step LNURL-pay flow.
type LnurlHandler struct {
	auth           auth.Service
	users          AddressResolver
	bridge         *invoice.Bridge
	notifier       Notifier
	domain         string
	invoiceTimeout time.Duration
}

func NewLnurlHandler(authSvc auth.Service, users AddressResolver, bridge *invoice.Bridge, notifier Notifier, lnurlDomain string, invoiceTimeout time.Duration) *LnurlHandler {
	return &LnurlHandler{
		auth:           authSvc,
		users:          users,
		bridge:         bridge,
		notifier:       notifier,
		domain:         lnurlDomain,
		invoiceTimeout: invoiceTimeout,
	}
}

// GetK1 issues a fresh login challenge.
func (h *LnurlHandler) GetK1(w http.ResponseWriter, r *http.Request) {
	k1, err := h.auth.IssueK1(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue challenge")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"k1": k1, "tag": "login"})
}

// Lnurlp handles GET /.well-known/lnurlp/{username}. Without an amount it
// returns the payRequest parameters; with one it pushes the payee's device
// for an invoice and blocks until the device answers or the wait times out.
func (h *LnurlHandler) Lnurlp(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	u, err := h.users.ResolveLightningAddress(r.Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeLnurlError(w, http.StatusNotFound, "user not found")
			return
		}
		writeLnurlError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	rawAmount := r.URL.Query().Get("amount")
	if rawAmount == "" {
		h.writeParams(w, username, u.LightningAddress)
		return
	}

	amount, err := strconv.ParseUint(rawAmount, 10, 64)
	if err != nil {
		writeLnurlError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	if amount < domain.LnurlpMinSendable {
		writeLnurlError(w, http.StatusBadRequest,
			fmt.Sprintf("minimum invoice request is %d mSats", domain.LnurlpMinSendable))
		return
	}
	if amount > domain.LnurlpMaxSendable {
		writeLnurlError(w, http.StatusBadRequest,
			fmt.Sprintf("maximum invoice request is %d mSats", domain.LnurlpMaxSendable))
		return
	}

	h.requestInvoice(w, r, u.Pubkey, amount)
}

func (h *LnurlHandler) writeParams(w http.ResponseWriter, username, lightningAddress string) {
	metadata, _ := json.Marshal([][2]string{
		{"text/identifier", lightningAddress},
		{"text/plain", "Paying satoshis to " + lightningAddress},
	})
	writeJSON(w, http.StatusOK, domain.LnurlpParamsResponse{
		Callback:       fmt.Sprintf("https://%s/.well-known/lnurlp/%s", h.domain, username),
		MinSendable:    domain.LnurlpMinSendable,
		MaxSendable:    domain.LnurlpMaxSendable,
		Metadata:       string(metadata),
		Tag:            "payRequest",
		CommentAllowed: domain.LnurlpCommentLength,
	})
}

// requestInvoice runs the bridge round-trip: register a waiter, push the
// payee's device with the correlation id and a fresh auth challenge, then
// block for the invoice.
func (h *LnurlHandler) requestInvoice(w http.ResponseWriter, r *http.Request, pubkey string, amount uint64) {
	// Issue the challenge before registering the waiter: once Begin() has
	// run, only Await or Resolve removes the entry, so nothing may fail in
	// between.
	k1, err := h.auth.IssueK1(r.Context())
	if err != nil {
		writeLnurlError(w, http.StatusInternalServerError, "could not issue challenge")
		return
	}

	waiter, err := h.bridge.Begin()
	if err != nil {
		writeLnurlError(w, http.StatusInternalServerError, "could not register invoice request")
		return
	}

	go func() {
		// Detached from the request context: the push must go out even if
		// the payer hangs up early.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := h.notifier.SendToUser(ctx, pubkey, notification.Request{
			Priority: domain.PriorityHigh,
			Payload:  domain.NewInvoiceRequestPayload(k1, waiter.CorrelationID(), amount),
		})
		if err != nil {
			slog.Error("invoice request push failed", "pubkey", pubkey, "error", err)
		}
	}()

	pr, err := h.bridge.Await(r.Context(), waiter, h.invoiceTimeout)
	if err != nil {
		if errors.Is(err, domain.ErrWaiterTimeout) {
			writeLnurlError(w, http.StatusGatewayTimeout, "invoice request timed out")
			return
		}
		writeLnurlError(w, http.StatusInternalServerError, "invoice request failed")
		return
	}

	writeJSON(w, http.StatusOK, domain.LnurlpInvoiceResponse{Pr: pr, Routes: []string{}})
}
