package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/BlixtWallet/noah-sub000/internal/application/auth"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

type contextKey string

const (
	// PubkeyKey carries the verified pubkey of the authenticated request.
	PubkeyKey contextKey = "pubkey"
	// AuthK1Key carries the consumed challenge. Job-status reports are keyed
	// by it.
	AuthK1Key contextKey = "auth_k1"
)

// Auth returns middleware running the LNURL-auth gate: it reads the
// x-auth-k1 / x-auth-sig / x-auth-key headers, verifies the signature over
// the single-use challenge, consumes the challenge, and injects the pubkey
// into the request context.
func Auth(svc auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k1 := r.Header.Get("x-auth-k1")
			sig := r.Header.Get("x-auth-sig")
			pubkey := r.Header.Get("x-auth-key")

			if err := svc.Authenticate(r.Context(), k1, sig, pubkey); err != nil {
				status, msg := authErrorStatus(err)
				writeJSONError(w, status, msg)
				return
			}

			ctx := context.WithValue(r.Context(), PubkeyKey, pubkey)
			ctx = context.WithValue(ctx, AuthK1Key, k1)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authErrorStatus maps auth sentinels to HTTP codes. Problems with the
// request itself are 400s; a valid request that fails verification is a 401.
func authErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingCredentials):
		return http.StatusBadRequest, "missing auth headers"
	case errors.Is(err, domain.ErrUnknownChallenge):
		return http.StatusBadRequest, "unknown challenge"
	case errors.Is(err, domain.ErrMalformedChallenge):
		return http.StatusBadRequest, "malformed challenge"
	case errors.Is(err, domain.ErrChallengeExpired):
		return http.StatusUnauthorized, "challenge expired"
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized, "invalid signature"
	default:
		return http.StatusInternalServerError, "authentication unavailable"
	}
}

// PubkeyFromContext extracts the verified pubkey from the request context.
func PubkeyFromContext(ctx context.Context) (string, bool) {
	pk, ok := ctx.Value(PubkeyKey).(string)
	return pk, ok
}

// K1FromContext extracts the consumed challenge from the request context.
func K1FromContext(ctx context.Context) (string, bool) {
	k1, ok := ctx.Value(AuthK1Key).(string)
	return k1, ok
}
