package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// Authentication failures, ordered by how far the auth state machine got.
	ErrMissingCredentials = errors.New("missing credentials")
	ErrUnknownChallenge   = errors.New("unknown challenge")
	ErrMalformedChallenge = errors.New("malformed challenge")
	ErrChallengeExpired   = errors.New("challenge expired")
	ErrInvalidSignature   = errors.New("invalid signature")

	// ErrWaiterTimeout is returned when a pending invoice request is not
	// answered before its deadline.
	ErrWaiterTimeout = errors.New("request timed out")

	// ErrStoreUnavailable indicates the backing store failed; fatal to the
	// current operation only.
	ErrStoreUnavailable = errors.New("store unavailable")
)
