package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NewK1 generates a fresh challenge token: 32 cryptographically random bytes
// hex-encoded, with the issuance unix timestamp appended after an underscore.
// The embedded timestamp lets the auth gate enforce expiry independently of
// the backing store's TTL eviction.
func NewK1(now time.Time) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate k1: %w", err)
	}
	return fmt.Sprintf("%s_%d", hex.EncodeToString(b), now.Unix()), nil
}

// K1Timestamp extracts the embedded issuance timestamp from a k1 token.
// Returns an error when the token does not have the <hex>_<unix_ts> shape.
func K1Timestamp(k1 string) (int64, error) {
	idx := strings.LastIndex(k1, "_")
	if idx < 0 {
		return 0, fmt.Errorf("k1 has no timestamp suffix")
	}
	ts, err := strconv.ParseInt(k1[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse k1 timestamp: %w", err)
	}
	return ts, nil
}

// NewCorrelationID generates a random 64-character hex identifier used to tie
// a waiting HTTP request to the asynchronous answer that resolves it.
func NewCorrelationID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate correlation id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
