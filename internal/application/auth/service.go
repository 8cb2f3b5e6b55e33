package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
	"github.com/BlixtWallet/noah-sub000/internal/pkg/lnauth"
	pkgtoken "github.com/BlixtWallet/noah-sub000/internal/pkg/token"
)

// ChallengeStore is the backing store for issued k1 challenges. Each
// operation is a single atomic store call, so implementations need no
// additional locking for concurrent use.
type ChallengeStore interface {
	Put(ctx context.Context, k1 string, issuedAt int64) error
	Contains(ctx context.Context, k1 string) (bool, error)
	// Remove deletes the challenge; removing an absent key is a no-op.
	Remove(ctx context.Context, k1 string) error
}

// Service issues challenges and runs the LNURL-auth verification state
// machine for every protected operation.
type Service interface {
	// IssueK1 generates, persists, and returns a fresh single-use challenge.
	IssueK1(ctx context.Context) (string, error)
	// Authenticate verifies (k1, sig, key) and consumes the challenge on
	// success. Failures are reported through the domain auth sentinels.
	Authenticate(ctx context.Context, k1, sig, pubkey string) error
}

type service struct {
	store ChallengeStore
	ttl   time.Duration
	now   func() time.Time
}

func NewService(store ChallengeStore, ttl time.Duration) Service {
	return &service{store: store, ttl: ttl, now: time.Now}
}

// NewServiceWithClock is used by tests that need to control time.
func NewServiceWithClock(store ChallengeStore, ttl time.Duration, now func() time.Time) Service {
	return &service{store: store, ttl: ttl, now: now}
}

func (s *service) IssueK1(ctx context.Context) (string, error) {
	now := s.now().UTC()
	k1, err := pkgtoken.NewK1(now)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, k1, now.Unix()); err != nil {
		return "", fmt.Errorf("persist k1: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}
	return k1, nil
}

// Authenticate runs the checks in fixed order: existence, embedded timestamp,
// then signature. The ordering gives the caller the most specific error and
// skips the elliptic-curve verification for challenges that are already
// known-dead.
func (s *service) Authenticate(ctx context.Context, k1, sig, pubkey string) error {
	if k1 == "" || sig == "" || pubkey == "" {
		return domain.ErrMissingCredentials
	}

	exists, err := s.store.Contains(ctx, k1)
	if err != nil {
		return fmt.Errorf("challenge lookup: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}
	if !exists {
		return domain.ErrUnknownChallenge
	}

	issuedAt, err := pkgtoken.K1Timestamp(k1)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrMalformedChallenge, err)
	}

	// The embedded timestamp is the authoritative expiry check; the store's
	// TTL eviction is only a memory backstop and may lag. An expired
	// challenge is left for the store to evict rather than force-consumed.
	if s.now().UTC().Sub(time.Unix(issuedAt, 0)) > s.ttl {
		return domain.ErrChallengeExpired
	}

	ok, err := lnauth.VerifyMessage(k1, sig, pubkey)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidSignature, err)
	}
	if !ok {
		return domain.ErrInvalidSignature
	}

	if err := s.store.Remove(ctx, k1); err != nil {
		// The signature checked out; a failed consume must not let the
		// challenge be replayed silently.
		return fmt.Errorf("consume k1: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}

	slog.Debug("authenticated", "pubkey", pubkey)
	return nil
}
