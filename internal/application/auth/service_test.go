package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
	"github.com/BlixtWallet/noah-sub000/internal/pkg/lnauth"
)

const challengeTTL = 600 * time.Second

// testClock is a controllable time source shared between IssueK1 and
// Authenticate.
type testClock struct{ t time.Time }

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService() (Service, *MemoryChallengeStore, *testClock) {
	store := NewMemoryChallengeStore()
	clock := &testClock{t: time.Unix(1700000000, 0)}
	return NewServiceWithClock(store, challengeTTL, clock.now), store, clock
}

func newSignedChallenge(t *testing.T, svc Service) (k1, sig, pubkey string) {
	t.Helper()
	k1, err := svc.IssueK1(context.Background())
	require.NoError(t, err)

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return k1, lnauth.SignMessage(k1, priv), hex.EncodeToString(priv.PubKey().SerializeCompressed())
}

func TestAuthenticate_HappyPath_ConsumesChallenge(t *testing.T) {
	svc, store, _ := newTestService()
	k1, sig, pubkey := newSignedChallenge(t, svc)

	require.NoError(t, svc.Authenticate(context.Background(), k1, sig, pubkey))

	// The challenge is single-use: the same triple is rejected as unknown.
	err := svc.Authenticate(context.Background(), k1, sig, pubkey)
	assert.True(t, errors.Is(err, domain.ErrUnknownChallenge))
	assert.Equal(t, 0, store.Len())
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	svc, _, _ := newTestService()
	k1, sig, pubkey := newSignedChallenge(t, svc)

	for _, tc := range []struct{ k1, sig, pubkey string }{
		{"", sig, pubkey},
		{k1, "", pubkey},
		{k1, sig, ""},
	} {
		err := svc.Authenticate(context.Background(), tc.k1, tc.sig, tc.pubkey)
		assert.True(t, errors.Is(err, domain.ErrMissingCredentials))
	}
}

func TestAuthenticate_UnknownChallenge(t *testing.T) {
	svc, _, _ := newTestService()
	_, sig, pubkey := newSignedChallenge(t, svc)

	err := svc.Authenticate(context.Background(), "feedface_1700000000", sig, pubkey)
	assert.True(t, errors.Is(err, domain.ErrUnknownChallenge))
}

func TestAuthenticate_MalformedChallenge(t *testing.T) {
	// A stored challenge without the timestamp suffix fails the parse check,
	// not the existence check.
	store := NewMemoryChallengeStore()
	clock := &testClock{t: time.Unix(1700000000, 0)}
	svc := NewServiceWithClock(store, challengeTTL, clock.now)
	require.NoError(t, store.Put(context.Background(), "no-timestamp-here", clock.t.Unix()))

	err := svc.Authenticate(context.Background(), "no-timestamp-here", "aa", "bb")
	assert.True(t, errors.Is(err, domain.ErrMalformedChallenge))
}

func TestAuthenticate_ExpiryBoundary(t *testing.T) {
	svc, store, clock := newTestService()
	k1, sig, pubkey := newSignedChallenge(t, svc)

	// One second inside the window still authenticates.
	clock.advance(challengeTTL - time.Second)
	require.NoError(t, svc.Authenticate(context.Background(), k1, sig, pubkey))

	// One second past the window is expired, and the challenge is left in
	// the store for TTL eviction rather than force-consumed.
	k1, sig, pubkey = newSignedChallenge(t, svc)
	clock.advance(challengeTTL + 2*time.Second)
	err := svc.Authenticate(context.Background(), k1, sig, pubkey)
	assert.True(t, errors.Is(err, domain.ErrChallengeExpired))

	exists, err := store.Contains(context.Background(), k1)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAuthenticate_InvalidSignature(t *testing.T) {
	svc, store, _ := newTestService()
	k1, _, pubkey := newSignedChallenge(t, svc)

	otherPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	wrongSig := lnauth.SignMessage(k1, otherPriv)

	err = svc.Authenticate(context.Background(), k1, wrongSig, pubkey)
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))

	// A failed attempt does not consume the challenge.
	exists, err := store.Contains(context.Background(), k1)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAuthenticate_MalformedSignature_IsInvalidSignature(t *testing.T) {
	svc, _, _ := newTestService()
	k1, _, pubkey := newSignedChallenge(t, svc)

	err := svc.Authenticate(context.Background(), k1, "not-a-der-sig", pubkey)
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))
}

func TestIssueK1_StoresChallenge(t *testing.T) {
	svc, store, _ := newTestService()

	k1, err := svc.IssueK1(context.Background())
	require.NoError(t, err)

	exists, err := store.Contains(context.Background(), k1)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryStore_CapsAndEvictsOldest(t *testing.T) {
	store := NewMemoryChallengeStore()
	ctx := context.Background()

	for i := 0; i <= maxEntries; i++ {
		require.NoError(t, store.Put(ctx, fmt.Sprintf("k1-%03d_%d", i, i), int64(i)))
	}

	// Crossing the cap sheds the evictCount oldest entries.
	assert.Equal(t, maxEntries+1-evictCount, store.Len())

	oldest, err := store.Contains(ctx, "k1-000_0")
	require.NoError(t, err)
	assert.False(t, oldest)

	newest, err := store.Contains(ctx, fmt.Sprintf("k1-%03d_%d", maxEntries, maxEntries))
	require.NoError(t, err)
	assert.True(t, newest)
}
