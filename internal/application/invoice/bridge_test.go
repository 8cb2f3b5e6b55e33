package invoice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

func TestBridge_ResolveDeliversAnswer(t *testing.T) {
	b := NewBridge()
	w, err := b.Begin()
	require.NoError(t, err)

	go func() {
		assert.True(t, b.Resolve(w.CorrelationID(), "lnbc1..."))
	}()

	answer, err := b.Await(context.Background(), w, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "lnbc1...", answer)
	assert.Equal(t, 0, b.Pending())
}

func TestBridge_AwaitTimeout_RemovesWaiter(t *testing.T) {
	b := NewBridge()
	w, err := b.Begin()
	require.NoError(t, err)

	_, err = b.Await(context.Background(), w, 10*time.Millisecond)
	assert.True(t, errors.Is(err, domain.ErrWaiterTimeout))
	assert.Equal(t, 0, b.Pending())
}

func TestBridge_ResolveAfterTimeout_ReturnsFalse(t *testing.T) {
	b := NewBridge()
	w, err := b.Begin()
	require.NoError(t, err)

	_, err = b.Await(context.Background(), w, 10*time.Millisecond)
	require.Error(t, err)

	assert.False(t, b.Resolve(w.CorrelationID(), "too late"))
	assert.Equal(t, 0, b.Pending())
}

func TestBridge_DuplicateResolve_SecondLoses(t *testing.T) {
	b := NewBridge()
	w, err := b.Begin()
	require.NoError(t, err)

	assert.True(t, b.Resolve(w.CorrelationID(), "first"))
	assert.False(t, b.Resolve(w.CorrelationID(), "second"))

	answer, err := b.Await(context.Background(), w, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", answer)
}

func TestBridge_UnknownCorrelationID(t *testing.T) {
	b := NewBridge()
	assert.False(t, b.Resolve("nonexistent", "x"))
}

func TestBridge_AwaitHonorsContextCancel(t *testing.T) {
	b := NewBridge()
	w, err := b.Begin()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.Await(ctx, w, time.Minute)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, b.Pending())
}

func TestBridge_IndependentWaiters(t *testing.T) {
	b := NewBridge()
	w1, err := b.Begin()
	require.NoError(t, err)
	w2, err := b.Begin()
	require.NoError(t, err)
	require.NotEqual(t, w1.CorrelationID(), w2.CorrelationID())

	assert.True(t, b.Resolve(w2.CorrelationID(), "for-w2"))

	answer, err := b.Await(context.Background(), w2, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "for-w2", answer)

	// w1 is untouched and still pending.
	assert.Equal(t, 1, b.Pending())
	_, err = b.Await(context.Background(), w1, 10*time.Millisecond)
	assert.True(t, errors.Is(err, domain.ErrWaiterTimeout))
}

func TestBridge_ConcurrentResolvers_ExactlyOneWins(t *testing.T) {
	b := NewBridge()
	w, err := b.Begin()
	require.NoError(t, err)

	const racers = 16
	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.Resolve(w.CorrelationID(), "answer") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	answer, err := b.Await(context.Background(), w, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "answer", answer)
}
