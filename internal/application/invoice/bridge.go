package invoice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
	pkgtoken "github.com/BlixtWallet/noah-sub000/internal/pkg/token"
)

// Bridge pairs a synchronous HTTP request with an invoice that arrives
// asynchronously, minutes later, from the payee's device. Each pending
// request is a single-resolution channel registered under a fresh
// correlation id.
//
// Exactly-once contract: removal from the registry decides who delivers.
// Resolve removes the entry and sends under the lock; Await's timeout path
// removes the entry under the same lock. Whichever takes the entry out of
// the map handles the waiter; the loser observes an absent entry and backs
// off. A waiter channel is buffered so Resolve never blocks.
type Bridge struct {
	mu      sync.Mutex
	waiters map[string]chan string
}

// Waiter is the calling request's handle on its pending slot. Every Begin
// must be followed by Await on the returned Waiter, or the slot leaks: there
// is no background sweeper.
type Waiter struct {
	id string
	ch chan string
}

// CorrelationID returns the id the asynchronous answer must carry.
func (w Waiter) CorrelationID() string { return w.id }

func NewBridge() *Bridge {
	return &Bridge{waiters: make(map[string]chan string)}
}

// Begin registers a new pending slot under a fresh correlation id.
func (b *Bridge) Begin() (Waiter, error) {
	id, err := pkgtoken.NewCorrelationID()
	if err != nil {
		return Waiter{}, err
	}
	ch := make(chan string, 1)

	b.mu.Lock()
	b.waiters[id] = ch
	b.mu.Unlock()

	return Waiter{id: id, ch: ch}, nil
}

// Await blocks the calling goroutine until the waiter is resolved or the
// deadline elapses. On timeout the registry entry is removed before
// returning, so a late answer finds no waiter and is dropped rather than
// silently buffered. Returns domain.ErrWaiterTimeout on deadline.
func (b *Bridge) Await(ctx context.Context, w Waiter, deadline time.Duration) (string, error) {
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case answer := <-w.ch:
		return answer, nil
	case <-timer.C:
	case <-ctx.Done():
	}

	// Deadline hit (or the server is shutting down). Take the entry back if
	// it is still ours; if Resolve got there first the answer is already
	// buffered and we must deliver it rather than drop it.
	b.mu.Lock()
	_, pending := b.waiters[w.id]
	if pending {
		delete(b.waiters, w.id)
	}
	b.mu.Unlock()

	if !pending {
		select {
		case answer := <-w.ch:
			return answer, nil
		default:
			// Resolve removed the entry but hasn't sent yet; it sends under
			// the lock, so this branch is unreachable in practice.
		}
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return "", domain.ErrWaiterTimeout
}

// Resolve delivers answer to the waiter registered under correlationID.
// Returns false when no waiter exists: already resolved, timed out, or
// never registered. That path is reachable in normal operation (duplicate
// device callbacks) and is not an error.
func (b *Bridge) Resolve(correlationID, answer string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.waiters[correlationID]
	if !ok {
		slog.Debug("no pending waiter for answer", "correlation_id", correlationID)
		return false
	}
	delete(b.waiters, correlationID)
	ch <- answer
	return true
}

// Pending reports the number of registered waiters.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.waiters)
}
