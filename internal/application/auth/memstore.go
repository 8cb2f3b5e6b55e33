package auth

import (
	"context"
	"sort"
	"sync"
)

// Size bounds for the in-memory store. When the map grows past maxEntries,
// the oldest evictCount challenges by issuance time are dropped.
const (
	maxEntries = 110
	evictCount = 10
)

// MemoryChallengeStore is a process-local ChallengeStore. It has no native
// TTL eviction, so it caps its size and sheds the oldest entries instead;
// expiry itself is still enforced by the auth gate's timestamp check. Used in
// tests and in single-node deployments without DynamoDB.
type MemoryChallengeStore struct {
	mu      sync.Mutex
	entries map[string]int64
}

func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{entries: make(map[string]int64)}
}

func (m *MemoryChallengeStore) Put(_ context.Context, k1 string, issuedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[k1] = issuedAt
	if len(m.entries) > maxEntries {
		m.evictOldest()
	}
	return nil
}

func (m *MemoryChallengeStore) Contains(_ context.Context, k1 string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[k1]
	return ok, nil
}

func (m *MemoryChallengeStore) Remove(_ context.Context, k1 string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, k1)
	return nil
}

// Len reports the current number of stored challenges.
func (m *MemoryChallengeStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictOldest removes the evictCount entries with the smallest issuance
// timestamps. Caller holds the lock.
func (m *MemoryChallengeStore) evictOldest() {
	type entry struct {
		k1       string
		issuedAt int64
	}
	all := make([]entry, 0, len(m.entries))
	for k1, ts := range m.entries {
		all = append(all, entry{k1, ts})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].issuedAt < all[j].issuedAt })
	for i := 0; i < evictCount && i < len(all); i++ {
		delete(m.entries, all[i].k1)
	}
}
