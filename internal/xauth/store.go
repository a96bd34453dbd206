package xauth

import (
	"context"
	"sync"
	"time"
)

// StateTTL is the authorization window. Entries self-expire after this
// duration whether or not the flow completed.
const StateTTL = 10 * time.Minute

// StateStore is the ephemeral fallback mapping from a state token to its
// PKCE pair, used when cookies do not survive the redirect. It is best
// effort only: consumers must prefer cookies when available, and entries
// carry no persistence guarantee across restarts.
//
// Implementations must be safe for concurrent use.
type StateStore interface {
	Put(ctx context.Context, state string, pair PKCEPair) error
	// Get returns the pair for state, or ok=false when absent or expired.
	Get(ctx context.Context, state string) (pair PKCEPair, ok bool, err error)
	Delete(ctx context.Context, state string) error
}

type memoryEntry struct {
	pair      PKCEPair
	expiresAt time.Time
}

// MemoryStateStore is an in-process StateStore backed by a guarded map.
// Each insert schedules its own deletion after StateTTL, bounding growth
// from abandoned flows.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	ttl time.Duration
	now func() time.Time
}

// NewMemoryStateStore creates an empty store with the standard TTL.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		entries: make(map[string]memoryEntry),
		ttl:     StateTTL,
		now:     time.Now,
	}
}

// Put stores the pair keyed by the exact state token issued. A timer deletes
// the entry after the TTL regardless of whether it was consumed.
func (s *MemoryStateStore) Put(_ context.Context, state string, pair PKCEPair) error {
	s.mu.Lock()
	s.entries[state] = memoryEntry{pair: pair, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()

	time.AfterFunc(s.ttl, func() {
		_ = s.Delete(context.Background(), state)
	})
	return nil
}

// Get looks up state. Expired entries are treated as absent and removed.
func (s *MemoryStateStore) Get(_ context.Context, state string) (PKCEPair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[state]
	if !ok {
		return PKCEPair{}, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, state)
		return PKCEPair{}, false, nil
	}
	return e.pair, true, nil
}

// Delete removes state. Removing an absent key is a no-op.
func (s *MemoryStateStore) Delete(_ context.Context, state string) error {
	s.mu.Lock()
	delete(s.entries, state)
	s.mu.Unlock()
	return nil
}

// SweepExpired removes all expired entries and reports how many were
// removed. The per-entry timers make routine sweeping unnecessary; this
// exists for operational hygiene after clock jumps.
func (s *MemoryStateStore) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}
