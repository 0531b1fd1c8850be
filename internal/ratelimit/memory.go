package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps counters in a mutex-guarded map. Contents are lost on
// restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

func (m *MemoryStore) Hit(_ context.Context, key string, max int, window time.Duration, now time.Time) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, found := m.entries[key]
	e, allowed := hit(e, found, max, window, now)
	m.entries[key] = e
	return e, allowed, nil
}

func (m *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if now.After(e.ResetTime) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked identifiers.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
