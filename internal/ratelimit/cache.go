package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheStore keeps counters in a go-cache instance. Each item expires with its
// window, so the cache janitor reclaims idle identifiers on its own.
type CacheStore struct {
	mu    sync.Mutex
	items *cache.Cache
}

var _ Store = (*CacheStore)(nil)

// NewCacheStore creates a store whose janitor runs every janitorInterval.
func NewCacheStore(janitorInterval time.Duration) *CacheStore {
	return &CacheStore{
		items: cache.New(cache.NoExpiration, janitorInterval),
	}
}

func (s *CacheStore) Hit(_ context.Context, key string, max int, window time.Duration, now time.Time) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var e Entry
	v, found := s.items.Get(key)
	if found {
		e, found = v.(Entry)
	}

	e, allowed := hit(e, found, max, window, now)
	if allowed {
		ttl := e.ResetTime.Sub(now)
		if ttl < time.Millisecond {
			ttl = time.Millisecond
		}
		s.items.Set(key, e, ttl)
	}
	return e, allowed, nil
}

func (s *CacheStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.items.ItemCount()
	s.items.DeleteExpired()
	for key, item := range s.items.Items() {
		if e, ok := item.Object.(Entry); !ok || now.After(e.ResetTime) {
			s.items.Delete(key)
		}
	}
	return before - s.items.ItemCount(), nil
}

// Len returns the number of cached identifiers, including expired items the
// janitor has not reclaimed yet.
func (s *CacheStore) Len() int {
	return s.items.ItemCount()
}
