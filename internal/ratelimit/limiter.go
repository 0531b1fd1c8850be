// Package ratelimit bounds how many attempts a client may make inside a fixed
// window. Counters live in a Store so the limiter can run against process
// memory, an expiring cache or a shared Redis instance.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// Entry is the counter kept for one identifier.
type Entry struct {
	Count     int
	ResetTime time.Time
}

// Result is the outcome of a single Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// RetryAfter returns the whole seconds, rounded up, until the window resets.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetTime.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// Store applies hits atomically: two concurrent hits on the same key must
// never both observe the last free slot.
type Store interface {
	// Hit records one attempt for key at now and returns the entry after the
	// update together with whether the attempt fits within max.
	Hit(ctx context.Context, key string, max int, window time.Duration, now time.Time) (Entry, bool, error)
	// Sweep deletes entries whose window ended before now.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type Config struct {
	MaxRequests int
	Window      time.Duration
}

type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

type Limiter struct {
	store  Store
	max    int
	window time.Duration
	now    func() time.Time
}

func NewLimiter(store Store, cfg Config, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.MaxRequests <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("rate limit must have positive values, got %d per %s", cfg.MaxRequests, cfg.Window)
	}

	l := &Limiter{
		store:  store,
		max:    cfg.MaxRequests,
		window: cfg.Window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Limit returns the configured quota and window.
func (l *Limiter) Limit() (int, time.Duration) {
	return l.max, l.window
}

// Now exposes the limiter's clock so callers compute Retry-After against the
// same time source that produced ResetTime.
func (l *Limiter) Now() time.Time {
	return l.now()
}

// Check counts one attempt for identifier.
func (l *Limiter) Check(ctx context.Context, identifier string) (Result, error) {
	entry, allowed, err := l.store.Hit(ctx, identifier, l.max, l.window, l.now())
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %q: %w", identifier, err)
	}

	res := Result{
		Allowed:   allowed,
		Limit:     l.max,
		ResetTime: entry.ResetTime,
	}
	if allowed {
		res.Remaining = l.max - entry.Count
	}
	return res, nil
}

// Cleanup removes every entry whose window has passed.
func (l *Limiter) Cleanup(ctx context.Context) (int, error) {
	return l.store.Sweep(ctx, l.now())
}

// StartCleanup sweeps expired entries every interval until ctx is done.
func (l *Limiter) StartCleanup(ctx context.Context, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := l.Cleanup(ctx)
				if err != nil {
					log.Warn("rate limit cleanup failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Debug("rate limit cleanup", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// hit is the window arithmetic shared by the in-process stores.
func hit(e Entry, found bool, max int, window time.Duration, now time.Time) (Entry, bool) {
	if !found || now.After(e.ResetTime) {
		return Entry{Count: 1, ResetTime: now.Add(window)}, true
	}
	if e.Count >= max {
		return e, false
	}
	e.Count++
	return e, true
}
