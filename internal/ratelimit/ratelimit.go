// Package ratelimit provides a fixed-window in-memory request counter.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key within a fixed window. It is safe for
// concurrent use and meant for a single process.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	period time.Duration
	state  map[string]*window
	now    func() time.Time
}

func NewLimiter(limit int, period time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		limit:  limit,
		period: period,
		state:  map[string]*window{},
		now:    now,
	}
}

// Allow reports whether the key may proceed, counting the attempt. The
// second return value is when the current window resets.
func (l *Limiter) Allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.state[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.period)}
		l.state[key] = w
	}
	if w.count >= l.limit {
		return false, w.resetAt
	}
	w.count++
	return true, w.resetAt
}

// Cleanup drops expired windows. Call it periodically from a ticker.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.state {
		if !now.Before(w.resetAt) {
			delete(l.state, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (l *Limiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				l.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}
