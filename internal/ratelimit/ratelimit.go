// Package ratelimit limits attempts per client within a fixed window.
package ratelimit

import (
	"sync"
	"time"
)

// window tracks attempts for one key in the current window.
type window struct {
	start time.Time
	count int
}

// Limiter is a fixed-window counter keyed by arbitrary strings (client IP).
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time // injectable clock for testing
}

// New creates a Limiter that allows limit attempts per period.
func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// current returns key's window, starting a fresh one if the previous
// elapsed. Must be called with l.mu held.
func (l *Limiter) current(key string) *window {
	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.start.Add(l.period)) {
		w = &window{start: now}
		l.windows[key] = w
	}
	return w
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.current(key)
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Status returns the limit, the attempts left and when the window resets.
func (l *Limiter) Status(key string) (limit int, remaining int, resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.current(key)
	remaining = l.limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return l.limit, remaining, w.start.Add(l.period)
}

// Sweep drops windows that have ended. Returns the number removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.windows {
		if !now.Before(w.start.Add(l.period)) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}
