// Package ratelimit implements a per-client fixed-window request counter held in memory.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultWindow = time.Minute
	DefaultMax    = 100
)

// Config tunes a Limiter. Zero values fall back to the defaults.
type Config struct {
	Max    int
	Window time.Duration
	Now    func() time.Time
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Count      int
	ResetAt    time.Time
	// RetryAfter is the time left in the current window, measured on the limiter's clock.
	RetryAfter time.Duration
}

// Limiter admits at most Max requests per identifier within each window.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	max     int
	window  time.Duration
	now     func() time.Time
}

type entry struct {
	windowStart time.Time
	count       int
}

func New(cfg Config) *Limiter {
	if cfg.Max <= 0 {
		cfg.Max = DefaultMax
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Limiter{
		entries: make(map[string]*entry),
		max:     cfg.Max,
		window:  cfg.Window,
		now:     cfg.Now,
	}
}

func (l *Limiter) Max() int              { return l.max }
func (l *Limiter) Window() time.Duration { return l.window }

// Allow admits identifier at the limiter's current clock time.
func (l *Limiter) Allow(identifier string) Decision {
	return l.Decide(identifier, l.now())
}

// Admit reports whether a request from identifier at now is within budget.
func (l *Limiter) Admit(identifier string, now time.Time) bool {
	return l.Decide(identifier, now).Allowed
}

// Decide runs cleanup and the admission check for identifier as one atomic step.
// A denied call does not consume budget.
func (l *Limiter) Decide(identifier string, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanup(now)

	e, ok := l.entries[identifier]
	if !ok || now.Sub(e.windowStart) > l.window {
		e = &entry{windowStart: now, count: 1}
		l.entries[identifier] = e
		return Decision{Allowed: true, Count: e.count, ResetAt: now.Add(l.window), RetryAfter: l.window}
	}

	resetAt := e.windowStart.Add(l.window)
	left := resetAt.Sub(now)
	if e.count >= l.max {
		return Decision{Allowed: false, Count: e.count, ResetAt: resetAt, RetryAfter: left}
	}
	e.count++
	return Decision{Allowed: true, Count: e.count, ResetAt: resetAt, RetryAfter: left}
}

// Len returns the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// cleanup drops entries whose window started more than one window before now.
// Callers hold l.mu.
func (l *Limiter) cleanup(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.windowStart) > l.window {
			delete(l.entries, key)
		}
	}
}
