// Package loginlimit implements a token bucket limiter for login attempts,
// keyed by client identifier. It is an injected, explicitly-scoped component
// rather than process-wide singleton state, so it can be unit-tested and
// replaced with a shared cache when running multiple instances.
package loginlimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter manages per-identifier attempt limits.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
}

// Config holds limiter configuration.
type Config struct {
	// AttemptsPerMinute is the sustained allowance per identifier.
	AttemptsPerMinute float64

	// Burst is how many attempts may come in quick succession.
	Burst int
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.AttemptsPerMinute / 60)
	if cfg.AttemptsPerMinute <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    r,
		burst:   burst,
	}
}

// Allow reports whether the identifier may attempt a login now, consuming a
// token when it may.
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// Reset clears the budget for an identifier, typically after a successful
// login.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.rate, l.burst)
		l.buckets[key] = b
	}
	return b
}
