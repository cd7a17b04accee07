package ratelimit

import (
	"sync"
	"time"
)

// Limiter caps upstream calls per fixed window. Windows are aligned to the moment
// the limiter was created and the count drops to zero whenever a window ends.
type Limiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
	now         func() time.Time
}

type Option func(*Limiter)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func New(limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.windowStart = l.now()
	return l
}

// TryConsume takes one call from the current window's quota.
// It returns false, leaving the count untouched, once the quota is spent.
func (l *Limiter) TryConsume() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	if l.count >= l.limit {
		return false
	}
	l.count++
	return true
}

// Remaining returns how many calls are left in the current window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	if l.count >= l.limit {
		return 0
	}
	return l.limit - l.count
}

func (l *Limiter) Reset() {
	l.mu.Lock()
	l.count = 0
	l.mu.Unlock()
}

// advance moves windowStart forward in whole windows. Caller holds mu.
func (l *Limiter) advance() {
	if l.window <= 0 {
		return
	}
	elapsed := l.now().Sub(l.windowStart)
	if elapsed < l.window {
		return
	}
	l.windowStart = l.windowStart.Add(elapsed - elapsed%l.window)
	l.count = 0
}
