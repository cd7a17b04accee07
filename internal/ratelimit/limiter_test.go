package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)}
}

func TestLimiter_AdmitsExactlyLimitPerWindow(t *testing.T) {
	clock := newClock()
	l := New(10, time.Minute, WithClock(clock.Now))

	for i := 0; i < 10; i++ {
		assert.True(t, l.TryConsume(), "call %d should pass", i+1)
	}
	assert.False(t, l.TryConsume(), "11th call must be rejected")
	assert.False(t, l.TryConsume())
	assert.Equal(t, 0, l.Remaining())
}

func TestLimiter_ResetsOnNextWindow(t *testing.T) {
	clock := newClock()
	l := New(2, time.Minute, WithClock(clock.Now))

	assert.True(t, l.TryConsume())
	assert.True(t, l.TryConsume())
	assert.False(t, l.TryConsume())

	clock.Advance(59 * time.Second)
	assert.False(t, l.TryConsume(), "still inside the first window")

	clock.Advance(time.Second)
	assert.Equal(t, 2, l.Remaining())
	assert.True(t, l.TryConsume())
}

func TestLimiter_WindowsStayAligned(t *testing.T) {
	clock := newClock()
	l := New(1, time.Minute, WithClock(clock.Now))

	// Skip into the middle of the third window.
	clock.Advance(150 * time.Second)
	assert.True(t, l.TryConsume())
	assert.False(t, l.TryConsume())

	// 30 seconds later the third window ends at 180s.
	clock.Advance(30 * time.Second)
	assert.True(t, l.TryConsume())
}

func TestLimiter_RejectedCallsDoNotCount(t *testing.T) {
	clock := newClock()
	l := New(1, time.Minute, WithClock(clock.Now))

	assert.True(t, l.TryConsume())
	for i := 0; i < 5; i++ {
		assert.False(t, l.TryConsume())
	}
	l.Reset()
	assert.True(t, l.TryConsume())
}

func TestLimiter_ConcurrentConsumers(t *testing.T) {
	l := New(50, time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryConsume() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, admitted)
}
