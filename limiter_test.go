package newsdesk

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, max int, window time.Duration) (*LoginLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLoginLimiter(max, window)
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestLoginLimiterBlocksAfterMax(t *testing.T) {
	l, _ := newTestLimiter(t, 2, time.Minute)
	ip := "203.0.113.10"

	assert.True(t, l.Check(ip))
	l.Record(ip)
	assert.True(t, l.Check(ip))
	l.Record(ip)
	assert.False(t, l.Check(ip), "third attempt should be blocked")
}

func TestLoginLimiterResetsAfterWindow(t *testing.T) {
	l, clock := newTestLimiter(t, 1, time.Minute)
	ip := "203.0.113.20"

	l.Record(ip)
	assert.False(t, l.Check(ip))

	clock.Advance(61 * time.Second)
	assert.True(t, l.Check(ip))
}

func TestLoginLimiterIsPerIP(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)

	l.Record("203.0.113.30")
	assert.True(t, l.Check("203.0.113.31"))
	assert.False(t, l.Check("203.0.113.30"))
}

func TestLoginLimiterPrune(t *testing.T) {
	l, clock := newTestLimiter(t, 3, time.Minute)
	l.Record("203.0.113.40")
	clock.Advance(2 * time.Minute)
	l.prune()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.attempts)
}

func TestLoginLimiterStopLeavesNoGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	l := NewLoginLimiter(5, 10*time.Millisecond)
	l.Record("203.0.113.50")
	l.Stop()
	l.Stop()
}
