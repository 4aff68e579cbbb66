package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a settable time source for Limiter
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := newLimiter(limit, window, clock.now)
	t.Cleanup(l.Stop)
	return l, clock
}

func TestLimiterSlidingWindow(t *testing.T) {
	l, clock := newTestLimiter(t, 2, time.Minute)

	ok, _ := l.admit("203.0.113.7")
	assert.True(t, ok)
	clock.advance(20 * time.Second)
	ok, _ = l.admit("203.0.113.7")
	assert.True(t, ok)

	ok, retry := l.admit("203.0.113.7")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retry, "oldest hit leaves the window after 40s")

	ok, _ = l.admit("198.51.100.1")
	assert.True(t, ok, "limits are per client")

	clock.advance(40 * time.Second)
	ok, _ = l.admit("203.0.113.7")
	assert.True(t, ok, "first hit has slid out of the window")
	ok, _ = l.admit("203.0.113.7")
	assert.False(t, ok)
}

func TestLimiterSweepForgetsIdleClients(t *testing.T) {
	l, clock := newTestLimiter(t, 5, time.Minute)

	l.admit("203.0.113.7")
	clock.advance(30 * time.Second)
	l.admit("198.51.100.1")

	clock.advance(45 * time.Second)
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.hits, "203.0.113.7")
	assert.Contains(t, l.hits, "198.51.100.1")
}

func TestLimiterMiddleware(t *testing.T) {
	l, clock := newTestLimiter(t, 1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	clock.advance(15500 * time.Millisecond)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "45", rec.Header().Get("Retry-After"))
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", clientKey(req))

	req.RemoteAddr = "unix"
	assert.Equal(t, "unix", clientKey(req))
}

func TestRateLimitsDefaults(t *testing.T) {
	got := RateLimits{Widgets: 3}.withDefaults()
	assert.Equal(t, RateLimits{Global: 120, Widgets: 3, Window: time.Minute}, got)
}
