package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimits sets per-client request budgets. Zero fields take the value
// from DefaultRateLimits.
type RateLimits struct {
	Global  int // requests per window on every route
	Widgets int // requests per window on activity feed widgets
	Window  time.Duration
}

// DefaultRateLimits matches the RATE_LIMIT defaults in config
var DefaultRateLimits = RateLimits{Global: 120, Widgets: 20, Window: time.Minute}

func (rl RateLimits) withDefaults() RateLimits {
	if rl.Global <= 0 {
		rl.Global = DefaultRateLimits.Global
	}
	if rl.Widgets <= 0 {
		rl.Widgets = DefaultRateLimits.Widgets
	}
	if rl.Window <= 0 {
		rl.Window = DefaultRateLimits.Window
	}
	return rl
}

// Limiter admits at most limit requests per client in any trailing window.
// Hits per client are kept oldest first.
type Limiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// NewLimiter starts a limiter whose idle clients are swept once per window.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return newLimiter(limit, window, time.Now)
}

func newLimiter(limit int, window time.Duration, now func() time.Time) *Limiter {
	l := &Limiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    now,
		done:   make(chan struct{}),
	}
	go l.sweepEvery(window)
	return l
}

func (l *Limiter) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.done:
			return
		}
	}
}

// sweep forgets clients with no hit inside the window
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.window)
	for key, hits := range l.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(l.hits, key)
		}
	}
}

// Stop ends the sweep goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// admit records a hit for key. When the budget is spent it returns false and
// how long until the oldest hit leaves the window.
func (l *Limiter) admit(key string) (bool, time.Duration) {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := l.hits[key]
	live := 0
	for live < len(hits) && !hits[live].After(cutoff) {
		live++
	}
	hits = hits[live:]

	if len(hits) >= l.limit {
		l.hits[key] = hits
		return false, hits[0].Sub(cutoff)
	}
	l.hits[key] = append(hits, now)
	return true, 0
}

// Middleware rejects clients over budget with 429 and a Retry-After header.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := l.admit(clientKey(r))
		if !ok {
			secs := int(math.Ceil(retry.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey returns the host part of r.RemoteAddr. RealIP runs earlier in
// the chain, so forwarding headers are never read here.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimiters holds the limiters applied by the router
type RateLimiters struct {
	Global  *Limiter
	Widgets *Limiter
}

func newRateLimiters(limits RateLimits) *RateLimiters {
	limits = limits.withDefaults()
	return &RateLimiters{
		Global:  NewLimiter(limits.Global, limits.Window),
		Widgets: NewLimiter(limits.Widgets, limits.Window),
	}
}

// Stop stops every sweep goroutine
func (rls *RateLimiters) Stop() {
	rls.Global.Stop()
	rls.Widgets.Stop()
}
