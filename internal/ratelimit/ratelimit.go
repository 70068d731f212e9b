// Package ratelimit is an injectable per-key limiter guarding the
// public write endpoints. Backed by an in-process map; swap the
// Limiter interface for a distributed store when running more than
// one instance.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Result reports a limit decision.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Check(key string) Result
}

// Config sets the steady rate and burst per key.
type Config struct {
	PerMinute int
	Burst     int
	// SweepAfter drops idle keys; zero disables the sweeper.
	SweepAfter time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MapLimiter keeps one token bucket per key with periodic sweeping of
// idle entries.
type MapLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	cfg     Config
}

// NewMapLimiter builds the limiter and starts the sweeper when
// configured.
func NewMapLimiter(cfg Config) *MapLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.PerMinute
	}
	l := &MapLimiter{
		entries: make(map[string]*entry),
		cfg:     cfg,
	}
	if cfg.SweepAfter > 0 {
		go l.sweep()
	}
	return l
}

// Check consumes one token for the key.
func (l *MapLimiter) Check(key string) Result {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{
			limiter: rate.NewLimiter(rate.Limit(float64(l.cfg.PerMinute)/60.0), l.cfg.Burst),
		}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()

	allowed := e.limiter.Allow()
	remaining := int(e.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Minute),
	}
}

func (l *MapLimiter) sweep() {
	ticker := time.NewTicker(l.cfg.SweepAfter)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-l.cfg.SweepAfter)
		l.mu.Lock()
		for key, e := range l.entries {
			if e.lastSeen.Before(cutoff) {
				delete(l.entries, key)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware enforces the limiter keyed by client IP.
func Middleware(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if res := l.Check(clientIP(r)); !res.Allowed {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
