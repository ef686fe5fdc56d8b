package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/utils"
)

// RateLimitConfig tunes the per-client token buckets of RateLimit.
type RateLimitConfig struct {
	Burst             int // bucket capacity
	RefillPerIPPerMin int
	MaxEntries        int           // forces a sweep when reached; 0 is unbounded
	SweepInterval     time.Duration // default 1m
	IdleTTL           time.Duration // default 15m
	TrustProxy        bool          // resolve the client from proxy headers
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.Burst < 1 {
		c.Burst = 1
	}
	if c.RefillPerIPPerMin < 1 {
		c.RefillPerIPPerMin = 1
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 15 * time.Minute
	}
	return c
}

type tokenBucket struct {
	tokens  float64
	updated time.Time
}

type clientLimiter struct {
	cfg       RateLimitConfig
	perSecond float64

	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	nextSweep time.Time
}

func newClientLimiter(cfg RateLimitConfig, now time.Time) *clientLimiter {
	cfg = cfg.withDefaults()
	return &clientLimiter{
		cfg:       cfg,
		perSecond: float64(cfg.RefillPerIPPerMin) / 60,
		buckets:   make(map[string]*tokenBucket),
		nextSweep: now.Add(cfg.SweepInterval),
	}
}

// take spends one token of key's bucket. It returns the whole tokens left,
// or how long until the next token when the bucket is empty.
func (l *clientLimiter) take(key string, now time.Time) (remaining int, wait time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries
	if full || !now.Before(l.nextSweep) {
		l.sweep(now)
	}

	capacity := float64(l.cfg.Burst)
	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: capacity, updated: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.updated).Seconds(); elapsed > 0 {
		b.tokens = math.Min(capacity, b.tokens+elapsed*l.perSecond)
	}
	b.updated = now

	if b.tokens < 1 {
		secs := math.Ceil((1 - b.tokens) / l.perSecond)
		return 0, time.Duration(secs) * time.Second
	}
	b.tokens--
	return int(b.tokens), 0
}

// sweep drops buckets idle for longer than IdleTTL. Callers hold l.mu.
func (l *clientLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.updated) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.nextSweep = now.Add(l.cfg.SweepInterval)
}

// RateLimit applies a token bucket per client address and reports the
// budget in X-RateLimit-* headers. Exhausted clients get 429 with Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newClientLimiter(cfg, time.Now())
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, wait := l.take(utils.ClientIP(r, l.cfg.TrustProxy), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if wait > 0 {
				secs := int(wait / time.Second)
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
