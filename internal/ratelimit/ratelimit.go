package ratelimit

import (
	"sync"
	"time"

	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	Allow(key string) bool
}

// InMemoryLimiter keeps one token bucket per key in memory
type InMemoryLimiter struct {
	buckets map[string]*bucket
	mu      sync.Mutex
	r       rate.Limit
	b       int
	idle    time.Duration
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewInMemoryLimiter creates a new rate limiter
// Example: NewInMemoryLimiter(5, time.Minute, 2) -> 5 analyses per minute per key, burst of 2
func NewInMemoryLimiter(requests int, per time.Duration, burst int) *InMemoryLimiter {
	if requests <= 0 {
		requests = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &InMemoryLimiter{
		buckets: make(map[string]*bucket),
		r:       rate.Every(per / time.Duration(requests)),
		b:       burst,
		idle:    10 * per,
		now:     time.Now,
	}
}

var _ Limiter = (*InMemoryLimiter)(nil)

// NewFromConfig builds the analysis limiter shared by HTTP clients and bot users.
// Callers prefix keys ("ip:", "tg-user:") so the two populations never collide.
func NewFromConfig(cfg *config.Config) Limiter {
	return NewInMemoryLimiter(cfg.RateLimit.PerMinute, time.Minute, cfg.RateLimit.Burst)
}

// Allow checks if key may perform an action now
func (l *InMemoryLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, exists := l.buckets[key]
	if !exists {
		l.evictIdle(now)
		b = &bucket{limiter: rate.NewLimiter(l.r, l.b)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, 1)
}

// evictIdle drops buckets untouched for a while; they would be full again anyway
func (l *InMemoryLimiter) evictIdle(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, key)
		}
	}
}
