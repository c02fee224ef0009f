package api

import (
	"sync"
	"time"

	"shareit/internal/config"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per caller key. Buckets idle long enough
// to have refilled are swept, so the map tracks only recent callers.
type rateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	cfg       config.APIRateLimitConfig
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(cfg config.APIRateLimitConfig) *rateLimiter {
	l := &rateLimiter{
		limiters: make(map[string]*limiterEntry),
		cfg:      cfg,
		idleTTL:  limiterIdleTTL,
		now:      time.Now,
	}
	if cfg.RPS > 0 {
		refill := time.Duration(float64(l.burst()) / cfg.RPS * float64(time.Second))
		l.idleTTL = max(l.idleTTL, refill)
	}
	return l
}

func (l *rateLimiter) enabled() bool {
	return l.cfg.RPS > 0
}

func (l *rateLimiter) burst() int {
	if l.cfg.Burst <= 0 {
		return 5
	}
	return l.cfg.Burst
}

func (l *rateLimiter) allow(key string) bool {
	now := l.now()
	return l.getLimiter(key, now).AllowN(now, 1)
}

func (l *rateLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{lim: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.burst())}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.lim
}

// sweep drops idle buckets. Callers hold mu.
func (l *rateLimiter) sweep(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idleTTL {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

func (l *rateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
