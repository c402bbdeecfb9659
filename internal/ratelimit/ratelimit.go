// Package ratelimit gives acceptors a two-level connection rate limit:
// a global token bucket and a per-IP token bucket. Adapted from the
// teacher's internal/shared/limits/connection_rate_limiter.go, but the
// per-IP limiter map is backed by github.com/patrickmn/go-cache (TTL
// eviction) instead of a hand-rolled map + cleanup goroutine.
package ratelimit

import (
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Config holds the burst/sustained rates for both levels.
type Config struct {
	IPBurst     int
	IPRate      float64
	IPTTL       time.Duration
	GlobalBurst int
	GlobalRate  float64
}

// Limiter is the two-level connection rate limiter.
type Limiter struct {
	global *rate.Limiter
	perIP  *cache.Cache
	cfg    Config
}

// New builds a Limiter from cfg, applying sane defaults for zero fields.
func New(cfg Config) *Limiter {
	if cfg.IPBurst == 0 {
		cfg.IPBurst = 20
	}
	if cfg.IPRate == 0 {
		cfg.IPRate = 5.0
	}
	if cfg.IPTTL == 0 {
		cfg.IPTTL = 5 * time.Minute
	}
	if cfg.GlobalBurst == 0 {
		cfg.GlobalBurst = 1000
	}
	if cfg.GlobalRate == 0 {
		cfg.GlobalRate = 200.0
	}

	return &Limiter{
		global: rate.NewLimiter(rate.Limit(cfg.GlobalRate), cfg.GlobalBurst),
		perIP:  cache.New(cfg.IPTTL, cfg.IPTTL/2),
		cfg:    cfg,
	}
}

// Allow reports whether a new connection from ip should be accepted: the
// global bucket is checked first (cheap, no map lookup), then the
// per-IP bucket is looked up or lazily created.
func (l *Limiter) Allow(ip string) bool {
	if !l.global.Allow() {
		return false
	}
	return l.ipLimiter(ip).Allow()
}

func (l *Limiter) ipLimiter(ip string) *rate.Limiter {
	if v, ok := l.perIP.Get(ip); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rate.Limit(l.cfg.IPRate), l.cfg.IPBurst)
	if err := l.perIP.Add(ip, lim, cache.DefaultExpiration); err != nil {
		// Another goroutine created it first; use that one.
		if v, ok := l.perIP.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// Stop releases background resources. go-cache's janitor goroutine exits
// when the Cache is garbage collected, so Stop is a no-op kept for
// symmetry with callers that defer cleanup.
func (l *Limiter) Stop() {}
