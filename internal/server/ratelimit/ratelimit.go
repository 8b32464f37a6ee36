// Package ratelimit throttles API clients per endpoint with token buckets
// from golang.org/x/time/rate.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// idleBucketTTL is how long an unused bucket survives a cleanup pass.
const idleBucketTTL = time.Hour

// bucket pairs a rate.Limiter with the numbers needed to report on it.
type bucket struct {
	limiter  *rate.Limiter
	capacity int
	lastSeen time.Time
}

func newBucket(capacity int, perSecond float64) *bucket {
	return &bucket{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), capacity),
		capacity: capacity,
	}
}

// allow consumes one token at now when one is available.
func (b *bucket) allow(now time.Time) bool {
	return b.limiter.AllowN(now, 1)
}

// status reports whole tokens left and when the bucket will be full again.
func (b *bucket) status(now time.Time) (remaining int, resetTime time.Time) {
	tokens := b.limiter.TokensAt(now)
	remaining = max(int(math.Floor(tokens)), 0)
	if tokens >= float64(b.capacity) {
		return remaining, now
	}
	missing := float64(b.capacity) - tokens
	return remaining, now.Add(b.wait(missing))
}

// retryAfter is the time until the next single token is available.
func (b *bucket) retryAfter(now time.Time) time.Duration {
	tokens := b.limiter.TokensAt(now)
	if tokens >= 1 {
		return 0
	}
	return b.wait(1 - tokens)
}

func (b *bucket) wait(tokens float64) time.Duration {
	perSecond := float64(b.limiter.Limit())
	if perSecond <= 0 {
		return 0
	}
	return time.Duration(tokens / perSecond * float64(time.Second))
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig allows 1000 requests per minute on every endpoint.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

type bucketKey struct {
	client, path, method string
}

// Limiter keeps one bucket per client, path and method. Buckets idle for
// longer than an hour are swept every CleanupInterval.
type Limiter struct {
	cfg *Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[bucketKey]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a Limiter. A nil config uses DefaultConfig.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = time.Minute
	}
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[bucketKey]*bucket),
		stop:    make(chan struct{}),
	}
	if cfg.Enabled && cfg.CleanupInterval > 0 {
		go l.sweepEvery(cfg.CleanupInterval)
	}
	return l
}

// Allow spends one token for the request and reports the bucket state.
// Whitelisted clients always pass and blacklisted ones never do.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	switch {
	case !l.cfg.Enabled, l.cfg.Whitelist[clientID]:
		return true, Info{Allowed: true}
	case l.cfg.Blacklist[clientID]:
		return false, Info{}
	}

	ec := MatchEndpoint(path, method, l.cfg.EndpointConfigs)
	if ec == nil {
		ec = &EndpointConfig{Limit: l.cfg.DefaultLimit, Window: l.cfg.DefaultWindow}
	}
	if ec.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	b := l.bucket(bucketKey{clientID, path, method}, ec, now)
	info := Info{Allowed: b.allow(now), Limit: ec.Limit}
	info.Remaining, info.ResetTime = b.status(now)
	if !info.Allowed {
		info.RetryAfter = b.retryAfter(now)
	}
	return info.Allowed, info
}

// bucket returns the bucket for key, creating it on first use.
func (l *Limiter) bucket(key bucketKey, ec *EndpointConfig, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		window := ec.Window
		if window <= 0 {
			window = l.cfg.DefaultWindow
		}
		burst := ec.Burst
		if burst <= 0 {
			burst = ec.Limit
		}
		b = newBucket(burst, float64(ec.Limit)/window.Seconds())
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

// Size returns the number of live buckets.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := l.sweep(l.now().Add(-idleBucketTTL)); n > 0 {
				log.Debug().Int("removed", n).Msg("swept idle rate limit buckets")
			}
		case <-l.stop:
			return
		}
	}
}

// sweep drops buckets not used since cutoff and returns how many it removed.
func (l *Limiter) sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Stop ends the sweep goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
