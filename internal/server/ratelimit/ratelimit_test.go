package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucket_Allow(t *testing.T) {
	now := time.Now()
	b := newBucket(10, 1.0)

	for i := 0; i < 10; i++ {
		assert.True(t, b.allow(now), "request %d", i+1)
	}
	assert.False(t, b.allow(now))
}

func TestBucket_Refill(t *testing.T) {
	now := time.Now()
	b := newBucket(10, 1.0)
	for i := 0; i < 10; i++ {
		b.allow(now)
	}

	later := now.Add(1100 * time.Millisecond)
	assert.True(t, b.allow(later))
	assert.False(t, b.allow(later))
}

func TestBucket_Status(t *testing.T) {
	now := time.Now()
	b := newBucket(10, 1.0)
	for i := 0; i < 5; i++ {
		b.allow(now)
	}

	remaining, resetTime := b.status(now)
	assert.Equal(t, 5, remaining)
	assert.Equal(t, now.Add(5*time.Second), resetTime)
}

func TestBucket_StatusFull(t *testing.T) {
	now := time.Now()
	b := newBucket(3, 1.0)
	remaining, resetTime := b.status(now)
	assert.Equal(t, 3, remaining)
	assert.Equal(t, now, resetTime)
}

func TestBucket_RetryAfter(t *testing.T) {
	now := time.Now()
	b := newBucket(1, 0.5)
	require.True(t, b.allow(now))
	assert.Equal(t, 2*time.Second, b.retryAfter(now))
	assert.Zero(t, b.retryAfter(now.Add(3*time.Second)))
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()
	now := time.Now()
	limiter.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/tags", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/tags", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Positive(t, info.RetryAfter)
	assert.True(t, info.ResetTime.After(now))
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/tags", "GET")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("192.168.1.1", "/tags", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/chat", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET")
		require.True(t, allowed)
	}
	assert.Zero(t, limiter.Size())
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/chat", Method: "POST", Limit: 5, Window: time.Hour, Burst: 5},
		},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/chat", "POST")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 5, info.Limit)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/chat", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 5, info.Limit)

	allowed, info = limiter.Allow("127.0.0.1", "/tags", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_SeparateClients(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("10.0.0.1", "/tags", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("10.0.0.1", "/tags", "GET")
	assert.False(t, allowed)
	allowed, _ = limiter.Allow("10.0.0.2", "/tags", "GET")
	assert.True(t, allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Hour,
	})
	defer limiter.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("127.0.0.1", "/tags", "GET"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
}

func TestLimiter_CleanupDropsIdleBuckets(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	start := time.Now()
	limiter.now = func() time.Time { return start }
	for i := 0; i < 10; i++ {
		allowed, _ := limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/tags", "GET")
		require.True(t, allowed)
	}

	later := start.Add(2 * time.Hour)
	limiter.now = func() time.Time { return later }
	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/tags", "GET")
	}
	require.Equal(t, 10, limiter.Size())

	assert.Equal(t, 5, limiter.sweep(later.Add(-idleBucketTTL)))
	assert.Equal(t, 5, limiter.Size())
	assert.Zero(t, limiter.sweep(later.Add(-idleBucketTTL)))
}

func TestLimiter_Burst(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/feedback", Method: "GET", Limit: 10, Window: time.Minute, Burst: 5},
		},
	})
	defer limiter.Stop()
	now := time.Now()
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/feedback", "GET")
		require.True(t, allowed, "burst request %d", i+1)
	}
	allowed, _ := limiter.Allow("127.0.0.1", "/feedback", "GET")
	assert.False(t, allowed)
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, CleanupInterval: time.Millisecond})
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()
	require.NotNil(t, limiter)

	allowed, info := limiter.Allow("127.0.0.1", "/tags", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/chat", Method: "POST", Limit: 1},
		{Path: "/me/", Method: "PUT", Limit: 2},
	}

	assert.Equal(t, 0, MatchEndpoint("/health", "GET", configs).Limit)
	assert.Equal(t, 1, MatchEndpoint("/chat", "POST", configs).Limit)
	assert.Nil(t, MatchEndpoint("/chat", "GET", configs))
	assert.Equal(t, 2, MatchEndpoint("/me/handles", "PUT", configs).Limit)
	assert.Nil(t, MatchEndpoint("/chat/extra", "POST", configs))
	assert.Equal(t, 1, MatchEndpoint("/chat/", "post", configs).Limit, "trailing slash and method case are ignored")
}

func TestMatchEndpoint_LongestPrefix(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/me/", Method: "PUT", Limit: 1},
		{Path: "/me/handles/", Method: "PUT", Limit: 2},
	}
	assert.Equal(t, 2, MatchEndpoint("/me/handles/codeforces", "PUT", configs).Limit)
	assert.Equal(t, 1, MatchEndpoint("/me/email", "PUT", configs).Limit)
}

func TestDefaultEndpointConfigs_CoverModelRoutes(t *testing.T) {
	configs := DefaultEndpointConfigs()
	chat := MatchEndpoint("/chat", "POST", configs)
	require.NotNil(t, chat)
	feedback := MatchEndpoint("/feedback", "GET", configs)
	require.NotNil(t, feedback)
	assert.LessOrEqual(t, feedback.Burst, chat.Burst)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.True(t, cfg.Whitelist["10.0.0.2"])
	assert.NotEmpty(t, cfg.EndpointConfigs)
}

func TestLoadConfig_BadValuesFallBack(t *testing.T) {
	env := map[string]string{
		EnvDefaultLimit:  "lots",
		EnvDefaultWindow: "soon",
		EnvBlacklist:     " , 192.0.2.7,",
	}
	cfg := loadConfig(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1000, cfg.DefaultLimit)
	assert.Equal(t, time.Minute, cfg.DefaultWindow)
	assert.Equal(t, map[string]bool{"192.0.2.7": true}, cfg.Blacklist)
	assert.Empty(t, cfg.Whitelist)
}

func TestLoadConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
