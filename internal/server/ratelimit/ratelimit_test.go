package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_Take(t *testing.T) {
	bucket := newTokenBucket(10, 1.0)

	for i := 0; i < 10; i++ {
		allowed, remaining, _ := bucket.take()
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 9-i, remaining)
	}

	allowed, remaining, resetAt := bucket.take()
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.True(t, resetAt.After(time.Now()))
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := newTokenBucket(2, 20.0)
	bucket.take()
	bucket.take()

	allowed, _, _ := bucket.take()
	require.False(t, allowed)

	time.Sleep(100 * time.Millisecond)
	allowed, _, _ = bucket.take()
	assert.True(t, allowed, "tokens refill over time")
}

func TestLimiter_DefaultLimit(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/jobs/abc/applicants", "GET")
		require.True(t, allowed)
		assert.Equal(t, 10, info.Limit)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/jobs/abc/applicants", "GET")
	assert.False(t, allowed)
	assert.Positive(t, info.RetryAfter)

	allowed, _ = limiter.Allow("127.0.0.2", "/jobs/abc/applicants", "GET")
	assert.True(t, allowed, "other clients have their own bucket")
}

func TestLimiter_WhitelistBlacklistDisabled(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		allowed, info := limiter.Allow("10.0.0.1", "/health", "GET")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
	allowed, _ := limiter.Allow("10.0.0.2", "/auth/login", "POST")
	assert.False(t, allowed)

	off := NewLimiter(&Config{Enabled: false})
	defer off.Stop()
	for i := 0; i < 20; i++ {
		allowed, _ := off.Allow("10.0.0.3", "/jobs/x/shortlist", "POST")
		require.True(t, allowed)
	}
}

func TestLimiter_WildcardSharesBucketAcrossJobs(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/jobs/*/shortlist", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		},
	})
	defer limiter.Stop()

	allowed, info := limiter.Allow("127.0.0.1", "/jobs/a/shortlist", "POST")
	require.True(t, allowed)
	assert.Equal(t, 10, info.Limit)
	allowed, _ = limiter.Allow("127.0.0.1", "/jobs/b/shortlist", "POST")
	require.True(t, allowed)

	allowed, _ = limiter.Allow("127.0.0.1", "/jobs/c/shortlist", "POST")
	assert.False(t, allowed, "burst of two is shared by every job")

	allowed, info = limiter.Allow("127.0.0.1", "/jobs/c/shortlist-preview", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour})
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
			if ok, _ := limiter.Allow("127.0.0.1", "/resumes/sign", "POST"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, allowed)
}

func TestLimiter_EvictIdle(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/health-check", "GET")
	}
	assert.Zero(t, limiter.evictIdle(time.Now().Add(-time.Minute)))
	assert.Equal(t, 5, limiter.evictIdle(time.Now().Add(time.Second)))
	assert.Empty(t, limiter.buckets)
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, info := limiter.Allow("127.0.0.1", "/jobs", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path, method string
		wantPath     string
		wantLimit    int
	}{
		{"/health", "GET", "/health", 0},
		{"/auth/login", "POST", "/auth/login", 10},
		{"/jobs/123/shortlist", "POST", "/jobs/*/shortlist", 10},
		{"/applications/9/shortlist", "POST", "/applications/*/shortlist", 120},
		{"/jobs/123/applicants/export", "GET", "/jobs/*/applicants/export", 30},
		{"/assessments/7/responses", "POST", "/assessments/", 600},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}

	assert.Nil(t, MatchEndpoint("/jobs/123/shortlist", "GET", configs))
	assert.Nil(t, MatchEndpoint("/jobs//shortlist", "POST", configs))
	assert.Nil(t, MatchEndpoint("/jobs/1/2/shortlist", "POST", configs))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "50")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.True(t, cfg.Whitelist["10.0.0.2"])
	assert.NotEmpty(t, cfg.EndpointConfigs)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
