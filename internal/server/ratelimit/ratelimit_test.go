package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced manually by tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(cfg *Config) (*Limiter, *fakeClock) {
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l.now = clock.Now
	return l, clock
}

func TestTokenBucket_TakeAndRefill(t *testing.T) {
	start := time.Now()
	b := newTokenBucket(3, 1.0, start)

	for i := 0; i < 3; i++ {
		assert.True(t, b.take(start), "request %d", i+1)
	}
	assert.False(t, b.take(start))

	assert.True(t, b.take(start.Add(time.Second)))
	assert.False(t, b.take(start.Add(time.Second)))
}

func TestTokenBucket_NeverExceedsCapacity(t *testing.T) {
	start := time.Now()
	b := newTokenBucket(2, 10, start)
	b.refill(start.Add(time.Hour))
	assert.Equal(t, 2.0, b.tokens)
	assert.Equal(t, start.Add(time.Hour), b.fullAt(start.Add(time.Hour)))
}

func TestLimiter_DefaultTier(t *testing.T) {
	l, clock := newTestLimiter(NewConfig(60, 2, 10, 1))
	defer l.Stop()

	ok, info := l.Allow("1.2.3.4", "/users", "GET")
	assert.True(t, ok)
	assert.Equal(t, 60, info.Limit)
	assert.Equal(t, 1, info.Remaining)

	ok, _ = l.Allow("1.2.3.4", "/users/abc", "GET")
	assert.True(t, ok)

	ok, info = l.Allow("1.2.3.4", "/users", "GET")
	assert.False(t, ok)
	assert.Greater(t, info.RetryAfter, time.Duration(0))

	// 60 per minute refills one token per second
	clock.Advance(time.Second)
	ok, _ = l.Allow("1.2.3.4", "/users", "GET")
	assert.True(t, ok)
}

func TestLimiter_GenerateTierIsStrictAndSeparate(t *testing.T) {
	l, _ := newTestLimiter(NewConfig(600, 100, 10, 1))
	defer l.Stop()

	ok, info := l.Allow("c", "/generate-resources/u1", "POST")
	require.True(t, ok)
	assert.Equal(t, 10, info.Limit)

	ok, _ = l.Allow("c", "/generate-resources/u2", "POST")
	assert.False(t, ok, "generate bucket is shared across users for one client")

	ok, _ = l.Allow("c", "/generate-resources-by-email/a@b.io", "POST")
	assert.True(t, ok, "by-email route has its own bucket")

	ok, _ = l.Allow("c", "/users", "POST")
	assert.True(t, ok, "default tier unaffected")
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(NewConfig(60, 1, 0, 0))
	defer l.Stop()

	ok, _ := l.Allow("a", "/users", "GET")
	assert.True(t, ok)
	ok, _ = l.Allow("a", "/users", "GET")
	assert.False(t, ok)
	ok, _ = l.Allow("b", "/users", "GET")
	assert.True(t, ok)
}

func TestLimiter_UnlimitedAndWhitelist(t *testing.T) {
	l, _ := newTestLimiter(NewConfig(60, 1, 10, 1))
	defer l.Stop()
	l.config.Whitelist["10.0.0.1"] = true

	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("x", "/health", "GET")
		assert.True(t, ok)
		ok, _ = l.Allow("10.0.0.1", "/users", "GET")
		assert.True(t, ok)
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(NewConfig(0, 0, 0, 0))
	defer l.Stop()

	for i := 0; i < 100; i++ {
		ok, _ := l.Allow("x", "/generate-resources/u", "POST")
		require.True(t, ok)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(NewConfig(60, 1, 10, 1))
	defer l.Stop()

	l.Allow("old", "/users", "GET")
	clock.Advance(2 * time.Hour)
	l.Allow("new", "/users", "GET")

	l.cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.buckets, 1)
	_, ok := l.buckets["new:GET:default"]
	assert.True(t, ok)
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(NewConfig(60, 10, 0, 0))
	defer l.Stop()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("same", "/users", "GET"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), allowed.Load())
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/generate-resources/", Method: "POST", Limit: 10},
		{Path: "/users", Method: "POST", Limit: 5},
	}

	tests := []struct {
		name      string
		path      string
		method    string
		wantLimit int
		wantNil   bool
	}{
		{"prefix", "/generate-resources/abc", "POST", 10, false},
		{"exact", "/users", "POST", 5, false},
		{"method mismatch", "/generate-resources/abc", "GET", 0, true},
		{"health unlimited", "/health", "GET", 0, false},
		{"root unlimited", "/", "GET", 0, false},
		{"no match", "/home/u1", "GET", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}
