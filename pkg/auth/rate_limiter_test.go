package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTokenBucketLimiter_Allow(t *testing.T) {
	// Arrange
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewTokenBucketLimiter(60, 2)
	limiter.now = clock.now

	// Act / Assert
	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, _ := limiter.Allow(ctx, "alice")
	assert.False(t, ok)

	ok, _ = limiter.Allow(ctx, "bob")
	assert.True(t, ok, "keys have separate buckets")

	clock.advance(time.Second)
	ok, _ = limiter.Allow(ctx, "alice")
	assert.True(t, ok, "one token refills per second at 60/min")
}

func TestTokenBucketLimiter_ResetAndSweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewTokenBucketLimiter(1, 1)
	limiter.now = clock.now

	ok, _ := limiter.Allow(ctx, "alice")
	require.True(t, ok)
	ok, _ = limiter.Allow(ctx, "alice")
	require.False(t, ok)

	require.NoError(t, limiter.Reset(ctx, "alice"))
	ok, _ = limiter.Allow(ctx, "alice")
	assert.True(t, ok)

	assert.Equal(t, 0, limiter.Sweep())
	clock.advance(2 * time.Hour)
	assert.Equal(t, 1, limiter.Sweep())
}

func TestDistributedRateLimiter_FixedWindow(t *testing.T) {
	// Arrange
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)}
	limiter := NewDistributedRateLimiter(client, 2, time.Minute, "classify")
	limiter.now = clock.now

	// Act / Assert
	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	clock.advance(time.Minute)
	ok, err = limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok, "a new window starts a new count")
}

func TestDistributedRateLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewDistributedRateLimiter(client, 1, time.Minute, "classify")
	limiter.now = (&fakeClock{t: time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)}).now

	ok, _ := limiter.Allow(ctx, "alice")
	require.True(t, ok)
	require.NoError(t, limiter.Reset(ctx, "alice"))

	ok, err := limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDistributedRateLimiter_NilClientAllows(t *testing.T) {
	limiter := NewDistributedRateLimiter(nil, 1, time.Minute, "classify")

	ok, err := limiter.Allow(context.Background(), "alice")

	require.NoError(t, err)
	assert.True(t, ok)
}
