package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set; skipping redis test")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	client.FlushDB(context.Background())
	return client
}

func TestRateLimiter(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	limiter := NewRateLimiter(client)
	ctx := context.Background()

	t.Run("allows requests within limit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, _ := limiter.CheckLimit(ctx, "login:10.0.0.1", 3, 10*time.Second)
			assert.True(t, allowed, "request %d should be allowed", i+1)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		allowed, resetAt := limiter.CheckLimit(ctx, "login:10.0.0.1", 3, 10*time.Second)
		assert.False(t, allowed)
		assert.True(t, resetAt.After(time.Now()))
	})

	t.Run("keys are independent", func(t *testing.T) {
		allowed, _ := limiter.CheckLimit(ctx, "login:10.0.0.2", 3, 10*time.Second)
		assert.True(t, allowed)
	})
}

func TestRateLimiterFailsOpen(t *testing.T) {
	// Point at a closed port; errors must allow the request through.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	limiter := NewRateLimiter(client)
	allowed, _ := limiter.CheckLimit(context.Background(), "login:10.0.0.3", 1, time.Second)
	assert.True(t, allowed)
}
