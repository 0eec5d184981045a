package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCacheFromClient(client)
	t.Cleanup(func() {
		_ = cache.Close()
	})

	return cache, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get round-trip", func(t *testing.T) {
		cache, _ := setupTestCache(t)

		require.NoError(t, cache.Set(ctx, "account:42", `{"AccountID":"42"}`, time.Minute))

		value, err := cache.Get(ctx, "account:42")
		require.NoError(t, err)
		assert.Equal(t, `{"AccountID":"42"}`, value)
	})

	t.Run("get on a missing key fails", func(t *testing.T) {
		cache, _ := setupTestCache(t)

		_, err := cache.Get(ctx, "account:missing")
		assert.ErrorIs(t, err, redis.Nil)
	})

	t.Run("entries expire after their TTL", func(t *testing.T) {
		cache, mr := setupTestCache(t)

		require.NoError(t, cache.Set(ctx, "account:42", "v", 20*time.Second))
		mr.FastForward(21 * time.Second)

		_, err := cache.Get(ctx, "account:42")
		assert.ErrorIs(t, err, redis.Nil)
	})

	t.Run("del and exists", func(t *testing.T) {
		cache, _ := setupTestCache(t)

		require.NoError(t, cache.Set(ctx, "account:42", "v", time.Minute))

		exists, err := cache.Exists(ctx, "account:42")
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, cache.Del(ctx, "account:42"))

		exists, err = cache.Exists(ctx, "account:42")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("ping", func(t *testing.T) {
		cache, _ := setupTestCache(t)
		assert.NoError(t, cache.Ping(ctx))
	})
}
