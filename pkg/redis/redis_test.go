package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofr/notifier/pkg/redis"
)

func testConfig(addr string) redis.Config {
	return redis.Config{
		ConnectionURL:  "redis://" + addr + "/0",
		RetryAttempts:  3,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: 5 * time.Second,
	}
}

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("successful connection", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		client, err := redis.Connect(context.Background(), testConfig(mr.Addr()))
		require.NoError(t, err)
		defer client.Close()

		assert.NoError(t, client.Ping(context.Background()).Err())
	})

	t.Run("invalid connection string", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig("localhost:0")
		cfg.ConnectionURL = "://broken"
		_, err := redis.Connect(context.Background(), cfg)
		assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig("127.0.0.1:1")
		cfg.ConnectTimeout = 200 * time.Millisecond
		_, err := redis.Connect(context.Background(), cfg)
		assert.ErrorIs(t, err, redis.ErrRedisNotReady)
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := redis.Connect(context.Background(), testConfig(mr.Addr()))
	require.NoError(t, err)
	defer client.Close()

	check := redis.Healthcheck(client)
	assert.NoError(t, check(context.Background()))

	mr.Close()
	assert.Error(t, check(context.Background()))
}

func TestTickLock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("acquire and release", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		client, err := redis.Connect(ctx, testConfig(mr.Addr()))
		require.NoError(t, err)
		defer client.Close()

		lock := redis.NewTickLock(client, "test:tick", time.Minute)

		acquired, err := lock.TryAcquire(ctx)
		require.NoError(t, err)
		assert.True(t, acquired)

		require.NoError(t, lock.Release(ctx))

		acquired, err = lock.TryAcquire(ctx)
		require.NoError(t, err)
		assert.True(t, acquired, "released lock can be taken again")
	})

	t.Run("held lock blocks other holders", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		client, err := redis.Connect(ctx, testConfig(mr.Addr()))
		require.NoError(t, err)
		defer client.Close()

		first := redis.NewTickLock(client, "test:tick", time.Minute)
		second := redis.NewTickLock(client, "test:tick", time.Minute)

		acquired, err := first.TryAcquire(ctx)
		require.NoError(t, err)
		require.True(t, acquired)

		acquired, err = second.TryAcquire(ctx)
		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("release only frees own token", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		client, err := redis.Connect(ctx, testConfig(mr.Addr()))
		require.NoError(t, err)
		defer client.Close()

		holder := redis.NewTickLock(client, "test:tick", time.Minute)
		intruder := redis.NewTickLock(client, "test:tick", time.Minute)

		acquired, err := holder.TryAcquire(ctx)
		require.NoError(t, err)
		require.True(t, acquired)

		// A foreign release must not free the holder's lock.
		require.NoError(t, intruder.Release(ctx))

		acquired, err = intruder.TryAcquire(ctx)
		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("expired lock becomes available", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		client, err := redis.Connect(ctx, testConfig(mr.Addr()))
		require.NoError(t, err)
		defer client.Close()

		lock := redis.NewTickLock(client, "test:tick", time.Second)

		acquired, err := lock.TryAcquire(ctx)
		require.NoError(t, err)
		require.True(t, acquired)

		mr.FastForward(2 * time.Second)

		other := redis.NewTickLock(client, "test:tick", time.Second)
		acquired, err = other.TryAcquire(ctx)
		require.NoError(t, err)
		assert.True(t, acquired)
	})
}
