package internal

import (
	"context"
	"fmt"
	"testing"

	"github.com/ananthvk/minikv/internal/resp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T, addr string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:            addr,
		Protocol:        2,
		DisableIdentity: true,
	})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisClient(t *testing.T) {
	_, addr := startServer(t, testServerConfig(), resp.Limits{})
	rdb := newRedisClient(t, addr)
	ctx := context.Background()

	pong, err := rdb.Ping(ctx).Result()
	require.NoError(t, err)
	assert.Equal(t, "PONG", pong)

	echo, err := rdb.Echo(ctx, "hello").Result()
	require.NoError(t, err)
	assert.Equal(t, "hello", echo)

	require.NoError(t, rdb.Set(ctx, "greeting", "hello world", 0).Err())
	value, err := rdb.Get(ctx, "greeting").Result()
	require.NoError(t, err)
	assert.Equal(t, "hello world", value)

	_, err = rdb.Get(ctx, "missing").Result()
	assert.ErrorIs(t, err, redis.Nil)

	exists, err := rdb.Exists(ctx, "greeting", "missing").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, exists)

	size, err := rdb.DBSize(ctx).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, size)

	deleted, err := rdb.Del(ctx, "greeting").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	err = rdb.Do(ctx, "FLUSHALL").Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestRedisPipeline(t *testing.T) {
	_, addr := startServer(t, testServerConfig(), resp.Limits{})
	rdb := newRedisClient(t, addr)
	ctx := context.Background()

	pipe := rdb.Pipeline()
	for i := range 50 {
		pipe.Set(ctx, fmt.Sprint("key:", i), i, 0)
	}
	gets := make([]*redis.StringCmd, 50)
	for i := range gets {
		gets[i] = pipe.Get(ctx, fmt.Sprint("key:", i))
	}
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)

	for i, cmd := range gets {
		assert.Equal(t, fmt.Sprint(i), cmd.Val())
	}

	keys, err := rdb.Keys(ctx, "key:1*").Result()
	require.NoError(t, err)
	assert.Len(t, keys, 11)
}
