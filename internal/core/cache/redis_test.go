package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWithClient(client), mr
}

func TestGetMissReturnsNoError(t *testing.T) {
	c, _ := testCache(t)

	val, ok, err := c.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, val)
}

func TestSetGetDelete(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetHonorsTTL(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 3*time.Second))
	mr.FastForward(5 * time.Second)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIncrementSkipsMissingKey(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	_, ok, err := c.Increment(ctx, "counter", 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("counter"))
}

func TestIncrementBumpsExistingKeyKeepingTTL(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "counter", "4", time.Minute))

	n, ok, err := c.Increment(ctx, "counter", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)
	assert.Greater(t, mr.TTL("counter"), time.Duration(0))
}
