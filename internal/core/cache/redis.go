package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seopulse/seopulse/internal/core"
)

// RedisCache backs the core.Cache interface. It holds monthly usage
// counters and short-lived job status snapshots to absorb client polling.
type RedisCache struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewWithClient wraps an existing client. Used by tests with miniredis.
func NewWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// incrIfExists bumps a counter only when the key is already present, so a
// counter is never seeded without its backing count (or without a TTL).
var incrIfExists = redis.NewScript(`
if redis.call("exists", KEYS[1]) == 0 then
	return false
end
return redis.call("incrby", KEYS[1], ARGV[1])
`)

func (c *RedisCache) Increment(ctx context.Context, key string, by int64) (int64, bool, error) {
	n, err := incrIfExists.Run(ctx, c.client, []string{key}, by).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ core.Cache = (*RedisCache)(nil)
