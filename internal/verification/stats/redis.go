package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"verifdesk/internal/verification/models"
)

const (
	keyPrefix     = "verifdesk:stats:"
	generationKey = keyPrefix + "generation"
)

// RedisCache shares snapshots across instances. Invalidation increments a
// generation counter; snapshots under older generations are never read again
// and expire through their TTL.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{client: client, ttl: ttl}
}

func snapshotKey(generation int64, key Key) string {
	return fmt.Sprintf("%s%d:%s:%s", keyPrefix, generation, key.Reviewer, key.Day)
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read stats generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) Lookup(ctx context.Context, key Key) (*models.ControllerStats, int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, err
	}
	data, err := c.client.Get(ctx, snapshotKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, nil
	}
	if err != nil {
		return nil, gen, fmt.Errorf("read stats snapshot: %w", err)
	}
	var snapshot models.ControllerStats
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, gen, fmt.Errorf("decode stats snapshot: %w", err)
	}
	return &snapshot, gen, nil
}

func (c *RedisCache) Store(ctx context.Context, generation int64, key Key, snapshot models.ControllerStats) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode stats snapshot: %w", err)
	}
	return c.client.Set(ctx, snapshotKey(generation, key), data, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump stats generation: %w", err)
	}
	return nil
}
