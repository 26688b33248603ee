//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"verifdesk/internal/platform/config"
	platformredis "verifdesk/internal/platform/redis"
)

// RedisContainer is a Redis instance shared by the stats cache suites. Client
// is opened through the same constructor the server uses.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *redis.Client
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	url, err := container.ConnectionString(ctx)
	if err == nil {
		var client *platformredis.Client
		client, err = platformredis.New(ctx, config.RedisConfig{URL: url, PoolSize: 4})
		if err == nil {
			return &RedisContainer{Container: container, URL: url, Client: client.Client}
		}
	}
	_ = container.Terminate(ctx)
	t.Fatalf("failed to connect to redis container: %v", err)
	return nil
}

// FlushAll empties the database between tests.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
