package testsupport

import (
	"context"
	"testing"

	"greencart/internal/adapters/config"
	redisclient "greencart/internal/adapters/redis"
)

// NewRedisClient connects the cache adapter to the test Redis database and
// flushes it before and after the test. Skipped when REDIS_HOST is unset.
func NewRedisClient(t *testing.T, cfg config.RedisConfig) *redisclient.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("redis integration test skipped in -short mode")
	}
	if !cfg.Enabled() {
		t.Skip("REDIS_HOST not set")
	}

	client, err := redisclient.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	if err := client.Client().FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Client().FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}
