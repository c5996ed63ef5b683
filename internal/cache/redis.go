package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eitanrom/plada-backend/internal/domain/reports"
	"github.com/eitanrom/plada-backend/internal/pkg/envutil"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

// SnapshotCache fronts the snapshot table with Redis. Strictly best effort:
// any Redis failure degrades to the database path, never to an error.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New connects to Redis when REDIS_ADDR is set; returns nil (no cache)
// otherwise, which callers treat as "always miss".
func New(log *logger.Logger) *SnapshotCache {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
	})
	ttl := time.Duration(envutil.Int("SNAPSHOT_CACHE_TTL_SECONDS", 600)) * time.Second
	return &SnapshotCache{
		client: client,
		ttl:    ttl,
		log:    log.With("service", "SnapshotCache"),
	}
}

func key(scope string, dims map[string]string) string {
	return "snapshot:" + scope + ":" + reports.DimensionKey(dims)
}

func (c *SnapshotCache) Get(ctx context.Context, scope string, dims map[string]string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, key(scope, dims)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache get failed", "scope", scope, "error", err)
		}
		return nil, false
	}
	return payload, true
}

func (c *SnapshotCache) Put(ctx context.Context, scope string, dims map[string]string, payload []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, key(scope, dims), payload, c.ttl).Err(); err != nil {
		c.log.Warn("cache put failed", "scope", scope, "error", err)
	}
}

func (c *SnapshotCache) Delete(ctx context.Context, scope string, dims map[string]string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, key(scope, dims)).Err(); err != nil {
		c.log.Warn("cache delete failed", "scope", scope, "error", err)
	}
}
