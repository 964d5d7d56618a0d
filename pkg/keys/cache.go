package keys

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/herald/pkg/observability"
)

const redisKeyPrefix = "herald:key:"

// CacheConfig configures a CachedResolver
type CacheConfig struct {
	Size  int
	TTL   time.Duration
	Redis *redis.Client
}

// CachedResolver caches successful lookups of an inner Resolver
type CachedResolver struct {
	inner   Resolver
	local   *lru.LRU[string, uuid.UUID]
	redis   *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *observability.Logger
}

// NewCachedResolver wraps inner. A nil cfg.Redis disables the shared layer.
func NewCachedResolver(inner Resolver, cfg CacheConfig, metrics *observability.Metrics, logger *observability.Logger) *CachedResolver {
	if cfg.Size <= 0 {
		cfg.Size = 10000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &CachedResolver{
		inner:   inner,
		local:   lru.NewLRU[string, uuid.UUID](cfg.Size, nil, cfg.TTL),
		redis:   cfg.Redis,
		ttl:     cfg.TTL,
		metrics: metrics,
		logger:  observability.OrNop(logger),
	}
}

func cacheKey(id int64, kind ObjectKind) string {
	return fmt.Sprintf("%s%s:%d", redisKeyPrefix, kind, id)
}

// ResolveKey implements Resolver
func (c *CachedResolver) ResolveKey(ctx context.Context, id int64, kind ObjectKind) (uuid.UUID, error) {
	k := cacheKey(id, kind)

	if key, ok := c.local.Get(k); ok {
		c.count("local", "hit")
		return key, nil
	}
	c.count("local", "miss")

	if c.redis != nil {
		if key, ok := c.getShared(ctx, k); ok {
			c.local.Add(k, key)
			return key, nil
		}
	}

	key, err := c.inner.ResolveKey(ctx, id, kind)
	if err != nil {
		return uuid.Nil, err
	}

	c.local.Add(k, key)
	if c.redis != nil {
		if err := c.redis.Set(ctx, k, key.String(), c.ttl).Err(); err != nil {
			c.count("redis", "error")
			c.logger.WithError(err).Warn("Failed to write key to redis")
		}
	}
	return key, nil
}

func (c *CachedResolver) getShared(ctx context.Context, k string) (uuid.UUID, bool) {
	raw, err := c.redis.Get(ctx, k).Result()
	if err == redis.Nil {
		c.count("redis", "miss")
		return uuid.Nil, false
	}
	if err != nil {
		c.count("redis", "error")
		c.logger.WithError(err).Warn("Failed to read key from redis")
		return uuid.Nil, false
	}

	key, err := uuid.Parse(raw)
	if err != nil {
		c.count("redis", "error")
		c.logger.WithError(err).WithField("cache_key", k).Warn("Ignoring malformed cached key")
		return uuid.Nil, false
	}
	c.count("redis", "hit")
	return key, true
}

// Invalidate drops a cached lookup from both layers
func (c *CachedResolver) Invalidate(ctx context.Context, id int64, kind ObjectKind) error {
	k := cacheKey(id, kind)
	c.local.Remove(k)
	if c.redis != nil {
		if err := c.redis.Del(ctx, k).Err(); err != nil {
			return fmt.Errorf("failed to invalidate %s: %w", k, err)
		}
	}
	return nil
}

func (c *CachedResolver) count(layer, result string) {
	if c.metrics != nil {
		c.metrics.KeyCacheTotal.WithLabelValues(layer, result).Inc()
	}
}
