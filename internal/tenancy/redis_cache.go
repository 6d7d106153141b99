package tenancy

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"saas-tenancy/internal/model"
)

const redisKeyPrefix = "tenancy:tenant:"

// RedisCache shares resolved tenants between API replicas.
// Redis failures are logged and treated as misses.
//
// Isolation targets hold database credentials and are never written to
// Redis, so tenants that have one are not cached here.
type RedisCache struct {
	client redis.UniversalClient
	logger *zap.Logger
}

func NewRedisCache(client redis.UniversalClient, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*model.Tenant, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("tenant cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var t model.Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		c.logger.Warn("tenant cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &t, true
}

func (c *RedisCache) Set(ctx context.Context, key string, tenant *model.Tenant, ttl time.Duration) {
	data, ok, err := encodeCacheEntry(tenant)
	if err != nil {
		c.logger.Warn("tenant cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		c.logger.Warn("tenant cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		c.logger.Warn("tenant cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Close is a no-op: the client is owned by the caller.
func (c *RedisCache) Close() error { return nil }

// encodeCacheEntry returns the Redis payload for tenant, or false when the
// tenant must not be cached in Redis.
func encodeCacheEntry(tenant *model.Tenant) ([]byte, bool, error) {
	if tenant.IsolationTarget != "" {
		return nil, false, nil
	}
	data, err := json.Marshal(tenant)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
