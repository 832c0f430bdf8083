// internal/cache/redis_cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"sales-insights/internal/common/database"
	"sales-insights/internal/common/logger"
	"sales-insights/internal/models"
)

// RedisCache serializes results as JSON with a fixed TTL. Backend errors
// are logged and swallowed so a degraded redis never fails a query.
type RedisCache struct {
	client *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisCache(client *database.RedisClient, ttl time.Duration, log logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{
			"component": "result-cache",
		}),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.QueryResult, bool) {
	raw, err := c.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var result models.QueryResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.logger.Warn("cache entry corrupt, ignoring", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	return &result, true
}

func (c *RedisCache) Set(ctx context.Context, key string, result *models.QueryResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("cache encode failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
