package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// redisClient is the part of *redis.Client used by the cache.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedReader keeps each restaurant's active catalog in Redis for a short TTL.
// Lookups by id always go to the underlying Reader. Redis failures fall back to it too.
type CachedReader struct {
	next   Reader
	client redisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedReader wraps next with a Redis-backed catalog cache.
func NewCachedReader(next Reader, client redisClient, ttl time.Duration, logger *zap.Logger) *CachedReader {
	return &CachedReader{next: next, client: client, ttl: ttl, logger: logger.Named("catalog_cache")}
}

func catalogKey(restaurantID string) string {
	return fmt.Sprintf("catalog:%s", restaurantID)
}

func (c *CachedReader) Get(ctx context.Context, productID string) (*Product, error) {
	return c.next.Get(ctx, productID)
}

func (c *CachedReader) ActiveByRestaurant(ctx context.Context, restaurantID string) ([]Product, error) {
	key := catalogKey(restaurantID)

	data, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var products []Product
		if uerr := json.Unmarshal([]byte(data), &products); uerr == nil {
			return products, nil
		}
		c.logger.Warn("discarding corrupt catalog cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	products, err := c.next.ActiveByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(products); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return products, nil
}

// Invalidate drops the cached catalog of a restaurant.
func (c *CachedReader) Invalidate(ctx context.Context, restaurantID string) error {
	return c.client.Del(ctx, catalogKey(restaurantID)).Err()
}
