// Package cache keeps resolved areas in Redis so repeated lookups of the
// same point skip the boundary services.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"area-resolver-api/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "area:"

// coordPrecision is six decimals, about 0.1 m.
const coordPrecision = 6

// RedisCache implements the area cache on top of a go-redis client
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache whose entries expire after ttl (0 keeps them forever)
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Key returns the cache key for a point.
func Key(point models.Point) string {
	return keyPrefix +
		strconv.FormatFloat(point.Lat, 'f', coordPrecision, 64) + "," +
		strconv.FormatFloat(point.Lng, 'f', coordPrecision, 64)
}

// Get returns the cached result or (nil, nil) when absent
func (c *RedisCache) Get(ctx context.Context, point models.Point) (*models.AreaResult, error) {
	data, err := c.client.Get(ctx, Key(point)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: failed to get %s: %w", Key(point), err)
	}

	var result models.AreaResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("cache: failed to decode %s: %w", Key(point), err)
	}
	return &result, nil
}

// Set stores a result
func (c *RedisCache) Set(ctx context.Context, point models.Point, result *models.AreaResult) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache: failed to encode result: %w", err)
	}
	if err := c.client.Set(ctx, Key(point), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: failed to set %s: %w", Key(point), err)
	}
	return nil
}
