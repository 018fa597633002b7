// Package cache is a small JSON cache on Redis. A nil *Cache is valid and
// behaves as an always-missing cache, so callers need no feature checks.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/meetup/pkg/metrics"
)

type Cache struct {
	rdb  *redis.Client
	name string
}

// Connect dials addr and pings it. name labels the hit/miss metrics.
func Connect(ctx context.Context, addr, password, name string) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return New(rdb, name), nil
}

func New(rdb *redis.Client, name string) *Cache {
	return &Cache{rdb: rdb, name: name}
}

// Get unmarshals the value at key into dest and reports a hit.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}

	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(c.name).Inc()
	return true
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return nil
	}
	err := c.rdb.Del(ctx, keys...).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
