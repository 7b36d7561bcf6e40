package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// defaultOperationTimeout is the timeout for individual Redis operations
	defaultOperationTimeout = 5 * time.Second
)

type Cache struct {
	client  *redis.Client
	enabled bool
}

func NewCache(addr string, enable bool) (*Cache, error) {
	if !enable {
		return &Cache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		client:  client,
		enabled: true,
	}, nil
}

// Enabled reports whether a Redis connection is live; a disabled cache
// absorbs writes and misses every read.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// operationContext creates a context with timeout for Redis operations
func (c *Cache) operationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultOperationTimeout)
}

func (c *Cache) Set(key string, value interface{}, expiration time.Duration) error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, jsonData, expiration).Err()
}

func (c *Cache) Get(key string, dest interface{}) error {
	if !c.enabled {
		return fmt.Errorf("cache disabled")
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("key not found")
	} else if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (c *Cache) Delete(key string) error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	return c.client.Del(ctx, key).Err()
}

func (c *Cache) DeletePattern(pattern string) error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *Cache) Exists(key string) (bool, error) {
	if !c.enabled {
		return false, nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	val, err := c.client.Exists(ctx, key).Result()
	return val > 0, err
}

func (c *Cache) Increment(key string) (int64, error) {
	if !c.enabled {
		return 0, nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	return c.client.Incr(ctx, key).Result()
}

func (c *Cache) Expire(key string, expiration time.Duration) error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	return c.client.Expire(ctx, key, expiration).Err()
}

func (c *Cache) FlushAll() error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	return c.client.FlushAll(ctx).Err()
}

func (c *Cache) Close() error {
	if !c.enabled {
		return nil
	}
	return c.client.Close()
}

// Parser cache keys. Rendered HTML is keyed by page and revision so an
// edit naturally misses without an explicit purge; pattern invalidation
// covers purges and plugin activation changes.

func (c *Cache) CacheRenderedPage(pageID, revisionID uint, html string, ttl time.Duration) error {
	return c.Set(fmt.Sprintf("render:page:%d:rev:%d", pageID, revisionID), html, ttl)
}

func (c *Cache) GetCachedRenderedPage(pageID, revisionID uint, dest *string) error {
	return c.Get(fmt.Sprintf("render:page:%d:rev:%d", pageID, revisionID), dest)
}

func (c *Cache) InvalidateRenderedPage(pageID uint) error {
	return c.DeletePattern(fmt.Sprintf("render:page:%d:*", pageID))
}

func (c *Cache) InvalidateRenderCache() error {
	return c.DeletePattern("render:*")
}

func (c *Cache) CachePageDetail(ns int, dbKey string, page interface{}) error {
	return c.Set(fmt.Sprintf("page:%d:%s", ns, dbKey), page, 1*time.Hour)
}

func (c *Cache) GetCachedPageDetail(ns int, dbKey string, dest interface{}) error {
	return c.Get(fmt.Sprintf("page:%d:%s", ns, dbKey), dest)
}

func (c *Cache) InvalidatePageDetail(ns int, dbKey string) error {
	return c.Delete(fmt.Sprintf("page:%d:%s", ns, dbKey))
}
