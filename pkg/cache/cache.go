// Package cache provides a Redis-based query cache with JSON
// serialization for upstream API reads. It offers a high-level API for
// caching arbitrary Go structs with automatic marshaling/unmarshaling,
// pattern-based invalidation, and a cache-aside loader that
// deduplicates concurrent identical loads.
//
// Features:
//   - Automatic JSON serialization/deserialization
//   - TTL-based freshness windows
//   - Pattern-based key deletion using SCAN
//   - GetOrLoad for the cache-aside pattern with singleflight dedupe
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Cache provides a generic query cache backed by Redis. All values are
// stored as JSON, making it easy to cache any Go struct. Concurrent
// GetOrLoad calls for the same key share a single loader execution.
type Cache struct {
	client  *redis.Client
	loads   singleflight.Group
	enabled bool
}

// New creates a cache instance wrapping a Redis client. When enabled
// is false every read misses and every write is a no-op, which turns
// the cache off without touching call sites.
//
// Example:
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	queryCache := cache.New(redisClient, true)
func New(client *redis.Client, enabled bool) *Cache {
	return &Cache{
		client:  client,
		enabled: enabled,
	}
}

// Get retrieves a value from cache and unmarshals it into the target.
// Returns ErrCacheMiss if the key doesn't exist.
//
// The target must be a pointer to the type you want to unmarshal into.
//
// Example:
//
//	var page models.Paginated[models.Project]
//	err := queryCache.Get(ctx, key, &page)
//	if err == cache.ErrCacheMiss {
//	    // Load from upstream
//	}
func (c *Cache) Get(ctx context.Context, key string, target interface{}) error {
	if !c.enabled {
		return ErrCacheMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		log.Error().Err(err).Str("key", key).Msg("Failed to get from cache")
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to unmarshal cached data")
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}

// Set stores a value in cache with the specified TTL. The value is
// automatically marshaled to JSON.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to marshal data for cache")
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to set cache")
		return fmt.Errorf("cache set error: %w", err)
	}

	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cached data")
	return nil
}

// Delete removes one or more keys from cache.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Error().Err(err).Strs("keys", keys).Msg("Failed to delete from cache")
		return fmt.Errorf("cache delete error: %w", err)
	}

	log.Debug().Strs("keys", keys).Msg("Deleted from cache")
	return nil
}

// DeletePattern removes all keys matching a pattern using SCAN. Safe
// for production use (unlike KEYS) as it uses cursor iteration.
//
// Pattern syntax follows Redis glob-style patterns:
//   - * matches any characters
//   - ? matches a single character
//
// Example:
//
//	// Invalidate every cached projects list
//	queryCache.DeletePattern(ctx, "query:projects:list:*")
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	if !c.enabled {
		return nil
	}

	var cursor uint64
	var deletedCount int

	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			log.Error().Err(err).Str("pattern", pattern).Msg("Failed to scan cache keys")
			return fmt.Errorf("cache scan error: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				log.Error().Err(err).Str("pattern", pattern).Msg("Failed to delete keys")
				return fmt.Errorf("cache delete error: %w", err)
			}
			deletedCount += len(keys)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	log.Debug().Str("pattern", pattern).Int("count", deletedCount).Msg("Deleted keys by pattern")
	return nil
}

// GetOrLoad implements the cache-aside pattern with in-flight
// deduplication. It attempts to get from cache; on miss it executes
// the loader and caches the result. Concurrent calls for the same key
// while a load is in flight share the single loader execution instead
// of hitting the upstream once each.
//
// The loader should return the data to cache. If the loader returns an
// error, nothing is cached and the error is returned.
//
// Example:
//
//	var page models.Paginated[models.Project]
//	err := queryCache.GetOrLoad(ctx, key, 30*time.Second, &page, func() (interface{}, error) {
//	    return client.ListProjects(ctx, token, params)
//	})
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, target interface{}, loader func() (interface{}, error)) error {
	err := c.Get(ctx, key, target)
	if err == nil {
		log.Debug().Str("key", key).Msg("Cache hit")
		return nil
	}
	if err != ErrCacheMiss {
		return err
	}

	log.Debug().Str("key", key).Msg("Cache miss, loading data")

	// singleflight collapses concurrent loads for the same key
	data, err, shared := c.loads.Do(key, func() (interface{}, error) {
		return loader()
	})
	if err != nil {
		return fmt.Errorf("loader error: %w", err)
	}
	if shared {
		log.Debug().Str("key", key).Msg("Load shared with in-flight request")
	}

	if err := c.Set(ctx, key, data, ttl); err != nil {
		// Log but don't fail - we have the data
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache loaded data")
	}

	// Marshal and unmarshal to populate target. This keeps the cached
	// and freshly loaded paths type-consistent.
	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := json.Unmarshal(bytes, target); err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}
