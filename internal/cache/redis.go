// Package cache provides a Redis-backed image lookup cache. When REDIS_URL is
// set it replaces the catalog store's own image cache.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tbourn/go-review-backend/internal/domain"
)

const keyPrefix = "imgcache:"

// RedisImageCache maps image queries to URLs with a key TTL.
type RedisImageCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedis parses url (redis://...), pings the server, and returns a cache.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*RedisImageCache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisFromClient(rdb, ttl), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *goredis.Client, ttl time.Duration) *RedisImageCache {
	if ttl <= 0 {
		ttl = domain.ImageCacheTTL
	}
	return &RedisImageCache{rdb: rdb, ttl: ttl}
}

// Get reports a cached URL. A miss is not an error.
func (c *RedisImageCache) Get(ctx context.Context, query string) (string, bool, error) {
	key, ok := cacheKey(query)
	if !ok {
		return "", false, nil
	}
	u, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return u, true, nil
}

// Put stores url for query and restarts its TTL.
func (c *RedisImageCache) Put(ctx context.Context, query, url string) error {
	key, ok := cacheKey(query)
	if !ok || url == "" {
		return nil
	}
	return c.rdb.Set(ctx, key, url, c.ttl).Err()
}

func (c *RedisImageCache) Close() error { return c.rdb.Close() }

// cacheKey hashes the normalized query so arbitrary user text is a safe key.
func cacheKey(query string) (string, bool) {
	q := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if q == "" {
		return "", false
	}
	sum := sha1.Sum([]byte(q))
	return keyPrefix + hex.EncodeToString(sum[:]), true
}
