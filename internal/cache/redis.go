// Package cache stores synthesized speech clips in Redis so repeated lines
// are not sent to a provider twice.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/daikw/ccpodcast/internal/config"
	"github.com/daikw/ccpodcast/internal/voice"
)

const keyPrefix = "ccpodcast:clip:"

// RedisClipCache implements voice.ClipCache
type RedisClipCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClipCache wraps an existing client. A zero ttl keeps entries forever.
func NewRedisClipCache(client *redis.Client, ttl time.Duration) *RedisClipCache {
	return &RedisClipCache{client: client, ttl: ttl}
}

// Open connects to the configured Redis server and pings it
func Open(ctx context.Context, cfg config.CacheConfig, ttl time.Duration) (*RedisClipCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}
	return NewRedisClipCache(client, ttl), nil
}

func (c *RedisClipCache) Get(ctx context.Context, key string) (*voice.CachedClip, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var clip voice.CachedClip
	if err := json.Unmarshal(val, &clip); err != nil {
		return nil, false, fmt.Errorf("decode cached clip: %w", err)
	}
	return &clip, true, nil
}

func (c *RedisClipCache) Set(ctx context.Context, key string, clip voice.CachedClip) error {
	data, err := json.Marshal(clip)
	if err != nil {
		return fmt.Errorf("marshal clip: %w", err)
	}
	return c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err()
}

// Delete removes clips by key
func (c *RedisClipCache) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}
	return c.client.Del(ctx, prefixed...).Err()
}

func (c *RedisClipCache) Close() error {
	return c.client.Close()
}
