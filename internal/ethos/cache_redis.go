package ethos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a FeedCache shared through Redis. Expiry is delegated to the
// key TTL, so a stale entry is simply absent.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a Redis-backed feed cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, prefix: "gigachads:activities"}
}

func (c *RedisCache) key(profileID int64) string {
	return fmt.Sprintf("%s:%s", c.prefix, Userkey(profileID))
}

// Get implements FeedCache. Redis errors read as misses.
func (c *RedisCache) Get(ctx context.Context, profileID int64) ([]Activity, bool) {
	data, err := c.client.Get(ctx, c.key(profileID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Feed cache read failed", "profile_id", profileID, "error", err)
		}
		return nil, false
	}

	var activities []Activity
	if err := json.Unmarshal(data, &activities); err != nil {
		slog.Warn("Feed cache entry corrupt", "profile_id", profileID, "error", err)
		return nil, false
	}
	return activities, true
}

// Set implements FeedCache.
func (c *RedisCache) Set(ctx context.Context, profileID int64, activities []Activity) {
	data, err := json.Marshal(activities)
	if err != nil {
		slog.Warn("Feed cache encode failed", "profile_id", profileID, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(profileID), data, c.ttl).Err(); err != nil {
		slog.Warn("Feed cache write failed", "profile_id", profileID, "error", err)
	}
}

// Health pings Redis.
func (c *RedisCache) Health(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
