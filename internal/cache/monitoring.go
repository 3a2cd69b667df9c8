package cache

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// Stats summarises the cache for the health endpoint.
type Stats struct {
	RedisConnected bool  `json:"redis_connected"`
	CachedUsers    int   `json:"cached_users"`
	KeyCount       int64 `json:"total_keys"`
}

// GetStats pings Redis and counts keys. Errors only clear RedisConnected.
func GetStats(ctx context.Context, redisClient *redis.Client) Stats {
	var stats Stats

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return stats
	}
	stats.RedisConnected = true

	var cursor uint64
	for {
		keys, next, err := redisClient.Scan(ctx, cursor, "atlasnap:user:*", 100).Result()
		if err != nil {
			break
		}
		stats.CachedUsers += len(keys)
		if next == 0 {
			break
		}
		cursor = next
	}

	if n, err := redisClient.DBSize(ctx).Result(); err == nil {
		stats.KeyCount = n
	}

	return stats
}
