package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/atlasnap-service/internal/storage"
	"github.com/princekumarofficial/atlasnap-service/internal/types/users"
)

const (
	UserKey           = "atlasnap:user:%s" // atlasnap:user:userID
	UserCacheDuration = 30 * time.Second
)

// UserCache puts Redis in front of the user lookups done on every
// authenticated request. Users read back from the cache carry no password
// hash; GetUserByEmail, used for login, always reads the store.
type UserCache struct {
	storage.UserStore
	redis *redis.Client
	ttl   time.Duration
}

func NewUserCache(store storage.UserStore, redisClient *redis.Client) *UserCache {
	return &UserCache{
		UserStore: store,
		redis:     redisClient,
		ttl:       UserCacheDuration,
	}
}

// GetUserByID returns the cached user or loads and caches it.
func (c *UserCache) GetUserByID(ctx context.Context, userID string) (*users.User, error) {
	key := fmt.Sprintf(UserKey, userID)

	cached, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var user users.User
		if err := json.Unmarshal(cached, &user); err == nil {
			return &user, nil
		}
	} else if err != redis.Nil {
		slog.Warn("User cache read failed", slog.String("error", err.Error()))
	}

	user, err := c.UserStore.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(user)
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("User cache write failed", slog.String("error", err.Error()))
	}

	return user, nil
}

// MarkUserVerified updates the store and drops the stale cache entry.
func (c *UserCache) MarkUserVerified(ctx context.Context, userID string) error {
	if err := c.UserStore.MarkUserVerified(ctx, userID); err != nil {
		return err
	}

	c.Invalidate(ctx, userID)
	return nil
}

func (c *UserCache) Invalidate(ctx context.Context, userID string) {
	if err := c.redis.Del(ctx, fmt.Sprintf(UserKey, userID)).Err(); err != nil {
		slog.Warn("User cache invalidation failed", slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}
