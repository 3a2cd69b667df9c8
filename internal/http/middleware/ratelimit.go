package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/atlasnap-service/internal/config"
	"github.com/princekumarofficial/atlasnap-service/internal/ratelimit"
	"github.com/princekumarofficial/atlasnap-service/internal/utils/response"
)

// Rate limited actions.
const (
	ActionUploadURLs    = "upload_urls"
	ActionUploadConfirm = "upload_confirm"
)

type RateLimitConfig struct {
	limiters map[string]*ratelimit.TokenBucket
}

func NewRateLimitConfig(redisClient *redis.Client, cfg config.RateLimit) *RateLimitConfig {
	rlc := &RateLimitConfig{
		limiters: make(map[string]*ratelimit.TokenBucket),
	}

	// Both upload phases share the per-minute budget but are counted apart,
	// so a client that requested URLs can still confirm them.
	perMinute := cfg.UploadPerMinute
	rlc.limiters[ActionUploadURLs] = ratelimit.NewTokenBucket(redisClient, perMinute, perMinute)
	rlc.limiters[ActionUploadConfirm] = ratelimit.NewTokenBucket(redisClient, perMinute, perMinute)

	return rlc
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get user ID from context (assumes auth middleware ran first)
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				response.WriteError(w, http.StatusUnauthorized, ErrUnauthenticated)
				return
			}

			limiter, exists := rlc.limiters[action]
			if !exists {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), userID, action)
			if err != nil {
				slog.Error("Rate limit check failed", slog.String("action", action), slog.String("error", err.Error()))
				response.WriteError(w, http.StatusInternalServerError, errors.New("rate limit check failed"))
				return
			}

			remaining, _ := limiter.GetRemaining(r.Context(), userID, action)
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Capacity(), 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", "60") // one minute window

			if !allowed {
				response.WriteError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.Handler) http.Handler {
	if rlc == nil {
		return handler
	}
	return rlc.RateLimitMiddleware(action)(handler)
}
