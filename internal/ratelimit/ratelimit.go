// Package ratelimit implements a per-user token bucket kept in Redis, so the
// limit holds across every API replica.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// refill tops the bucket up for the time elapsed since the last refill.
const refill = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1]) or capacity
local last_refill = tonumber(bucket[2]) or now

local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
if tokens_to_add > 0 then
	tokens = math.min(capacity, tokens + tokens_to_add)
	last_refill = now
end
`

var allowScript = redis.NewScript(refill + `
local allowed = 0
if tokens > 0 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill', last_refill)
redis.call('EXPIRE', key, window * 2)
return allowed
`)

var remainingScript = redis.NewScript(refill + `
return tokens
`)

// TokenBucket represents a token bucket rate limiter
type TokenBucket struct {
	redis    *redis.Client
	capacity int64         // Maximum number of tokens
	refill   int64         // Tokens added per window
	window   time.Duration // Refill window
}

// NewTokenBucket creates a bucket of capacity tokens refilled at refillRate
// tokens per minute.
func NewTokenBucket(redisClient *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
	}
}

func bucketKey(userID, action string) string {
	return fmt.Sprintf("atlasnap:rate_limit:%s:%s", action, userID)
}

func (tb *TokenBucket) args() []any {
	return []any{tb.capacity, tb.refill, int64(tb.window.Seconds()), time.Now().Unix()}
}

// Allow takes one token for userID's action and reports whether one was
// available.
func (tb *TokenBucket) Allow(ctx context.Context, userID, action string) (bool, error) {
	allowed, err := allowScript.Run(ctx, tb.redis, []string{bucketKey(userID, action)}, tb.args()...).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return allowed == 1, nil
}

// GetRemaining returns the tokens left without consuming one.
func (tb *TokenBucket) GetRemaining(ctx context.Context, userID, action string) (int64, error) {
	remaining, err := remainingScript.Run(ctx, tb.redis, []string{bucketKey(userID, action)}, tb.args()...).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}
	return remaining, nil
}

// Capacity is the maximum burst size.
func (tb *TokenBucket) Capacity() int64 {
	return tb.capacity
}

// Reset clears the rate limit for a specific user action
func (tb *TokenBucket) Reset(ctx context.Context, userID, action string) error {
	return tb.redis.Del(ctx, bucketKey(userID, action)).Err()
}
