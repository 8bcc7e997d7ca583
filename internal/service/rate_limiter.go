package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/user-auth-service/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a sliding window log limiter stored in Redis sorted sets
type RateLimiter struct {
	redis *database.Redis
	now   func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis, now: time.Now}
}

func rateLimitKey(key string) string {
	return "ratelimit:" + key
}

// Allow records a request for key and reports whether it fits in the window.
// The error is only set when Redis fails.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()
	redisKey := rateLimitKey(key)
	windowStart := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)

	if err := r.redis.Client.ZRemRangeByScore(ctx, redisKey, "-inf", "("+windowStart).Err(); err != nil {
		return false, fmt.Errorf("failed to clean old entries: %w", err)
	}

	count, err := r.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count entries: %w", err)
	}
	if count >= int64(limit) {
		return false, nil
	}

	pipe := r.redis.Client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	pipe.PExpire(ctx, redisKey, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to add entry: %w", err)
	}

	return true, nil
}

// Remaining returns how many requests key may still make in the current window
func (r *RateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	windowStart := strconv.FormatInt(r.now().Add(-window).UnixMilli(), 10)

	count, err := r.redis.Client.ZCount(ctx, rateLimitKey(key), windowStart, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}

	return max(limit-int(count), 0), nil
}
