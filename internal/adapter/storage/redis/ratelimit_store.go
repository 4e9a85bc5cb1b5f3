package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore implements sliding-window rate limiting backed by Redis.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
}

// NewRateLimitStore creates a new Redis-backed rate limit store.
func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: "ratelimit:",
	}
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// Allow checks if a request is within the rate limit using a sliding
// window: each allowed request is a member of a sorted set scored by
// its timestamp, and members older than the window are pruned before
// counting. Unlike a fixed-window counter there is no burst at the
// window boundary; N requests are admitted per *any* trailing window.
// Denied requests are not recorded, so being over the limit does not
// extend the wait.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	now := time.Now()
	cutoff := now.Add(-window).UnixNano()
	redisKey := s.prefix + key

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(cutoff, 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis rate limit count: %w", err)
	}

	count := countCmd.Val()
	if count >= limit {
		return &RateLimitResult{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   s.resetAt(ctx, redisKey, now, window),
		}, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.NewString()
	pipe = s.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, window+time.Second) // +1s safety margin
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis rate limit record: %w", err)
	}

	return &RateLimitResult{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count - 1,
		ResetAt:   now.Add(window).Unix(),
	}, nil
}

// resetAt reports when the oldest recorded request ages out of the
// window, i.e. the earliest moment a new request could be admitted.
func (s *RateLimitStore) resetAt(ctx context.Context, redisKey string, now time.Time, window time.Duration) int64 {
	entries, err := s.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
	if err != nil || len(entries) == 0 {
		return now.Add(window).Unix()
	}
	oldest := time.Unix(0, int64(entries[0].Score))
	return oldest.Add(window).Unix()
}
