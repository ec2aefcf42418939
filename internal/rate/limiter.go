package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one Allow call. RetryAfter is a hint for
// denied calls: the remaining life of the current window.
type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// Limiter counts calls per (action, subject) key inside a rolling window.
// The counter and its TTL live in Redis, so the budget holds across
// processes; INCR keeps increments atomic per key under concurrency.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a limiter using the given key prefix.
func New(redisClient redis.UniversalClient, prefix string) *Limiter {
	if prefix == "" {
		prefix = "arl"
	}
	return &Limiter{redis: redisClient, prefix: prefix}
}

func (l *Limiter) key(action, subject string) string {
	return l.prefix + ":" + action + ":" + subject
}

// Allow records one call against the key's budget and reports whether it is
// within limit. The window starts at the first call and resets when it
// elapses; the first call in a fresh window sets the TTL.
func (l *Limiter) Allow(ctx context.Context, action, subject string, limit int, window time.Duration) (Decision, error) {
	key := l.key(action, subject)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	if count <= int64(limit) {
		return Decision{Allowed: true, Count: count}, nil
	}

	retryAfter, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if retryAfter < 0 {
		// Counter without TTL (first-call Expire lost); re-arm so the
		// denial cannot become permanent.
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		retryAfter = window
	}

	return Decision{Allowed: false, Count: count, RetryAfter: retryAfter}, nil
}

// Reset clears the budget for a key. Used when a gate succeeds and the
// failure budget should start over.
func (l *Limiter) Reset(ctx context.Context, action, subject string) error {
	if err := l.redis.Del(ctx, l.key(action, subject)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
