package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimiter is a fixed-window counter over redis, used to slow down
// credential guessing and password-reset spamming. It fails open: if redis
// is unreachable the request proceeds and the failure is logged, since
// locking everyone out on a cache outage would be worse.
type RateLimiter struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewRateLimiter(rdb *redis.Client, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, log: log}
}

// Allow counts one attempt for key and reports whether it is still within
// limit for the current window. A nil limiter allows everything.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil || l.rdb == nil || limit <= 0 {
		return true
	}

	counterKey := fmt.Sprintf("ratelimit:%s", key)
	count, err := l.rdb.Incr(ctx, counterKey).Result()
	if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
		return true
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, counterKey, window).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("rate limiter expire failed")
		}
	}
	return count <= int64(limit)
}
