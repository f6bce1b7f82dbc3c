package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter over redis. One instance carries one
// limit; the HTTP layer keys it by service key and route.
type RateLimiter struct {
	client RedisClient
	limit  int
	window time.Duration
}

func NewRateLimiter(client RedisClient, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, limit: limit, window: window}
}

func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}
	wk := windowKey(key)

	count, err := r.client.Incr(ctx, wk)
	if err != nil {
		return false, err
	}

	if count == 1 {
		err = r.client.Expire(ctx, wk, r.window)
		if err != nil {
			return false, err
		}
	}

	if count > int64(r.limit) {
		return false, nil
	}

	return true, nil
}

func windowKey(key string) string {
	return fmt.Sprintf("rate_limit:%s", key)
}
