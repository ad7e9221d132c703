package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RetryCounter tracks per-message delivery attempts in Redis so retry
// counts survive consumer restarts.
type RetryCounter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRetryCounter(client *redis.Client, ttl time.Duration) *RetryCounter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RetryCounter{client: client, ttl: ttl}
}

// Increment bumps the attempt count and returns the new value.
func (rc *RetryCounter) Increment(ctx context.Context, handler, messageID string) (int64, error) {
	key := fmt.Sprintf("retry:%s:%s", handler, messageID)
	count, err := rc.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("retry incr: %w", err)
	}
	if count == 1 {
		if err := rc.client.Expire(ctx, key, rc.ttl).Err(); err != nil {
			return count, fmt.Errorf("retry expire: %w", err)
		}
	}
	return count, nil
}

// Reset clears the attempt count after a successful handling.
func (rc *RetryCounter) Reset(ctx context.Context, handler, messageID string) error {
	key := fmt.Sprintf("retry:%s:%s", handler, messageID)
	return rc.client.Del(ctx, key).Err()
}
