package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper guards message handlers against redelivery. A handler acquires
// the key once; subsequent deliveries of the same message see false.
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeduper(client *redis.Client, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deduper{client: client, ttl: ttl}
}

// AcquireOnce returns true exactly once per (handler, messageID) pair
// within the TTL window.
func (d *Deduper) AcquireOnce(ctx context.Context, handler, messageID string) (bool, error) {
	key := fmt.Sprintf("dedup:%s:%s", handler, messageID)
	ok, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup setnx: %w", err)
	}
	return ok, nil
}

// Release drops the dedup key so a failed message can be reprocessed.
func (d *Deduper) Release(ctx context.Context, handler, messageID string) error {
	key := fmt.Sprintf("dedup:%s:%s", handler, messageID)
	return d.client.Del(ctx, key).Err()
}
