package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 24 * time.Hour

// DedupChecker remembers which sample was stored for an (identity, capture time)
// pair so redelivered offline samples are recognised.
// Key format: dedup:location:<user_id>:<unix_nano>
type DedupChecker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client, ttl time.Duration) *DedupChecker {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &DedupChecker{client: client, ttl: ttl}
}

// Lookup returns the sample ID stored for this capture, if any.
func (d *DedupChecker) Lookup(ctx context.Context, userID string, capturedAt time.Time) (string, bool, error) {
	id, err := d.client.Get(ctx, Key(userID, capturedAt)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("dedup lookup: %w", err)
	}
	return id, true, nil
}

// Mark records the stored sample for this capture (expires after the TTL).
func (d *DedupChecker) Mark(ctx context.Context, userID string, capturedAt time.Time, sampleID string) error {
	if err := d.client.Set(ctx, Key(userID, capturedAt), sampleID, d.ttl).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

func Key(userID string, capturedAt time.Time) string {
	return fmt.Sprintf("dedup:location:%s:%d", userID, capturedAt.UnixNano())
}
