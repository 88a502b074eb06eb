package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierBriggs/Janus/pkg/models"
	"github.com/redis/go-redis/v9"
)

const streamKeyFormat = "lines.changed.%s" // lines.changed.player_points

// Changes is the Redis read-side cache of reconciliation output. The
// scheduler publishes each key's change list after reconciling; the HTTP
// layer reads it back without touching Postgres. Cache loss is harmless:
// reconciliation recomputes everything from stored snapshots.
type Changes struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewChanges creates a change cache with the given entry TTL
func NewChanges(redisClient *redis.Client, ttl time.Duration) *Changes {
	return &Changes{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Publish caches records for key and appends each one to the market's
// stream for downstream consumers. An empty record list clears the cached
// entry so stale changes never outlive the snapshot pair they came from.
func (c *Changes) Publish(ctx context.Context, key models.SnapshotKey, records []models.ChangeRecord) error {
	cacheKey := c.buildKey(key)

	if len(records) == 0 {
		if err := c.redis.Del(ctx, cacheKey).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal change records: %w", err)
	}

	pipe := c.redis.Pipeline()
	pipe.Set(ctx, cacheKey, data, c.ttl)

	streamKey := fmt.Sprintf(streamKeyFormat, key.Market)
	for _, rec := range records {
		msg, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal stream message: %w", err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: streamKey,
			Values: map[string]interface{}{"data": msg},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec: %w", err)
	}

	return nil
}

// Latest returns the cached change lists for keys in one batch lookup.
// Keys with no cached entry (expired, never reconciled, or no changes) are
// simply absent from the result.
func (c *Changes) Latest(ctx context.Context, keys []models.SnapshotKey) (map[models.SnapshotKey][]models.ChangeRecord, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.buildKey(key)
	}

	values, err := c.redis.MGet(ctx, cacheKeys...).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make(map[models.SnapshotKey][]models.ChangeRecord)
	for i, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var records []models.ChangeRecord
		if err := json.Unmarshal([]byte(str), &records); err != nil {
			// Corrupt entry, treat as a miss
			continue
		}
		out[keys[i]] = records
	}

	return out, nil
}

// buildKey creates a Redis key for a snapshot key
// Format: changes:latest:{event_id}:{market_key}
func (c *Changes) buildKey(key models.SnapshotKey) string {
	return fmt.Sprintf("changes:latest:%s:%s", key.EventID, key.Market)
}
