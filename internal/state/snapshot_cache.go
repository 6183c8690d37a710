package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lectioshed/scheduler-core/internal/domain"
)

const snapshotKeyPrefix = "lectioshed:undo:"

// SnapshotCache backs PushUndoSnapshot/Rollback with a TTL'd Redis entry
// per label, for deployments that need undo to survive a process restart
// (spec §5, §7 "Backup/rollback") rather than living only in the process
// running InMemoryStore.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache wraps an already-connected *redis.Client. ttl<=0
// defaults to one hour.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

// Push stores sessions under label, overwriting any prior snapshot with
// the same label and resetting its TTL.
func (c *SnapshotCache) Push(ctx context.Context, label string, sessions []domain.Session) error {
	payload, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("snapshot cache: marshal: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKeyPrefix+label, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("snapshot cache: set %s: %w", label, err)
	}
	return nil
}

// Rollback fetches the sessions stored under label and deletes the entry,
// mirroring InMemoryStore.Rollback's pop semantics. It reports false when
// no snapshot exists under label, including when it has expired.
func (c *SnapshotCache) Rollback(ctx context.Context, label string) ([]domain.Session, bool) {
	key := snapshotKeyPrefix + label
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var sessions []domain.Session
	if err := json.Unmarshal(payload, &sessions); err != nil {
		return nil, false
	}
	_ = c.client.Del(ctx, key).Err()
	return sessions, true
}
