package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore persists carts between requests. Load returns
// (zero, false, nil) when no usable snapshot exists for the key.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (Snapshot, bool, error)
	Save(ctx context.Context, key string, snap Snapshot) error
	Delete(ctx context.Context, key string) error
}

// RedisSnapshotStore keeps cart snapshots as JSON values with a TTL,
// so abandoned carts expire on their own.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotStore wires a snapshot store over the shared redis
// client. A zero ttl keeps snapshots until explicitly deleted.
func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

// Load fetches and decodes a snapshot. Corrupt payloads and snapshots
// written by a different schema version are treated as absent, so the
// caller falls back to an empty cart instead of failing the request.
func (r *RedisSnapshotStore) Load(ctx context.Context, key string) (Snapshot, bool, error) {
	if r == nil || r.client == nil {
		return Snapshot{}, false, errors.New("cart: snapshot store not configured")
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load cart snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false, nil
	}
	if snap.Version != SnapshotVersion {
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// Save encodes and writes a snapshot, refreshing the TTL.
func (r *RedisSnapshotStore) Save(ctx context.Context, key string, snap Snapshot) error {
	if r == nil || r.client == nil {
		return errors.New("cart: snapshot store not configured")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

// Delete removes a persisted snapshot.
func (r *RedisSnapshotStore) Delete(ctx context.Context, key string) error {
	if r == nil || r.client == nil {
		return errors.New("cart: snapshot store not configured")
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete cart snapshot: %w", err)
	}
	return nil
}
