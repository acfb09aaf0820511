// Package cache writes dashboard stat snapshots to Redis so the chart
// frontend can poll cheap precomputed payloads instead of recomputing.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jordanngo205/Basketball-Tracker/internal/stats"
)

// SnapshotTTL bounds how long a stale game snapshot survives.
const SnapshotTTL = 6 * time.Hour

// SnapshotWriter handles writing stat snapshots to Redis.
type SnapshotWriter struct {
	client *redis.Client
}

// NewSnapshotWriter creates a snapshot writer over an existing client.
func NewSnapshotWriter(client *redis.Client) *SnapshotWriter {
	return &SnapshotWriter{client: client}
}

// GameSnapshot is the cached payload for one game's dashboard.
type GameSnapshot struct {
	GameID     string              `json:"game_id"`
	Scope      string              `json:"scope"`
	Stats      stats.Snapshot      `json:"stats"`
	Quarters   []stats.QuarterStat `json:"quarters"`
	CapturedAt time.Time           `json:"captured_at"`
}

// WriteGameSnapshot stores the latest snapshot for (game, scope).
func (w *SnapshotWriter) WriteGameSnapshot(ctx context.Context, snap GameSnapshot) error {
	key := snapshotKey(snap.GameID, snap.Scope)

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return w.client.Set(ctx, key, data, SnapshotTTL).Err()
}

// ReadGameSnapshot retrieves a cached snapshot, redis.Nil when absent.
func (w *SnapshotWriter) ReadGameSnapshot(ctx context.Context, gameID, scope string) (*GameSnapshot, error) {
	data, err := w.client.Get(ctx, snapshotKey(gameID, scope)).Result()
	if err != nil {
		return nil, err
	}

	var snap GameSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &snap, nil
}

// DropGame clears every cached scope for a deleted game.
func (w *SnapshotWriter) DropGame(ctx context.Context, gameID string) error {
	keys := []string{
		snapshotKey(gameID, "game"),
		snapshotKey(gameID, "half"),
		snapshotKey(gameID, "quarter"),
	}
	return w.client.Del(ctx, keys...).Err()
}

func snapshotKey(gameID, scope string) string {
	return fmt.Sprintf("tracker:%s:stats:%s", gameID, scope)
}
