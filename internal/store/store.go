// Package store persists saved canvas snapshots so a board survives
// its room expiring.
package store

import (
	"context"
	"errors"
)

// ErrNotFound means no snapshot has been saved for the room.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore saves and loads canvas snapshots keyed by room id.
type SnapshotStore interface {
	Save(ctx context.Context, roomID, canvasData string) error
	Load(ctx context.Context, roomID string) (string, error)
	Delete(ctx context.Context, roomID string) error
}
