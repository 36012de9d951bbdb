// Package interfaces defines service contracts for marketpulse
package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/marketpulse/internal/models"
)

// ErrNotFound is returned by SnapshotStore.Get when no snapshot exists
// for the requested ticker.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore persists one derived Snapshot row per ticker.
// The store exclusively owns persisted state; services hold only
// transient in-memory copies during a single request.
type SnapshotStore interface {
	// Get retrieves the snapshot for a ticker, or ErrNotFound.
	Get(ctx context.Context, ticker string) (*models.Snapshot, error)

	// Upsert creates or replaces the snapshot keyed by its ticker.
	Upsert(ctx context.Context, snapshot *models.Snapshot) error

	// List returns all stored snapshots ordered by ticker.
	List(ctx context.Context) ([]*models.Snapshot, error)

	// IsStale reports whether the ticker must be refreshed: no snapshot,
	// never fetched, missing required fundamentals, or older than maxAge.
	IsStale(ctx context.Context, ticker string, maxAge time.Duration) (bool, error)

	// Count returns the number of stored snapshots.
	Count(ctx context.Context) (int, error)

	Close() error
}
