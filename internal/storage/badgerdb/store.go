// Package badgerdb provides the BadgerHold-backed snapshot store.
package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/interfaces"
	"github.com/bobmcallan/marketpulse/internal/models"
)

// Store persists snapshots in a BadgerHold database keyed by ticker.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
	now    func() time.Time
}

// NewStore creates a new BadgerHold snapshot store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerHold snapshot store opened")

	return &Store{
		db:     db,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Get retrieves the snapshot for a ticker, or ErrNotFound.
func (s *Store) Get(ctx context.Context, ticker string) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := s.db.Get(ticker, &snapshot); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot %s: %w", ticker, err)
	}
	return &snapshot, nil
}

// Upsert creates or replaces the snapshot keyed by its ticker.
func (s *Store) Upsert(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot == nil || snapshot.Ticker == "" {
		return fmt.Errorf("snapshot must have a ticker")
	}
	if err := s.db.Upsert(snapshot.Ticker, snapshot); err != nil {
		return fmt.Errorf("failed to upsert snapshot %s: %w", snapshot.Ticker, err)
	}
	return nil
}

// List returns all stored snapshots ordered by ticker.
func (s *Store) List(ctx context.Context) ([]*models.Snapshot, error) {
	var all []models.Snapshot
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	result := make([]*models.Snapshot, len(all))
	for i := range all {
		result[i] = &all[i]
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Ticker < result[j].Ticker
	})
	return result, nil
}

// IsStale reports whether the ticker must be refreshed.
func (s *Store) IsStale(ctx context.Context, ticker string, maxAge time.Duration) (bool, error) {
	snapshot, err := s.Get(ctx, ticker)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return true, nil
		}
		return true, err
	}
	return snapshot.Stale(s.now(), maxAge), nil
}

// Count returns the number of stored snapshots.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.db.Count(&models.Snapshot{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return int(count), nil
}

// Close closes the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure Store implements SnapshotStore
var _ interfaces.SnapshotStore = (*Store)(nil)
