// Package snapshotfs implements file-based JSON storage for snapshots,
// one file per ticker. Useful for local inspection and as a fallback
// when the embedded database cannot be used.
package snapshotfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/interfaces"
	"github.com/bobmcallan/marketpulse/internal/models"
)

// Store provides file-based JSON storage for snapshots.
type Store struct {
	dir    string
	logger *common.Logger
	mu     sync.RWMutex
	now    func() time.Time
}

// NewStore creates a new file-based snapshot store rooted at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	dir := filepath.Join(path, "snapshots")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot store path %s: %w", dir, err)
	}

	logger.Debug().Str("path", dir).Msg("Snapshot file store opened")
	return &Store{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}, nil
}

// fileName maps a ticker to its JSON file, replacing characters that are
// unsafe in filenames.
func (s *Store) fileName(ticker string) string {
	safe := strings.NewReplacer("^", "_", "=", "_").Replace(ticker)
	return filepath.Join(s.dir, safe+".json")
}

// Get retrieves the snapshot for a ticker, or ErrNotFound.
func (s *Store) Get(ctx context.Context, ticker string) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.fileName(ticker))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", ticker, err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", ticker, err)
	}
	return &snapshot, nil
}

// Upsert writes the snapshot atomically via a temp file and rename.
func (s *Store) Upsert(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot == nil || snapshot.Ticker == "" {
		return fmt.Errorf("snapshot must have a ticker")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", snapshot.Ticker, err)
	}

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.fileName(snapshot.Ticker)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// List returns all stored snapshots ordered by ticker.
func (s *Store) List(ctx context.Context) ([]*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot directory: %w", err)
	}

	result := make([]*models.Snapshot, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable snapshot file")
			continue
		}
		var snapshot models.Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping corrupt snapshot file")
			continue
		}
		result = append(result, &snapshot)
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
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshot directory: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			count++
		}
	}
	return count, nil
}

func (s *Store) Close() error { return nil }

// Ensure Store implements SnapshotStore
var _ interfaces.SnapshotStore = (*Store)(nil)
