// Package storage selects and constructs the configured snapshot store.
package storage

import (
	"fmt"

	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/interfaces"
	"github.com/bobmcallan/marketpulse/internal/storage/badgerdb"
	"github.com/bobmcallan/marketpulse/internal/storage/snapshotfs"
)

// NewSnapshotStore creates the snapshot store for the configured backend.
// Supported backends: "badger" (embedded database, default) and "file"
// (one JSON file per ticker).
func NewSnapshotStore(logger *common.Logger, config *common.StorageConfig) (interfaces.SnapshotStore, error) {
	switch config.Backend {
	case "", "badger":
		store, err := badgerdb.NewStore(logger, config.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create badger snapshot store: %w", err)
		}
		return store, nil
	case "file":
		store, err := snapshotfs.NewStore(logger, config.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create file snapshot store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", config.Backend)
	}
}
