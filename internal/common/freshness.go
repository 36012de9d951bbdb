// Package common provides shared utilities for marketpulse
package common

import "time"

// DefaultSnapshotTTL is the staleness window after which a snapshot must be
// refreshed.
const DefaultSnapshotTTL = 1 * time.Hour

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
