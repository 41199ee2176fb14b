// Package genstore keeps a generation counter per canonical asset name.
// A cached asset remembers the generation it was produced under; bumping the
// generation (on invalidation) makes every copy of the asset stale, in this
// process or, with RedisGenStore, in any process sharing the store.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use LocalGenStore (default) for in-process gens, or RedisGenStore for distributed gens.
type GenStore interface {
	// Snapshot returns the current generation of name; missing => 0.
	Snapshot(ctx context.Context, name string) (uint64, error)
	// SnapshotMany returns gens for many names; missing => 0.
	SnapshotMany(ctx context.Context, names []string) (map[string]uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, name string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
