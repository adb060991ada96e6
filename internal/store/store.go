// Package store abstracts the key-value store holding usage counters.
//
// DESIGN: Counters live in Redis as hashes with per-key TTLs. The interface
// covers exactly the operations the backfill needs — cursor enumeration,
// hash reads/writes, an atomic set-if-not-exists claim, and TTL mirroring —
// so tests can run against the in-memory implementation.
package store

import (
	"context"
	"time"
)

// Store is the key-value store consumed by the backfill job.
type Store interface {
	// Ping verifies connectivity. A failure here is fatal to callers.
	Ping(ctx context.Context) error

	// Scan enumerates keys matching a glob pattern incrementally. It returns
	// a batch of keys and the cursor for the next call; a returned cursor of
	// 0 means the enumeration is complete.
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)

	// HGetAll reads every field of a hash. A missing key yields an empty map.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// HSet writes hash fields, creating the key if needed.
	HSet(ctx context.Context, key string, fields map[string]string) error

	// HSetNX sets a single hash field only if it does not already exist.
	// Returns true when the write happened. Used as the idempotency claim.
	HSetNX(ctx context.Context, key, field, value string) (bool, error)

	// TTL returns the remaining lifetime of a key. Zero means the key has no
	// expiration (or does not exist).
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Expire sets the remaining lifetime of a key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	Close() error
}
