// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined
// here. This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// STORE DEFAULTS
// =============================================================================

// DefaultRedisAddr is the counter store address when none is configured.
const DefaultRedisAddr = "localhost:6379"

// =============================================================================
// BACKFILL DEFAULTS
// =============================================================================

// DefaultScanCount is the batch size hint for cursor scans over the store.
const DefaultScanCount = 200

// DefaultConcurrency bounds the backfill's per-key worker fan-out.
const DefaultConcurrency = 4

// DefaultDefaultTier is the tier assigned to historical records, which carry
// no retention information. Short is the conservative choice; it undercounts
// cost for usage that was actually long-tier.
const DefaultDefaultTier = "5m"

// =============================================================================
// REPORT DEFAULTS
// =============================================================================

// DefaultReportDir is where backfill report artifacts are written.
const DefaultReportDir = "reports"

// DefaultHistoryDB is the run-history database path.
const DefaultHistoryDB = "reports/backfill.db"

// =============================================================================
// PRICING FEED DEFAULTS
// =============================================================================

// DefaultFeedRefresh is how long a fetched pricing feed stays fresh.
const DefaultFeedRefresh = 1 * time.Hour
