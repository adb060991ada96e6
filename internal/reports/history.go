// Package reports persists backfill run reports: a plain-text artifact per
// run and a SQLite history table for auditing past runs.
package reports

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/tokentoll/tokentoll/internal/backfill"
)

// History is a SQLite-backed log of backfill runs.
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates the run-history database at the given path.
func OpenHistory(dbPath string) (*History, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating report dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the history database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record appends a run to the history. Partial runs are recorded too.
func (h *History) Record(r *backfill.Report) error {
	_, err := h.db.Exec(`
		INSERT INTO backfill_runs (
			run_id, started_at, finished_at, default_tier, dry_run, partial,
			keys_processed, accounts_processed, migrated_records,
			total_cache_tokens, errors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.FinishedAt.UTC().Format(time.RFC3339),
		string(r.DefaultTier),
		boolToInt(r.DryRun),
		boolToInt(r.Partial),
		r.KeysProcessed,
		r.AccountsProcessed,
		r.MigratedRecords,
		r.TotalCacheTokens,
		r.Errors,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.RunID, err)
	}
	return nil
}

// Run is one row of the run history.
type Run struct {
	RunID             string
	StartedAt         string
	FinishedAt        string
	DefaultTier       string
	DryRun            bool
	Partial           bool
	KeysProcessed     int
	AccountsProcessed int
	MigratedRecords   int
	TotalCacheTokens  int64
	Errors            int
}

// Recent returns up to limit runs, newest first.
func (h *History) Recent(limit int) ([]Run, error) {
	rows, err := h.db.Query(`
		SELECT run_id, started_at, finished_at, default_tier, dry_run, partial,
		       keys_processed, accounts_processed, migrated_records,
		       total_cache_tokens, errors
		FROM backfill_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var dryRun, partial int
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.DefaultTier,
			&dryRun, &partial, &r.KeysProcessed, &r.AccountsProcessed,
			&r.MigratedRecords, &r.TotalCacheTokens, &r.Errors); err != nil {
			return nil, err
		}
		r.DryRun = dryRun != 0
		r.Partial = partial != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
