package reports

const schemaSQL = `
CREATE TABLE IF NOT EXISTS backfill_runs (
    run_id               TEXT PRIMARY KEY,
    started_at           TEXT NOT NULL,
    finished_at          TEXT NOT NULL,
    default_tier         TEXT NOT NULL,
    dry_run              INTEGER NOT NULL DEFAULT 0,
    partial              INTEGER NOT NULL DEFAULT 0,
    keys_processed       INTEGER NOT NULL DEFAULT 0,
    accounts_processed   INTEGER NOT NULL DEFAULT 0,
    migrated_records     INTEGER NOT NULL DEFAULT 0,
    total_cache_tokens   INTEGER NOT NULL DEFAULT 0,
    errors               INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_backfill_runs_started ON backfill_runs(started_at);
`
