// Package backfill reclassifies historical cache-write counters that predate
// tier tracking.
//
// DESIGN: Source counters carry no retention information, so every historical
// record is assigned the configured default tier (short unless overridden — a
// conservative business-policy choice that undercounts any usage that was
// actually long-tier). Idempotency comes from an atomic HSETNX claim on the
// derived counter's migrated field: re-running the job never double-counts.
// The derived counter inherits whatever TTL remains on its source so both
// expire together. Per-key failures are logged and counted but never abort
// the run; only losing the store does.
package backfill

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/tokentoll/tokentoll/internal/pricing"
	"github.com/tokentoll/tokentoll/internal/store"
)

// Defaults for Options zero values.
const (
	DefaultScanCount   = 200
	DefaultConcurrency = 4
)

// Options configures a backfill run.
type Options struct {
	// Scopes to process. Defaults to DefaultScopes().
	Scopes []Scope

	// DefaultTier is assigned to every reclassified record. Defaults to the
	// short tier.
	DefaultTier pricing.Tier

	// DryRun computes the report without writing anything.
	DryRun bool

	// Concurrency bounds the per-key worker fan-out.
	Concurrency int

	// ScanCount is the batch size hint passed to the store's cursor scan.
	ScanCount int64

	// RateLimit caps processed keys per second to protect the shared store.
	// Zero means unlimited.
	RateLimit float64

	// Now is a clock override for tests.
	Now func() time.Time
}

// Job is a single-instance batch migration. Concurrent overlapping runs are
// an assumption violation; the HSETNX claim keeps even that case from
// double-counting, but the job is meant for an exclusive maintenance window.
type Job struct {
	store   store.Store
	opts    Options
	limiter *rate.Limiter

	mu sync.Mutex // guards report counters
}

// New creates a backfill job over the given store.
func New(st store.Store, opts Options) *Job {
	if len(opts.Scopes) == 0 {
		opts.Scopes = DefaultScopes()
	}
	if !opts.DefaultTier.Valid() {
		opts.DefaultTier = pricing.TierShort
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ScanCount <= 0 {
		opts.ScanCount = DefaultScanCount
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	j := &Job{store: st, opts: opts}
	if opts.RateLimit > 0 {
		j.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return j
}

// Run executes the migration and returns its report. The report is returned
// even on failure, marked partial, so the caller can still log and persist
// it. The error is non-nil for fatal conditions only: store connectivity
// loss and cancellation.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	rep := &Report{
		RunID:       uuid.NewString(),
		StartedAt:   j.opts.Now(),
		DefaultTier: j.opts.DefaultTier,
		DryRun:      j.opts.DryRun,
	}

	log.Info().
		Str("run_id", rep.RunID).
		Str("default_tier", string(j.opts.DefaultTier)).
		Bool("dry_run", j.opts.DryRun).
		Int("concurrency", j.opts.Concurrency).
		Msg("backfill: starting")

	if err := j.store.Ping(ctx); err != nil {
		rep.Partial = true
		rep.FinishedAt = j.opts.Now()
		return rep, fmt.Errorf("backfill: store unreachable: %w", err)
	}

	for _, scope := range j.opts.Scopes {
		if err := j.runScope(ctx, scope, rep); err != nil {
			rep.Partial = true
			rep.FinishedAt = j.opts.Now()
			return rep, err
		}
	}

	rep.FinishedAt = j.opts.Now()
	log.Info().
		Str("run_id", rep.RunID).
		Int("migrated", rep.MigratedRecords).
		Int64("cache_tokens", rep.TotalCacheTokens).
		Int("errors", rep.Errors).
		Dur("took", rep.Duration()).
		Msg("backfill: finished")
	return rep, nil
}

// runScope enumerates one scope's source counters and feeds them to a
// bounded worker pool. Key order is irrelevant; each key's migration is
// independent.
func (j *Job) runScope(ctx context.Context, scope Scope, rep *Report) error {
	keys := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < j.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range keys {
				if j.limiter != nil {
					if err := j.limiter.Wait(ctx); err != nil {
						return
					}
				}
				j.processKey(ctx, scope, key, rep)
			}
		}()
	}

	var fatal error
	cursor := uint64(0)
scanLoop:
	for {
		if err := ctx.Err(); err != nil {
			fatal = err
			break
		}

		batch, next, err := j.store.Scan(ctx, cursor, scope.Pattern, j.opts.ScanCount)
		if err != nil {
			fatal = fmt.Errorf("backfill: scan %s: %w", scope.Name, err)
			break
		}

		for _, key := range batch {
			select {
			case keys <- key:
			case <-ctx.Done():
				fatal = ctx.Err()
				break scanLoop
			}
		}

		if next == 0 {
			break
		}
		cursor = next
	}

	close(keys)
	wg.Wait()
	return fatal
}

// processKey migrates a single source counter. All failures are per-key:
// logged, counted, and skipped.
func (j *Job) processKey(ctx context.Context, scope Scope, key string, rep *Report) {
	entity, date, ok := scope.split(key)
	if !ok {
		// Derived tier counters and foreign keys share the scan pattern.
		return
	}

	fields, err := j.store.HGetAll(ctx, key)
	if err != nil {
		j.keyError(rep, scope, key, err)
		return
	}
	j.countProcessed(rep, scope)

	raw := strings.TrimSpace(fields[FieldCacheCreateTokens])
	if raw == "" {
		return
	}
	tokens, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		j.keyError(rep, scope, key, fmt.Errorf("malformed %s %q: %w", FieldCacheCreateTokens, raw, err))
		return
	}
	if tokens <= 0 {
		return
	}

	tierKey := scope.tierKey(j.opts.DefaultTier, entity, date)

	if j.opts.DryRun {
		exists, err := j.store.Exists(ctx, tierKey)
		if err != nil {
			j.keyError(rep, scope, key, err)
			return
		}
		if exists {
			return
		}
		log.Debug().Str("key", key).Str("tier_key", tierKey).Int64("tokens", tokens).Msg("backfill: would migrate")
		j.recordMigrated(rep, tokens)
		return
	}

	claimed, err := j.store.HSetNX(ctx, tierKey, FieldMigrated, "true")
	if err != nil {
		j.keyError(rep, scope, key, err)
		return
	}
	if !claimed {
		// Migrated by an earlier run.
		return
	}

	err = j.store.HSet(ctx, tierKey, map[string]string{
		FieldTokens:     strconv.FormatInt(tokens, 10),
		FieldRequests:   strconv.FormatInt(requestCount(fields), 10),
		FieldMigratedAt: j.opts.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		// The claim stands, so a rerun skips this key. The record needs
		// manual repair; log enough to find it.
		log.Error().Err(err).Str("tier_key", tierKey).Int64("tokens", tokens).
			Msg("backfill: claim written but counter fields failed")
		j.keyError(rep, scope, key, err)
		return
	}

	ttl, err := j.store.TTL(ctx, key)
	if err != nil {
		j.keyError(rep, scope, key, err)
		return
	}
	if ttl > 0 {
		// Keep the derived counter on the source's expiration schedule.
		if err := j.store.Expire(ctx, tierKey, ttl); err != nil {
			j.keyError(rep, scope, key, err)
			return
		}
	}

	j.recordMigrated(rep, tokens)
}

// requestCount resolves the request counter for a derived record:
// cacheRequests when present, then requests, then 1.
func requestCount(fields map[string]string) int64 {
	for _, field := range []string{FieldCacheRequests, FieldRequests} {
		if raw, ok := fields[field]; ok {
			if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}

func (j *Job) countProcessed(rep *Report, scope Scope) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if scope.Name == AccountDailyScope().Name {
		rep.AccountsProcessed++
	} else {
		rep.KeysProcessed++
	}
}

func (j *Job) recordMigrated(rep *Report, tokens int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	rep.MigratedRecords++
	rep.TotalCacheTokens += tokens
}

func (j *Job) keyError(rep *Report, scope Scope, key string, err error) {
	log.Error().Err(err).Str("scope", scope.Name).Str("key", key).Msg("backfill: key skipped")
	j.mu.Lock()
	defer j.mu.Unlock()
	rep.Errors++
}
