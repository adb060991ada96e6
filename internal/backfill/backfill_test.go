package backfill

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokentoll/tokentoll/internal/pricing"
	"github.com/tokentoll/tokentoll/internal/store"
)

const testDate = "2025-01-15"

func seedStore(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	require.NoError(t, mem.HSet(ctx, APIKeyDailyKey("key1", testDate), map[string]string{
		FieldCacheCreateTokens: "1000",
		FieldCacheRequests:     "5",
		FieldRequests:          "9",
	}))
	require.NoError(t, mem.Expire(ctx, APIKeyDailyKey("key1", testDate), 24*time.Hour))

	// No cache writes on this day, nothing to migrate.
	require.NoError(t, mem.HSet(ctx, APIKeyDailyKey("key2", testDate), map[string]string{
		FieldCacheCreateTokens: "0",
		FieldRequests:          "4",
	}))

	// Malformed record, must be skipped and counted, not abort the run.
	require.NoError(t, mem.HSet(ctx, APIKeyDailyKey("key3", testDate), map[string]string{
		FieldCacheCreateTokens: "garbage",
	}))

	// Account counter without cacheRequests and without TTL.
	require.NoError(t, mem.HSet(ctx, AccountDailyKey("acct1", testDate), map[string]string{
		FieldCacheCreateTokens: "500",
		FieldRequests:          "3",
	}))

	return mem
}

func TestRun_MigratesTierCounters(t *testing.T) {
	ctx := context.Background()
	mem := seedStore(t)

	job := New(mem, Options{ScanCount: 2})
	rep, err := job.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.KeysProcessed)
	assert.Equal(t, 1, rep.AccountsProcessed)
	assert.Equal(t, 2, rep.MigratedRecords)
	assert.Equal(t, int64(1500), rep.TotalCacheTokens)
	assert.Equal(t, 1, rep.Errors)
	assert.Equal(t, pricing.TierShort, rep.DefaultTier)
	assert.False(t, rep.Partial)

	fields, err := mem.HGetAll(ctx, APIKeyTierKey(pricing.TierShort, "key1", testDate))
	require.NoError(t, err)
	assert.Equal(t, "1000", fields[FieldTokens])
	// cacheRequests preferred over requests.
	assert.Equal(t, "5", fields[FieldRequests])
	assert.Equal(t, "true", fields[FieldMigrated])
	assert.NotEmpty(t, fields[FieldMigratedAt])

	fields, err = mem.HGetAll(ctx, AccountTierKey(pricing.TierShort, "acct1", testDate))
	require.NoError(t, err)
	assert.Equal(t, "500", fields[FieldTokens])
	assert.Equal(t, "3", fields[FieldRequests])

	// No derived counter for the zero-token day.
	exists, err := mem.Exists(ctx, APIKeyTierKey(pricing.TierShort, "key2", testDate))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_PreservesExpiration(t *testing.T) {
	ctx := context.Background()
	mem := seedStore(t)

	_, err := New(mem, Options{}).Run(ctx)
	require.NoError(t, err)

	ttl, err := mem.TTL(ctx, APIKeyTierKey(pricing.TierShort, "key1", testDate))
	require.NoError(t, err)
	assert.InDelta(t, (24 * time.Hour).Seconds(), ttl.Seconds(), 5)

	// No TTL on the source means no TTL on the derived counter.
	ttl, err = mem.TTL(ctx, AccountTierKey(pricing.TierShort, "acct1", testDate))
	require.NoError(t, err)
	assert.Zero(t, ttl)
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	mem := seedStore(t)

	first, err := New(mem, Options{}).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, first.MigratedRecords)

	before, err := mem.HGetAll(ctx, APIKeyTierKey(pricing.TierShort, "key1", testDate))
	require.NoError(t, err)

	second, err := New(mem, Options{}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, second.MigratedRecords)
	assert.Equal(t, int64(0), second.TotalCacheTokens)
	// Source counters are still enumerated on the second pass.
	assert.Equal(t, 3, second.KeysProcessed)

	after, err := mem.HGetAll(ctx, APIKeyTierKey(pricing.TierShort, "key1", testDate))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	mem := seedStore(t)

	rep, err := New(mem, Options{DryRun: true}).Run(ctx)
	require.NoError(t, err)

	assert.True(t, rep.DryRun)
	assert.Equal(t, 2, rep.MigratedRecords)
	assert.Equal(t, int64(1500), rep.TotalCacheTokens)

	for _, key := range []string{
		APIKeyTierKey(pricing.TierShort, "key1", testDate),
		AccountTierKey(pricing.TierShort, "acct1", testDate),
	} {
		exists, err := mem.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists, "dry run must not create %s", key)
	}
}

func TestRun_ConfigurableDefaultTier(t *testing.T) {
	ctx := context.Background()
	mem := seedStore(t)

	rep, err := New(mem, Options{DefaultTier: pricing.TierLong}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, pricing.TierLong, rep.DefaultTier)

	exists, err := mem.Exists(ctx, APIKeyTierKey(pricing.TierLong, "key1", testDate))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRun_Cancellation(t *testing.T) {
	mem := seedStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := New(mem, Options{}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, rep.Partial)
	assert.NotZero(t, rep.FinishedAt)
}

func TestRun_SkipsDerivedCounters(t *testing.T) {
	ctx := context.Background()
	mem := seedStore(t)

	_, err := New(mem, Options{}).Run(ctx)
	require.NoError(t, err)

	// A second run scans the derived tier counters it created; they must not
	// be treated as source records.
	rep, err := New(mem, Options{}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.KeysProcessed)
	assert.Equal(t, 1, rep.AccountsProcessed)
	assert.Equal(t, 0, rep.MigratedRecords)
}

func TestRequestCount_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   int64
	}{
		{"cacheRequests preferred", map[string]string{FieldCacheRequests: "5", FieldRequests: "9"}, 5},
		{"requests fallback", map[string]string{FieldRequests: "9"}, 9},
		{"neither present", map[string]string{}, 1},
		{"malformed cacheRequests falls through", map[string]string{FieldCacheRequests: "x", FieldRequests: "7"}, 7},
		{"zero falls through", map[string]string{FieldCacheRequests: "0", FieldRequests: "2"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, requestCount(tt.fields))
		})
	}
}

func TestScopeSplit(t *testing.T) {
	scope := APIKeyDailyScope()

	entity, date, ok := scope.split("usage:daily:key1:2025-01-15")
	require.True(t, ok)
	assert.Equal(t, "key1", entity)
	assert.Equal(t, "2025-01-15", date)

	_, _, ok = scope.split("usage:daily:cache:5m:key1:2025-01-15")
	assert.False(t, ok, "derived tier counters must be rejected")

	_, _, ok = scope.split("account_usage:daily:acct1:2025-01-15")
	assert.False(t, ok, "foreign scope must be rejected")

	_, _, ok = scope.split("usage:daily:malformed")
	assert.False(t, ok)
}

func TestReportSummary(t *testing.T) {
	rep := &Report{
		RunID:            "run-1",
		StartedAt:        time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC),
		FinishedAt:       time.Date(2025, 1, 15, 3, 0, 12, 0, time.UTC),
		DefaultTier:      pricing.TierShort,
		DryRun:           true,
		KeysProcessed:    10,
		MigratedRecords:  4,
		TotalCacheTokens: 1234,
		Errors:           1,
	}

	s := rep.Summary()
	assert.Contains(t, s, "run-1")
	assert.Contains(t, s, "2025-01-15T03:00:00Z")
	assert.Contains(t, s, "dry-run")
	assert.Contains(t, s, "Records migrated:            4")
	assert.Contains(t, s, "Cache tokens reclassified:   1234")
}
