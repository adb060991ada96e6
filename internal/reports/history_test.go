package reports

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokentoll/tokentoll/internal/backfill"
	"github.com/tokentoll/tokentoll/internal/pricing"
)

func sampleReport() *backfill.Report {
	return &backfill.Report{
		RunID:             "run-abc",
		StartedAt:         time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC),
		FinishedAt:        time.Date(2025, 1, 15, 3, 2, 0, 0, time.UTC),
		DefaultTier:       pricing.TierShort,
		DryRun:            false,
		Partial:           true,
		KeysProcessed:     100,
		AccountsProcessed: 20,
		MigratedRecords:   42,
		TotalCacheTokens:  123456,
		Errors:            2,
	}
}

func TestHistory_RecordAndRecent(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "backfill.db"))
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	require.NoError(t, h.Record(sampleReport()))

	runs, err := h.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, "run-abc", r.RunID)
	assert.Equal(t, "5m", r.DefaultTier)
	assert.True(t, r.Partial)
	assert.False(t, r.DryRun)
	assert.Equal(t, 42, r.MigratedRecords)
	assert.Equal(t, int64(123456), r.TotalCacheTokens)
	assert.Equal(t, 2, r.Errors)
}

func TestHistory_DuplicateRunIDRejected(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "backfill.db"))
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	require.NoError(t, h.Record(sampleReport()))
	assert.Error(t, h.Record(sampleReport()))
}

func TestWriteArtifact(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteArtifact(dir, sampleReport())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run-abc")
	assert.Contains(t, string(data), "PARTIAL")
	assert.Contains(t, filepath.Base(path), "20250115-030000")
}
