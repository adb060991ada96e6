package backfill

import (
	"fmt"
	"strings"
	"time"

	"github.com/tokentoll/tokentoll/internal/pricing"
)

// Report summarizes one backfill run. It is produced on every run, including
// partial and dry runs.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	DefaultTier pricing.Tier
	DryRun      bool

	// Partial is set when the run ended before the full enumeration
	// completed (cancellation or a fatal store failure).
	Partial bool

	KeysProcessed     int   // apiKeyDaily source counters examined
	AccountsProcessed int   // accountDaily source counters examined
	MigratedRecords   int   // derived tier counters created (or would-create in dry runs)
	TotalCacheTokens  int64 // cache-create tokens reclassified
	Errors            int   // per-key failures, logged and skipped
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary renders a timestamped plain-text report for the console and the
// report artifact.
func (r *Report) Summary() string {
	mode := "live"
	if r.DryRun {
		mode = "dry-run (no writes)"
	}
	status := "complete"
	if r.Partial {
		status = "PARTIAL"
	}

	var sb strings.Builder
	sb.WriteString("Cache-write tier backfill report\n")
	sb.WriteString("================================\n")
	fmt.Fprintf(&sb, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(&sb, "Started:       %s\n", r.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Finished:      %s (%s)\n", r.FinishedAt.UTC().Format(time.RFC3339), r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "Default tier:  %s\n", r.DefaultTier)
	fmt.Fprintf(&sb, "Mode:          %s\n", mode)
	fmt.Fprintf(&sb, "Status:        %s\n", status)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "API key counters processed:  %d\n", r.KeysProcessed)
	fmt.Fprintf(&sb, "Account counters processed:  %d\n", r.AccountsProcessed)
	fmt.Fprintf(&sb, "Records migrated:            %d\n", r.MigratedRecords)
	fmt.Fprintf(&sb, "Cache tokens reclassified:   %d\n", r.TotalCacheTokens)
	fmt.Fprintf(&sb, "Errors:                      %d\n", r.Errors)
	return sb.String()
}
