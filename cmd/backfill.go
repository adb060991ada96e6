package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tokentoll/tokentoll/internal/backfill"
	"github.com/tokentoll/tokentoll/internal/config"
	"github.com/tokentoll/tokentoll/internal/pricing"
	"github.com/tokentoll/tokentoll/internal/reports"
	"github.com/tokentoll/tokentoll/internal/store"
)

// runBackfillCommand runs the reclassification job against the counter store.
func runBackfillCommand(args []string) {
	var (
		configFlag    string
		tierFlag      string
		reportDirFlag string
		dryRun        bool
	)

	i := 0
	for i < len(args) {
		switch args[i] {
		case "-h", "--help":
			printBackfillHelp()
			return
		case "--dry-run":
			dryRun = true
			i++
		case "-c", "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --config requires a value")
				os.Exit(1)
			}
			configFlag = args[i+1]
			i += 2
		case "--tier":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --tier requires a value")
				os.Exit(1)
			}
			tierFlag = args[i+1]
			i += 2
		case "--report-dir":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --report-dir requires a value")
				os.Exit(1)
			}
			reportDirFlag = args[i+1]
			i += 2
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown option: %s\n", args[i])
			os.Exit(1)
		}
	}

	cfg, err := config.Load(configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if tierFlag != "" {
		if _, ok := pricing.ParseTier(tierFlag); !ok {
			fmt.Fprintf(os.Stderr, "Error: invalid tier %q (want %s or %s)\n", tierFlag, pricing.TierShort, pricing.TierLong)
			os.Exit(1)
		}
		cfg.Backfill.DefaultTier = tierFlag
	}
	if reportDirFlag != "" {
		cfg.Reports.Dir = reportDirFlag
	}

	st := store.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = st.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := backfill.New(st, backfill.Options{
		DefaultTier: cfg.DefaultTier(),
		DryRun:      dryRun,
		Concurrency: cfg.Backfill.Concurrency,
		ScanCount:   cfg.Backfill.ScanCount,
		RateLimit:   cfg.Backfill.RateLimit,
	})

	rep, runErr := job.Run(ctx)

	// The report is emitted and persisted even for partial runs.
	fmt.Println(rep.Summary())
	persistReport(cfg, rep)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			log.Warn().Str("run_id", rep.RunID).Msg("backfill: stopped early, report reflects partial progress")
			return
		}
		log.Error().Err(runErr).Str("run_id", rep.RunID).Msg("backfill: aborted")
		os.Exit(1)
	}
}

// persistReport writes the artifact and the history row. Persistence
// failures are logged but never mask the run's own outcome.
func persistReport(cfg *config.Config, rep *backfill.Report) {
	if path, err := reports.WriteArtifact(cfg.Reports.Dir, rep); err != nil {
		log.Error().Err(err).Msg("backfill: report artifact not written")
	} else {
		log.Info().Str("path", path).Msg("backfill: report artifact written")
	}

	hist, err := reports.OpenHistory(cfg.Reports.HistoryDB)
	if err != nil {
		log.Error().Err(err).Msg("backfill: run history unavailable")
		return
	}
	defer func() { _ = hist.Close() }()
	if err := hist.Record(rep); err != nil {
		log.Error().Err(err).Msg("backfill: run not recorded in history")
	}
}

func printBackfillHelp() {
	fmt.Fprint(os.Stderr, `Usage: tokentoll backfill [options]

Reclassifies historical daily cache-write counters (which predate tier
tracking) into tier-scoped counters. Idempotent: re-running never
double-counts. Derived counters inherit the source counter's remaining TTL.

Options:
  --dry-run           Compute and report without writing anything
  --tier VALUE        Tier assigned to historical records (5m or 1h, default 5m)
  -c, --config PATH   YAML config file
  --report-dir DIR    Directory for report artifacts
  -h, --help          Show this help
`)
}
