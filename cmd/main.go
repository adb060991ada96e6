// Command tokentoll computes tiered API usage cost and reclassifies
// historical cache-write counters.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

func main() {
	// Best effort; a missing .env is fine.
	_ = godotenv.Load()

	initLogging()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "backfill":
		runBackfillCommand(args)
	case "cost":
		runCostCommand(args)
	case "models":
		runModelsCommand(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

// initLogging sets up zerolog: human-readable console output on a terminal,
// JSON otherwise.
func initLogging() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: tokentoll <command> [options]

Commands:
  backfill    Reclassify historical cache-write counters into retention tiers
  cost        Compute the cost of a usage event
  models      List the static pricing catalog
  help        Show this help

Run 'tokentoll <command> --help' for command options.
`)
}
