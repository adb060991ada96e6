package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/tokentoll/tokentoll/internal/config"
	"github.com/tokentoll/tokentoll/internal/cost"
	"github.com/tokentoll/tokentoll/internal/pricing"
)

// runCostCommand computes the itemized cost of a single usage event.
func runCostCommand(args []string) {
	var (
		model      string
		usage      cost.Usage
		tierFlag   string
		configPath string
		offline    bool
		precision  = -1
	)

	intFlag := func(name, value string) int {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			fmt.Fprintf(os.Stderr, "Error: %s wants a non-negative integer, got %q\n", name, value)
			os.Exit(1)
		}
		return n
	}

	i := 0
	for i < len(args) {
		flag := args[i]
		switch flag {
		case "-h", "--help":
			printCostHelp()
			return
		case "--offline":
			offline = true
			i++
			continue
		}

		if i+1 >= len(args) {
			fmt.Fprintf(os.Stderr, "Error: %s requires a value\n", flag)
			os.Exit(1)
		}
		value := args[i+1]
		switch flag {
		case "-m", "--model":
			model = value
		case "-c", "--config":
			configPath = value
		case "--input":
			usage.InputTokens = intFlag(flag, value)
		case "--output":
			usage.OutputTokens = intFlag(flag, value)
		case "--cache-create":
			usage.CacheCreateTokens = intFlag(flag, value)
		case "--cache-read":
			usage.CacheReadTokens = intFlag(flag, value)
		case "--ttl":
			usage.CacheTTLSeconds = intFlag(flag, value)
		case "--tier":
			tierFlag = value
		case "--precision":
			precision = intFlag(flag, value)
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown option: %s\n", flag)
			os.Exit(1)
		}
		i += 2
	}

	if model == "" {
		fmt.Fprintln(os.Stderr, "Error: --model is required")
		os.Exit(1)
	}
	if tierFlag != "" {
		tier, ok := pricing.ParseTier(tierFlag)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: invalid tier %q (want %s or %s)\n", tierFlag, pricing.TierShort, pricing.TierLong)
			os.Exit(1)
		}
		usage.Tier = tier
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	engine := newEngine(cfg, offline)
	ctx := context.Background()

	b := engine.Calculate(ctx, usage, model)

	source := "static catalog"
	if b.UsingDynamicPricing {
		source = "dynamic feed"
	}
	fmt.Printf("Model:        %s (%s)\n", model, source)
	fmt.Printf("Cache tier:   %s\n\n", b.Tier)
	printCost := func(label string, amount float64) {
		fmt.Printf("  %-12s %s\n", label, cost.FormatUSDPrecision(amount, precision))
	}
	printCost("Input:", b.Costs.Input)
	printCost("Output:", b.Costs.Output)
	printCost("Cache write:", b.Costs.CacheWrite)
	printCost("Cache read:", b.Costs.CacheRead)
	printCost("Total:", b.Costs.Total)

	if usage.CacheReadTokens > 0 {
		s := engine.CacheSavings(ctx, usage, model)
		fmt.Printf("\nCache savings: %s (%.1f%% vs full input price)\n", s.FormattedSaved, s.SavedPct)
	}
}

// runModelsCommand lists the static pricing catalog.
func runModelsCommand(args []string) {
	for _, a := range args {
		if a == "-h" || a == "--help" {
			fmt.Fprintln(os.Stderr, "Usage: tokentoll models")
			return
		}
	}

	catalog := pricing.NewCatalog()
	entries := catalog.AllEntries()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%-28s %s\n", "MODEL", "USD per MTok: input / output / cache 5m / cache 1h / cache read")
	for _, name := range names {
		e := entries[name]
		fmt.Printf("%-28s %.2f / %.2f / %.2f / %.2f / %.2f\n",
			name, e.InputPerMTok, e.OutputPerMTok, e.CacheWrite5mPerMTok, e.CacheWrite1hPerMTok, e.CacheReadPerMTok)
	}
}

// newEngine wires the catalog and the dynamic feed. The --offline flag and
// the TOKENTOLL_OFFLINE / TOKENTOLL_FEED_URL environment take precedence over
// the config file.
func newEngine(cfg *config.Config, offline bool) *cost.Engine {
	opts := []pricing.LiteLLMOption{}
	if cfg.Pricing.Refresh > 0 {
		opts = append(opts, pricing.WithFeedRefresh(cfg.Pricing.Refresh))
	}
	if cfg.Pricing.FeedURL != "" {
		opts = append(opts, pricing.WithFeedURL(cfg.Pricing.FeedURL))
	}
	if url := os.Getenv("TOKENTOLL_FEED_URL"); url != "" {
		opts = append(opts, pricing.WithFeedURL(url))
	}
	if offline || cfg.Pricing.Offline || os.Getenv("TOKENTOLL_OFFLINE") != "" {
		opts = append(opts, pricing.WithOffline(true))
	}
	return cost.NewEngine(pricing.NewCatalog(), pricing.NewLiteLLMClient(opts...))
}

func printCostHelp() {
	fmt.Fprint(os.Stderr, `Usage: tokentoll cost --model MODEL [options]

Computes the itemized USD cost of one usage event. Dynamic feed pricing is
preferred when available; the static catalog is the fallback.

Options:
  -m, --model MODEL    Model identifier (required)
  --input N            Input tokens
  --output N           Output tokens
  --cache-create N     Cache-write tokens
  --cache-read N       Cache-read tokens
  --ttl SECONDS        Cache retention; <=300s is the 5m tier, longer is 1h
  --tier VALUE         Explicit tier (5m or 1h); overrides --ttl
  --precision N        Decimal places for amounts (default: scaled to size)
  -c, --config PATH    Config file (pricing section: feed_url, offline, refresh)
  --offline            Skip the dynamic feed, use static pricing only
  -h, --help           Show this help
`)
}
