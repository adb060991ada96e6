// Package cost computes itemized USD cost from token counters.
//
// DESIGN: Cost resolution is total — unknown models, missing price fields and
// malformed retention values all degrade to documented defaults instead of
// erroring, because billing must never fail hard on partial data. Dynamic
// pricing (per-token, from the feed) strictly overrides the static catalog
// when available.
package cost

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tokentoll/tokentoll/internal/pricing"
)

// TokensPerMTok converts per-token feed costs to the per-million-token unit
// used by the catalog and by cost arithmetic.
const TokensPerMTok = 1_000_000

const (
	// longTierFallbackRatio backfills a missing 1h cache-write cost from the
	// 5m cost. The long tier costs more than the short tier by this fixed
	// ratio absent better data.
	longTierFallbackRatio = 1.6

	// shortTierInputRatio and longTierInputRatio derive cache-write costs
	// from the input cost when a price entry carries none.
	shortTierInputRatio = 1.25
	longTierInputRatio  = 2.0
)

// Usage holds one billed operation's token counters.
type Usage struct {
	InputTokens       int
	OutputTokens      int
	CacheCreateTokens int
	CacheReadTokens   int

	// CacheTTLSeconds is the cache retention in seconds; 0 or negative means
	// unknown and classifies as the short tier.
	CacheTTLSeconds int

	// Tier, when set, is ground truth from the billing event and takes
	// precedence over CacheTTLSeconds.
	Tier pricing.Tier
}

// AggregatedUsage holds pre-summed counters, with cache-create tokens split
// by tier. CacheCreateTokens carries untiered legacy totals recorded before
// tier tracking.
type AggregatedUsage struct {
	InputTokens         int64
	OutputTokens        int64
	CacheCreate5mTokens int64
	CacheCreate1hTokens int64
	CacheCreateTokens   int64
	CacheReadTokens     int64
}

// Costs is the itemized USD cost of a usage event.
type Costs struct {
	Input      float64
	Output     float64
	CacheWrite float64
	CacheRead  float64
	Total      float64
}

// Formatted mirrors Costs as display strings.
type Formatted struct {
	Input      string
	Output     string
	CacheWrite string
	CacheRead  string
	Total      string
}

// Breakdown is the result of a cost resolution.
type Breakdown struct {
	Costs     Costs
	Formatted Formatted

	// Tier is the cache-write tier the resolution applied.
	Tier pricing.Tier

	// Pricing is the per-MTok price entry actually used.
	Pricing pricing.PriceEntry

	// UsingDynamicPricing is true when Pricing came from the dynamic feed
	// rather than the static catalog.
	UsingDynamicPricing bool
}

// Savings compares serving cache-read tokens at the cache-read price against
// the full input price.
type Savings struct {
	FullCost   float64 // cache-read tokens priced as fresh input
	ActualCost float64 // cache-read tokens at the cache-read price
	Saved      float64
	SavedPct   float64 // 0 when FullCost is 0

	FormattedSaved string
}

// Engine resolves prices and computes cost breakdowns. It is stateless and
// safe for concurrent use.
type Engine struct {
	catalog *pricing.Catalog
	source  pricing.Source
}

// NewEngine creates a cost engine. source may be nil, in which case only the
// static catalog is consulted.
func NewEngine(catalog *pricing.Catalog, source pricing.Source) *Engine {
	return &Engine{catalog: catalog, source: source}
}

// Calculate computes the itemized cost of a single usage event.
func (e *Engine) Calculate(ctx context.Context, u Usage, model string) Breakdown {
	entry, dynamic := e.effectivePricing(ctx, model)

	tier := u.Tier
	if !tier.Valid() {
		tier = pricing.Classify(u.CacheTTLSeconds)
	}

	cacheWritePrice := entry.CacheWrite5mPerMTok
	if tier == pricing.TierLong {
		cacheWritePrice = entry.CacheWrite1hPerMTok
	}

	costs := Costs{
		Input:      mtok(int64(u.InputTokens)) * entry.InputPerMTok,
		Output:     mtok(int64(u.OutputTokens)) * entry.OutputPerMTok,
		CacheWrite: mtok(int64(u.CacheCreateTokens)) * cacheWritePrice,
		CacheRead:  mtok(int64(u.CacheReadTokens)) * entry.CacheReadPerMTok,
	}
	costs.Total = costs.Input + costs.Output + costs.CacheWrite + costs.CacheRead

	return Breakdown{
		Costs:               costs,
		Formatted:           formatCosts(costs),
		Tier:                tier,
		Pricing:             entry,
		UsingDynamicPricing: dynamic,
	}
}

// CalculateAggregated computes cost from pre-summed counters. Tiered
// cache-create buckets are priced at their own tier; untiered legacy totals
// are priced at the short tier, which is also the tier reported on the
// breakdown.
func (e *Engine) CalculateAggregated(ctx context.Context, agg AggregatedUsage, model string) Breakdown {
	entry, dynamic := e.effectivePricing(ctx, model)

	costs := Costs{
		Input:  mtok(agg.InputTokens) * entry.InputPerMTok,
		Output: mtok(agg.OutputTokens) * entry.OutputPerMTok,
		CacheWrite: mtok(agg.CacheCreate5mTokens)*entry.CacheWrite5mPerMTok +
			mtok(agg.CacheCreate1hTokens)*entry.CacheWrite1hPerMTok +
			mtok(agg.CacheCreateTokens)*entry.CacheWrite5mPerMTok,
		CacheRead: mtok(agg.CacheReadTokens) * entry.CacheReadPerMTok,
	}
	costs.Total = costs.Input + costs.Output + costs.CacheWrite + costs.CacheRead

	return Breakdown{
		Costs:               costs,
		Formatted:           formatCosts(costs),
		Tier:                pricing.TierShort,
		Pricing:             entry,
		UsingDynamicPricing: dynamic,
	}
}

// CacheSavings returns the cost difference between serving cache-read tokens
// at the cache-read price and re-processing them as fresh input.
func (e *Engine) CacheSavings(ctx context.Context, u Usage, model string) Savings {
	entry, _ := e.effectivePricing(ctx, model)

	full := mtok(int64(u.CacheReadTokens)) * entry.InputPerMTok
	actual := mtok(int64(u.CacheReadTokens)) * entry.CacheReadPerMTok

	s := Savings{
		FullCost:   full,
		ActualCost: actual,
		Saved:      full - actual,
	}
	if full > 0 {
		s.SavedPct = s.Saved / full * 100
	}
	s.FormattedSaved = FormatUSD(s.Saved)
	return s
}

// ModelPricing returns the effective per-MTok pricing for a model,
// preferring the dynamic feed.
func (e *Engine) ModelPricing(ctx context.Context, model string) pricing.PriceEntry {
	entry, _ := e.effectivePricing(ctx, model)
	return entry
}

// AllModelPricing returns the static catalog's entries.
func (e *Engine) AllModelPricing() map[string]pricing.PriceEntry {
	return e.catalog.AllEntries()
}

// IsModelSupported reports whether the static catalog has real pricing for
// the model (the unknown fallback does not count).
func (e *Engine) IsModelSupported(model string) bool {
	return e.catalog.Supports(model)
}

// effectivePricing merges the dynamic source and the static catalog.
// Dynamic wins when it has a usable entry; missing cache-write fields are
// backfilled from documented heuristics either way.
func (e *Engine) effectivePricing(ctx context.Context, model string) (pricing.PriceEntry, bool) {
	if e.source != nil {
		if tc, ok := e.source.TokenCost(ctx, model); ok {
			return e.fromTokenCost(model, tc), true
		}
	}

	entry := e.catalog.Lookup(model)
	if entry.CacheWrite5mPerMTok == 0 {
		entry.CacheWrite5mPerMTok = entry.InputPerMTok * shortTierInputRatio
	}
	if entry.CacheWrite1hPerMTok == 0 {
		entry.CacheWrite1hPerMTok = entry.InputPerMTok * longTierInputRatio
	}
	return entry, false
}

// fromTokenCost scales a per-token dynamic entry to per-MTok prices.
func (e *Engine) fromTokenCost(model string, tc pricing.TokenCost) pricing.PriceEntry {
	entry := pricing.PriceEntry{
		InputPerMTok:        tc.InputPerTok * TokensPerMTok,
		OutputPerMTok:       tc.OutputPerTok * TokensPerMTok,
		CacheWrite5mPerMTok: tc.CacheCreatePerTok * TokensPerMTok,
		CacheWrite1hPerMTok: tc.CacheCreate1hPerTok * TokensPerMTok,
		CacheReadPerMTok:    tc.CacheReadPerTok * TokensPerMTok,
	}
	if entry.CacheWrite5mPerMTok == 0 {
		entry.CacheWrite5mPerMTok = entry.InputPerMTok * shortTierInputRatio
	}
	if entry.CacheWrite1hPerMTok == 0 {
		// Heuristic for feeds without a 1h price. Logged so estimated prices
		// stay distinguishable from ground truth in audits.
		entry.CacheWrite1hPerMTok = entry.CacheWrite5mPerMTok * longTierFallbackRatio
		log.Debug().
			Str("model", model).
			Float64("cache_write_1h_per_mtok", entry.CacheWrite1hPerMTok).
			Msg("cost: 1h cache-write price estimated from 5m price")
	}
	return entry
}

func mtok(tokens int64) float64 {
	return float64(tokens) / TokensPerMTok
}
