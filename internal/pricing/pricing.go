// Package pricing holds the static fallback price table and retention-tier
// classification.
//
// DESIGN: The catalog is an explicit value constructed once and injected into
// the cost engine, not ambient global state, so tests can substitute fixtures.
// Lookup is total: unknown models resolve to a conservative default entry
// rather than an error, because billing must never fail hard on partial data.
package pricing

import "strings"

// UnknownModelID is the catalog key of the fallback entry used for models
// without their own pricing.
const UnknownModelID = "unknown"

// PriceEntry holds per-million-token pricing for a model. Cache writes are
// priced by retention tier: 5-minute entries cost 1.25x input, 1-hour entries
// cost 2x input.
type PriceEntry struct {
	InputPerMTok        float64 // USD per million input tokens
	OutputPerMTok       float64 // USD per million output tokens
	CacheWrite5mPerMTok float64 // USD per million 5-minute cache-write tokens
	CacheWrite1hPerMTok float64 // USD per million 1-hour cache-write tokens
	CacheReadPerMTok    float64 // USD per million cache-read tokens
}

// staticPricingTable maps model names to their pricing.
var staticPricingTable = map[string]PriceEntry{
	// Claude 4.x (dated)
	"claude-opus-4-20250514":     {InputPerMTok: 15, OutputPerMTok: 75, CacheWrite5mPerMTok: 18.75, CacheWrite1hPerMTok: 30, CacheReadPerMTok: 1.5},
	"claude-opus-4-1-20250805":   {InputPerMTok: 15, OutputPerMTok: 75, CacheWrite5mPerMTok: 18.75, CacheWrite1hPerMTok: 30, CacheReadPerMTok: 1.5},
	"claude-opus-4-5-20251101":   {InputPerMTok: 5, OutputPerMTok: 25, CacheWrite5mPerMTok: 6.25, CacheWrite1hPerMTok: 10, CacheReadPerMTok: 0.5},
	"claude-sonnet-4-20250514":   {InputPerMTok: 3, OutputPerMTok: 15, CacheWrite5mPerMTok: 3.75, CacheWrite1hPerMTok: 6, CacheReadPerMTok: 0.3},
	"claude-sonnet-4-5-20250929": {InputPerMTok: 3, OutputPerMTok: 15, CacheWrite5mPerMTok: 3.75, CacheWrite1hPerMTok: 6, CacheReadPerMTok: 0.3},
	"claude-haiku-4-5-20251001":  {InputPerMTok: 1, OutputPerMTok: 5, CacheWrite5mPerMTok: 1.25, CacheWrite1hPerMTok: 2, CacheReadPerMTok: 0.1},

	// Claude short aliases
	"claude-opus-4-5":   {InputPerMTok: 5, OutputPerMTok: 25, CacheWrite5mPerMTok: 6.25, CacheWrite1hPerMTok: 10, CacheReadPerMTok: 0.5},
	"claude-sonnet-4-5": {InputPerMTok: 3, OutputPerMTok: 15, CacheWrite5mPerMTok: 3.75, CacheWrite1hPerMTok: 6, CacheReadPerMTok: 0.3},
	"claude-haiku-4-5":  {InputPerMTok: 1, OutputPerMTok: 5, CacheWrite5mPerMTok: 1.25, CacheWrite1hPerMTok: 2, CacheReadPerMTok: 0.1},

	// Claude 3.x
	"claude-3-7-sonnet-20250219": {InputPerMTok: 3, OutputPerMTok: 15, CacheWrite5mPerMTok: 3.75, CacheWrite1hPerMTok: 6, CacheReadPerMTok: 0.3},
	"claude-3-5-sonnet-20241022": {InputPerMTok: 3, OutputPerMTok: 15, CacheWrite5mPerMTok: 3.75, CacheWrite1hPerMTok: 6, CacheReadPerMTok: 0.3},
	"claude-3-5-haiku-20241022":  {InputPerMTok: 0.8, OutputPerMTok: 4, CacheWrite5mPerMTok: 1, CacheWrite1hPerMTok: 1.6, CacheReadPerMTok: 0.08},
	"claude-3-opus-20240229":     {InputPerMTok: 15, OutputPerMTok: 75, CacheWrite5mPerMTok: 18.75, CacheWrite1hPerMTok: 30, CacheReadPerMTok: 1.5},
	"claude-3-haiku-20240307":    {InputPerMTok: 0.25, OutputPerMTok: 1.25, CacheWrite5mPerMTok: 0.3, CacheWrite1hPerMTok: 0.5, CacheReadPerMTok: 0.03},
}

// unknownPricing is used for models without a table entry
// (conservative to prevent silent overspend).
var unknownPricing = PriceEntry{InputPerMTok: 15, OutputPerMTok: 75, CacheWrite5mPerMTok: 18.75, CacheWrite1hPerMTok: 30, CacheReadPerMTok: 1.5}

// familyPricingTable maps model family prefixes to pricing.
// Ordered longest-prefix-first in lookup to avoid e.g. "claude-opus" ($15)
// matching when "claude-opus-4-5" ($5) is the correct match.
var familyPricingTable = map[string]PriceEntry{
	// Version-specific families (must win over broad families)
	"claude-opus-4-5":   {InputPerMTok: 5, OutputPerMTok: 25, CacheWrite5mPerMTok: 6.25, CacheWrite1hPerMTok: 10, CacheReadPerMTok: 0.5},
	"claude-sonnet-4-5": {InputPerMTok: 3, OutputPerMTok: 15, CacheWrite5mPerMTok: 3.75, CacheWrite1hPerMTok: 6, CacheReadPerMTok: 0.3},
	"claude-haiku-4-5":  {InputPerMTok: 1, OutputPerMTok: 5, CacheWrite5mPerMTok: 1.25, CacheWrite1hPerMTok: 2, CacheReadPerMTok: 0.1},
	"claude-3-5-sonnet": {InputPerMTok: 3, OutputPerMTok: 15, CacheWrite5mPerMTok: 3.75, CacheWrite1hPerMTok: 6, CacheReadPerMTok: 0.3},
	"claude-3-5-haiku":  {InputPerMTok: 0.8, OutputPerMTok: 4, CacheWrite5mPerMTok: 1, CacheWrite1hPerMTok: 1.6, CacheReadPerMTok: 0.08},
	"claude-3-haiku":    {InputPerMTok: 0.25, OutputPerMTok: 1.25, CacheWrite5mPerMTok: 0.3, CacheWrite1hPerMTok: 0.5, CacheReadPerMTok: 0.03},

	// Broad families (fallback)
	"claude-opus":   {InputPerMTok: 15, OutputPerMTok: 75, CacheWrite5mPerMTok: 18.75, CacheWrite1hPerMTok: 30, CacheReadPerMTok: 1.5},
	"claude-sonnet": {InputPerMTok: 3, OutputPerMTok: 15, CacheWrite5mPerMTok: 3.75, CacheWrite1hPerMTok: 6, CacheReadPerMTok: 0.3},
	"claude-haiku":  {InputPerMTok: 1, OutputPerMTok: 5, CacheWrite5mPerMTok: 1.25, CacheWrite1hPerMTok: 2, CacheReadPerMTok: 0.1},
}

// Catalog is the static fallback price table.
type Catalog struct {
	entries  map[string]PriceEntry
	families map[string]PriceEntry
	unknown  PriceEntry
}

// NewCatalog builds a catalog from the built-in price table.
func NewCatalog() *Catalog {
	return &Catalog{
		entries:  staticPricingTable,
		families: familyPricingTable,
		unknown:  unknownPricing,
	}
}

// NewCatalogFromEntries builds a catalog from explicit entries. Used by tests
// and by deployments that override the built-in table.
func NewCatalogFromEntries(entries map[string]PriceEntry, unknown PriceEntry) *Catalog {
	copied := make(map[string]PriceEntry, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &Catalog{entries: copied, unknown: unknown}
}

// Lookup returns pricing for a model.
// Tries exact match, then prefix/family match (longest prefix wins), then the
// unknown-model default. Never fails.
func (c *Catalog) Lookup(model string) PriceEntry {
	if p, ok := c.entries[model]; ok {
		return p
	}

	bestPrefix := ""
	var bestPricing PriceEntry
	for prefix, p := range c.families {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
			bestPricing = p
		}
	}
	if bestPrefix != "" {
		return bestPricing
	}

	return c.unknown
}

// Supports reports whether the model resolves to a real table entry rather
// than the unknown-model fallback.
func (c *Catalog) Supports(model string) bool {
	if _, ok := c.entries[model]; ok {
		return true
	}
	for prefix := range c.families {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// Unknown returns the fallback entry used for unsupported models.
func (c *Catalog) Unknown() PriceEntry {
	return c.unknown
}

// AllEntries returns a copy of the price table including the unknown entry.
// Mutating the result does not affect the catalog.
func (c *Catalog) AllEntries() map[string]PriceEntry {
	out := make(map[string]PriceEntry, len(c.entries)+1)
	for k, v := range c.entries {
		out[k] = v
	}
	out[UnknownModelID] = c.unknown
	return out
}
