package pricing

import (
	"strconv"
	"strings"
)

// Tier classifies a cache-write by retention duration. The tier selects which
// cache-write unit price applies.
type Tier string

const (
	// TierShort is the 5-minute retention class.
	TierShort Tier = "5m"
	// TierLong is the 1-hour retention class.
	TierLong Tier = "1h"
)

// ShortTierMaxSeconds is the inclusive upper bound of the short tier.
const ShortTierMaxSeconds = 300

// Classify maps a retention duration in seconds to a tier.
// Durations up to and including 300s (and non-positive values, which stand in
// for "unknown") classify as the short tier; anything longer is the long tier.
func Classify(retentionSeconds int) Tier {
	if retentionSeconds <= ShortTierMaxSeconds {
		return TierShort
	}
	return TierLong
}

// ClassifyString classifies a string-encoded retention duration, as stored in
// counter hashes and carried on billing events. Unparseable or empty values
// classify as the short tier; this is the documented default, not an error.
func ClassifyString(raw string) Tier {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TierShort
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return TierShort
	}
	if secs > ShortTierMaxSeconds {
		return TierLong
	}
	return TierShort
}

// ParseTier validates a tier label from config or CLI input.
func ParseTier(raw string) (Tier, bool) {
	switch Tier(strings.TrimSpace(raw)) {
	case TierShort:
		return TierShort, true
	case TierLong:
		return TierLong, true
	}
	return "", false
}

// Valid reports whether t is one of the defined tiers.
func (t Tier) Valid() bool {
	return t == TierShort || t == TierLong
}
