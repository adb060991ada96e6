package backfill

import (
	"strings"

	"github.com/tokentoll/tokentoll/internal/pricing"
)

// Counter key schema. Source counters are hashes keyed by entity and UTC date
// (YYYY-MM-DD); derived tier counters insert a "cache:{tier}" segment after
// the scope prefix.
const (
	apiKeyDailyPrefix  = "usage:daily:"
	accountDailyPrefix = "account_usage:daily:"
	tierSegment        = "cache:"
)

// Source counter hash fields (owned by the usage recorder, read-only here)
// and derived tier counter fields (written only by the backfill).
const (
	FieldCacheCreateTokens = "cacheCreateTokens"
	FieldCacheRequests     = "cacheRequests"
	FieldRequests          = "requests"

	FieldTokens     = "tokens"
	FieldMigrated   = "migrated"
	FieldMigratedAt = "migratedAt"
)

// Scope identifies one family of source counters and how to derive tier keys
// from it. The two scopes are structurally identical and differ only in key
// prefix.
type Scope struct {
	Name    string
	Pattern string

	prefix string
}

// APIKeyDailyScope covers per-API-key daily counters.
func APIKeyDailyScope() Scope {
	return Scope{Name: "apiKeyDaily", Pattern: apiKeyDailyPrefix + "*", prefix: apiKeyDailyPrefix}
}

// AccountDailyScope covers per-account daily counters.
func AccountDailyScope() Scope {
	return Scope{Name: "accountDaily", Pattern: accountDailyPrefix + "*", prefix: accountDailyPrefix}
}

// DefaultScopes returns both scopes in processing order.
func DefaultScopes() []Scope {
	return []Scope{APIKeyDailyScope(), AccountDailyScope()}
}

// split extracts the entity ID and date from a source counter key.
// Returns ok=false for keys outside the scope and for derived tier counters,
// which share the scope prefix and would otherwise be re-migrated.
func (s Scope) split(key string) (entity, date string, ok bool) {
	rest := strings.TrimPrefix(key, s.prefix)
	if rest == key || strings.HasPrefix(rest, tierSegment) {
		return "", "", false
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// tierKey builds the derived counter key for an entity, date and tier.
func (s Scope) tierKey(tier pricing.Tier, entity, date string) string {
	return s.prefix + tierSegment + string(tier) + ":" + entity + ":" + date
}

// APIKeyDailyKey builds a source counter key for a per-API-key day.
// Exported for the usage recorder and for tests.
func APIKeyDailyKey(keyID, date string) string {
	return apiKeyDailyPrefix + keyID + ":" + date
}

// AccountDailyKey builds a source counter key for a per-account day.
func AccountDailyKey(accountID, date string) string {
	return accountDailyPrefix + accountID + ":" + date
}

// APIKeyTierKey builds the derived tier counter key for a per-API-key day.
func APIKeyTierKey(tier pricing.Tier, keyID, date string) string {
	return APIKeyDailyScope().tierKey(tier, keyID, date)
}

// AccountTierKey builds the derived tier counter key for a per-account day.
func AccountTierKey(tier pricing.Tier, accountID, date string) string {
	return AccountDailyScope().tierKey(tier, accountID, date)
}
