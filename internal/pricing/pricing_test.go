package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogLookup_KnownModels(t *testing.T) {
	c := NewCatalog()

	tests := []struct {
		model     string
		wantInput float64
		want5m    float64
		want1h    float64
	}{
		{"claude-3-haiku-20240307", 0.25, 0.3, 0.5},
		{"claude-opus-4-20250514", 15, 18.75, 30},
		{"claude-sonnet-4-5", 3, 3.75, 6},
		{"claude-haiku-4-5", 1, 1.25, 2},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p := c.Lookup(tt.model)
			assert.Equal(t, tt.wantInput, p.InputPerMTok)
			assert.Equal(t, tt.want5m, p.CacheWrite5mPerMTok)
			assert.Equal(t, tt.want1h, p.CacheWrite1hPerMTok)
		})
	}
}

func TestCatalogLookup_UnknownModel(t *testing.T) {
	c := NewCatalog()

	p := c.Lookup("foo-bar")
	// Conservative defaults so unknown models never undercount.
	assert.Equal(t, c.Unknown(), p)
	assert.Equal(t, 15.0, p.InputPerMTok)
}

func TestCatalogLookup_FamilyMatch(t *testing.T) {
	c := NewCatalog()

	// A dated model without an exact entry matches its family prefix.
	p := c.Lookup("claude-sonnet-4-5-20260101")
	assert.Equal(t, 3.0, p.InputPerMTok)

	// Version-specific family beats the broad family.
	p = c.Lookup("claude-opus-4-5-20260101")
	assert.Equal(t, 5.0, p.InputPerMTok)
}

func TestCatalogSupports(t *testing.T) {
	c := NewCatalog()

	assert.True(t, c.Supports("claude-3-haiku-20240307"))
	assert.True(t, c.Supports("claude-sonnet-4-5-20260101"))
	assert.False(t, c.Supports("foo-bar"))
	assert.False(t, c.Supports(""))
}

func TestCatalogAllEntries_DefensiveCopy(t *testing.T) {
	c := NewCatalog()

	entries := c.AllEntries()
	assert.Contains(t, entries, UnknownModelID)

	entries["claude-3-haiku-20240307"] = PriceEntry{InputPerMTok: 999}
	delete(entries, "claude-opus-4-20250514")

	assert.Equal(t, 0.25, c.Lookup("claude-3-haiku-20240307").InputPerMTok)
	assert.Equal(t, 15.0, c.Lookup("claude-opus-4-20250514").InputPerMTok)
}

func TestNewCatalogFromEntries(t *testing.T) {
	fixture := map[string]PriceEntry{
		"test-model": {InputPerMTok: 1, OutputPerMTok: 2},
	}
	c := NewCatalogFromEntries(fixture, PriceEntry{InputPerMTok: 10})

	assert.Equal(t, 1.0, c.Lookup("test-model").InputPerMTok)
	assert.Equal(t, 10.0, c.Lookup("other").InputPerMTok)

	// The catalog owns its copy of the fixture.
	fixture["test-model"] = PriceEntry{InputPerMTok: 500}
	assert.Equal(t, 1.0, c.Lookup("test-model").InputPerMTok)
}
