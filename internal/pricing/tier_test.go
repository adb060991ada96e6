package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Boundary(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    Tier
	}{
		{"zero", 0, TierShort},
		{"negative", -60, TierShort},
		{"one second", 1, TierShort},
		{"exactly 300", 300, TierShort},
		{"301", 301, TierLong},
		{"one hour", 3600, TierLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.seconds))
		})
	}
}

func TestClassifyString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Tier
	}{
		{"empty", "", TierShort},
		{"whitespace", "   ", TierShort},
		{"not a number", "soon", TierShort},
		{"zero", "0", TierShort},
		{"negative", "-5", TierShort},
		{"boundary", "300", TierShort},
		{"just past boundary", "301", TierLong},
		{"float", "300.5", TierLong},
		{"hour", "3600", TierLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyString(tt.raw))
		})
	}
}

func TestParseTier(t *testing.T) {
	tier, ok := ParseTier("5m")
	assert.True(t, ok)
	assert.Equal(t, TierShort, tier)

	tier, ok = ParseTier(" 1h ")
	assert.True(t, ok)
	assert.Equal(t, TierLong, tier)

	_, ok = ParseTier("2h")
	assert.False(t, ok)

	_, ok = ParseTier("")
	assert.False(t, ok)
}

func TestTierValid(t *testing.T) {
	assert.True(t, TierShort.Valid())
	assert.True(t, TierLong.Valid())
	assert.False(t, Tier("").Valid())
	assert.False(t, Tier("10m").Valid())
}
