package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   string
	}{
		{"zero", 0, "$0.00"},
		{"dollar range two decimals", 12.3456, "$12.35"},
		{"exactly one", 1.0, "$1.00"},
		{"round dollars keep two decimals", 30.0, "$30.00"},
		{"quarter trims trailing zeros", 0.25, "$0.25"},
		{"cent range four decimals", 0.12345, "$0.1235"},
		{"tenth of a cent", 0.001, "$0.001"},
		{"sub-millicent six decimals", 0.000123456, "$0.000123"},
		{"tiny", 0.0000009, "$0.000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUSD(tt.amount))
		})
	}
}

func TestFormatUSDPrecision_Explicit(t *testing.T) {
	assert.Equal(t, "$0.2500", FormatUSDPrecision(0.25, 4))
	assert.Equal(t, "$1.00", FormatUSDPrecision(1, 2))
	assert.Equal(t, "$2", FormatUSDPrecision(1.6, 0))
}

func TestFormatUSDPrecision_NegativeSelectsDefault(t *testing.T) {
	assert.Equal(t, FormatUSD(0.25), FormatUSDPrecision(0.25, -1))
}
