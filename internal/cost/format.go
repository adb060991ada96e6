package cost

import (
	"strconv"
	"strings"
)

// FormatUSD renders an amount with precision scaled to its size: two decimal
// places at a dollar and above, four down to a tenth of a cent, six below
// that. Trailing zeros are trimmed down to a minimum of two decimals, so
// $0.25 rather than $0.2500.
func FormatUSD(amount float64) string {
	return FormatUSDPrecision(amount, -1)
}

// FormatUSDPrecision renders an amount with an explicit number of decimal
// places. A negative precision selects the size-scaled default, which also
// trims trailing zeros; an explicit precision renders exactly that many
// decimals.
func FormatUSDPrecision(amount float64, precision int) string {
	if precision >= 0 {
		return "$" + strconv.FormatFloat(amount, 'f', precision, 64)
	}

	switch {
	case amount >= 1:
		precision = 2
	case amount >= 0.001:
		precision = 4
	default:
		precision = 6
	}
	return "$" + trimTrailingZeros(strconv.FormatFloat(amount, 'f', precision, 64))
}

// formatCosts renders every cost category with the size-scaled default
// precision.
func formatCosts(c Costs) Formatted {
	return Formatted{
		Input:      FormatUSD(c.Input),
		Output:     FormatUSD(c.Output),
		CacheWrite: FormatUSD(c.CacheWrite),
		CacheRead:  FormatUSD(c.CacheRead),
		Total:      FormatUSD(c.Total),
	}
}

// trimTrailingZeros drops trailing fractional zeros but keeps at least two
// decimal places.
func trimTrailingZeros(s string) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}
	end := len(s)
	for end > dot+3 && s[end-1] == '0' {
		end--
	}
	return s[:end]
}
