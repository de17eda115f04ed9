package catalog

import "github.com/shopspring/decimal"

// Round2 rounds a monetary amount to 2 decimal places, half away from zero.
//
// The checkout rounds after every individual mutation (round-then-
// accumulate), so cumulative behavior depends on this helper being applied
// consistently rather than once at the end. Routing through decimal avoids
// the drift of repeated float64 arithmetic on cent amounts.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
