// Package pricing converts PT/YT price splits and maturities into
// annualized yields and back. Every function is total: degenerate inputs
// fail closed to 0 (or to par for the inverse) instead of surfacing NaN,
// so batch callers never special-case bad markets.
package pricing

import "math"

// DaysPerYear is the annualization day count used across the engine.
const DaysPerYear = 365.0

// FixedAPY is the annualized return, in percent, from buying PT at
// ptPrice (underlying units) and redeeming at par after daysToMaturity.
// Returns 0 when ptPrice is outside (0,1) or days is not positive.
func FixedAPY(ptPrice, daysToMaturity float64) float64 {
	if ptPrice <= 0 || ptPrice >= 1 || daysToMaturity <= 0 {
		return 0
	}
	return (math.Pow(1/ptPrice, DaysPerYear/daysToMaturity) - 1) * 100
}

// ImpliedAPY is the market's breakeven annualized yield, in percent,
// implied by the YT/PT price split. Returns 0 when ptPrice or days is
// not positive.
func ImpliedAPY(ytPrice, ptPrice, daysToMaturity float64) float64 {
	if ptPrice <= 0 || daysToMaturity <= 0 {
		return 0
	}
	return (math.Pow(1+ytPrice/ptPrice, DaysPerYear/daysToMaturity) - 1) * 100
}

// PTPriceFromImpliedAPY inverts an implied APY quote into a PT price in
// (0,1], for venues that expose rates but not token prices. Degenerate
// quotes (rate at or below -100%, non-positive days, overflow) price at
// par.
func PTPriceFromImpliedAPY(impliedAPYPct, days float64) float64 {
	if days <= 0 {
		return 1
	}
	base := 1 + impliedAPYPct/100
	if base <= 0 {
		return 1
	}
	pt := 1 / math.Pow(base, days/DaysPerYear)
	if pt <= 0 || pt > 1 || math.IsNaN(pt) {
		return 1
	}
	return pt
}
