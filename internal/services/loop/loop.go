// Package loop prices the economics of borrowing against PT collateral to
// re-lever a fixed-rate position, and surfaces curated venues where the
// math clears the significance bar.
package loop

import (
	"pendlescope/internal/catalog"
	"pendlescope/internal/domain/models"
)

const (
	// SafetyMargin scales usable leverage toward the liquidation maximum;
	// the missing 10% is the standing buffer against rate moves.
	SafetyMargin = 0.9

	// MinFixedAPYPct is the smallest fixed rate worth looping at all.
	MinFixedAPYPct = 3.0

	// MinBoostPct is the smallest APY pickup worth surfacing.
	MinBoostPct = 1.5
)

// Metrics computes the leverage economics for one collateral position:
// leveraged fixed income minus the cost of the borrowed leg. ok is false
// when ltv is outside (0,1).
func Metrics(ptFixedPct, ltv, borrowRatePct float64) (models.LoopMetrics, bool) {
	if ltv <= 0 || ltv >= 1 {
		return models.LoopMetrics{}, false
	}
	maxLev := 1 / (1 - ltv)
	safeLev := 1 + SafetyMargin*(maxLev-1)
	effective := ptFixedPct*safeLev - borrowRatePct*(safeLev-1)
	return models.LoopMetrics{
		MaxLeverage:          maxLev,
		SafeLeverage:         safeLev,
		EffectiveAPYPct:      effective,
		APYBoostPct:          effective - ptFixedPct,
		LiquidationBufferPct: (1 - ltv) * 100,
	}, true
}

// FindOpportunity matches the market against the curated venue table and
// returns the first pair whose loop clears both significance thresholds.
// ok is false when the rate is too small to loop or no venue qualifies.
func FindOpportunity(marketName string, chainID int, ptFixedPct float64) (models.LoopOpportunity, bool) {
	if ptFixedPct < MinFixedAPYPct {
		return models.LoopOpportunity{}, false
	}
	for _, pair := range catalog.PairsFor(marketName, chainID) {
		m, ok := Metrics(ptFixedPct, pair.LTV, pair.BorrowRatePct)
		if !ok || m.APYBoostPct < MinBoostPct {
			continue
		}
		return models.LoopOpportunity{
			Platform:         pair.Platform,
			CollateralSymbol: pair.CollateralSymbol,
			BorrowSymbol:     pair.BorrowSymbol,
			LTV:              pair.LTV,
			BorrowRatePct:    pair.BorrowRatePct,
			LoopMetrics:      m,
		}, true
	}
	return models.LoopOpportunity{}, false
}
