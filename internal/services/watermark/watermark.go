// Package watermark scans a market's yield history for sudden drops and
// near-zero stretches, then folds in documented incidents to grade the
// risk of buying yield that may never accrue.
package watermark

import (
	"math"

	"pendlescope/internal/catalog"
	"pendlescope/internal/domain/models"
)

const (
	// BreachDropPct flags a day-over-day collapse in underlying yield.
	BreachDropPct = -50.0

	// SevereDropPct upgrades a breach to high severity.
	SevereDropPct = -75.0

	// NearZeroPct is the onset threshold for a risk period.
	NearZeroPct = 0.5

	// DrawdownRiskPct lifts an otherwise quiet history to medium risk.
	DrawdownRiskPct = 5.0
)

const daysPerYear = 365.0

// Analyze walks the series chronologically once: it compounds a daily
// cumulative-return index (starting at 1.0) to track peak and drawdown,
// flags day-over-day breaches, opens a risk period whenever the APY
// crosses below the near-zero line, and attaches documented incidents for
// the market name regardless of what the scan found. Known facts outrank
// inference: a matched incident alone forces high risk.
func Analyze(series models.YieldSeries, marketName, chain string) models.WatermarkAnalysis {
	out := models.WatermarkAnalysis{}
	cum, peak := 1.0, 1.0
	var maxDD float64
	var open *models.YieldRiskPeriod

	for i, p := range series {
		apy := p.UnderlyingAPY * 100
		cum *= 1 + apy/100/daysPerYear
		if cum > peak {
			peak = cum
		}
		if dd := (peak - cum) / peak; dd > maxDD {
			maxDD = dd
		}

		if i > 0 {
			prev := series[i-1].UnderlyingAPY * 100
			change := relChange(prev, apy)
			if change < BreachDropPct || apy < 0 {
				out.Breaches = append(out.Breaches, models.WatermarkBreach{
					Date:      p.Date,
					FromAPY:   prev,
					ToAPY:     apy,
					ChangePct: change,
					Severity:  severity(apy, change),
				})
			}
			if open == nil && apy < NearZeroPct && prev >= NearZeroPct {
				open = &models.YieldRiskPeriod{Kind: periodKind(apy), StartDate: p.Date, MinAPY: apy}
				continue
			}
		}
		if open != nil {
			if apy < open.MinAPY {
				open.MinAPY = apy
			}
			if apy < 0 {
				open.Kind = models.RiskNegativeYield
			}
			if apy >= NearZeroPct {
				open.EndDate = p.Date
				out.RiskPeriods = append(out.RiskPeriods, *open)
				open = nil
			}
		}
	}
	if open != nil {
		// still open at series end, EndDate stays zero
		out.RiskPeriods = append(out.RiskPeriods, *open)
	}

	out.MaxDrawdownPct = maxDD * 100
	out.KnownEvents = catalog.IncidentsFor(marketName, chain)
	out.RiskLevel = riskLevel(out)
	return out
}

func relChange(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / math.Abs(prev) * 100
}

func severity(apy, changePct float64) models.BreachSeverity {
	switch {
	case apy < 0:
		return models.BreachCritical
	case changePct < SevereDropPct:
		return models.BreachHigh
	default:
		return models.BreachMedium
	}
}

func periodKind(apy float64) models.RiskPeriodKind {
	if apy < 0 {
		return models.RiskNegativeYield
	}
	return models.RiskNearZeroYield
}

func riskLevel(a models.WatermarkAnalysis) models.RiskLevel {
	critical := false
	for _, b := range a.Breaches {
		if b.Severity == models.BreachCritical {
			critical = true
			break
		}
	}
	switch {
	case critical || len(a.KnownEvents) > 0:
		return models.RiskHigh
	case len(a.Breaches) > 0 || a.MaxDrawdownPct > DrawdownRiskPct:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
