// Package strategy projects PT, YT, LP, Hold and Loop outcomes for one
// what-if scenario and ranks them by final value.
package strategy

import (
	"fmt"
	"math"
	"sort"

	"pendlescope/internal/domain/models"
	"pendlescope/internal/services/pricing"
)

// YTFeeRate is the flat protocol fee on collected YT yield.
const YTFeeRate = 0.05

// Compare simulates each strategy over the holding period and ranks the
// outcomes descending by final value; ties keep input order. LP and Loop
// rows appear only when their inputs are present. A degenerate scenario
// returns the zero comparison.
func Compare(p models.ComparisonParams) models.StrategyComparison {
	if p.InvestmentUSD <= 0 || p.Days <= 0 || p.PTPrice <= 0 || p.PTPrice >= 1 {
		return models.StrategyComparison{}
	}
	ytPrice := p.YTPrice
	if ytPrice <= 0 {
		ytPrice = 1 - p.PTPrice
	}
	years := p.Days / pricing.DaysPerYear
	inv := p.InvestmentUSD

	outcomes := make([]models.StrategyOutcome, 0, 5)

	ptFinal := inv / p.PTPrice
	outcomes = append(outcomes, models.StrategyOutcome{
		Strategy:   models.StrategyPT,
		FinalValue: ptFinal,
		Profit:     ptFinal - inv,
		Detail:     fmt.Sprintf("buy at %.4f, redeem at par: %.2f%% fixed", p.PTPrice, pricing.FixedAPY(p.PTPrice, p.Days)),
	})

	leverage := 1 / ytPrice
	gross := inv * leverage * (p.FutureAPYPct / 100) * years
	net := gross * (1 - YTFeeRate)
	outcomes = append(outcomes, models.StrategyOutcome{
		Strategy:   models.StrategyYT,
		FinalValue: net,
		Profit:     net - inv,
		Detail:     fmt.Sprintf("%.1fx yield exposure at %.2f%% realized, %.0f%% fee on collected yield", leverage, p.FutureAPYPct, YTFeeRate*100),
	})

	if p.LPAPYPct != nil {
		lpFinal := inv * (1 + *p.LPAPYPct/100*years)
		outcomes = append(outcomes, models.StrategyOutcome{
			Strategy:   models.StrategyLP,
			FinalValue: lpFinal,
			Profit:     lpFinal - inv,
			Detail:     fmt.Sprintf("pool yield %.2f%% over %.0f days", *p.LPAPYPct, p.Days),
		})
	}

	holdFinal := inv * (1 + p.FutureAPYPct/100*years)
	outcomes = append(outcomes, models.StrategyOutcome{
		Strategy:   models.StrategyHold,
		FinalValue: holdFinal,
		Profit:     holdFinal - inv,
		Detail:     fmt.Sprintf("hold the asset at %.2f%% realized", p.FutureAPYPct),
	})

	if p.Loop != nil {
		loopFinal := inv * math.Pow(1+p.Loop.EffectiveAPYPct/100, years)
		outcomes = append(outcomes, models.StrategyOutcome{
			Strategy:   models.StrategyLoop,
			FinalValue: loopFinal,
			Profit:     loopFinal - inv,
			Detail:     fmt.Sprintf("%.1fx safe leverage compounding at %.2f%% effective", p.Loop.SafeLeverage, p.Loop.EffectiveAPYPct),
		})
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].FinalValue > outcomes[j].FinalValue
	})

	return models.StrategyComparison{
		Outcomes:     outcomes,
		Winner:       outcomes[0].Strategy,
		RunnerUp:     outcomes[1].Strategy,
		AdvantageUSD: outcomes[0].FinalValue - outcomes[1].FinalValue,
	}
}
