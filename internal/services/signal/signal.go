// Package signal turns market quotes and series statistics into the one
// actionable classification per market, plus the mean-reversion, Sharpe
// and cross-asset reads behind it.
package signal

import (
	"fmt"
	"math"

	"pendlescope/internal/catalog"
	"pendlescope/internal/domain/models"
	"pendlescope/internal/services/pricing"
)

const (
	// RiskFreeRatePct anchors both Sharpe legs.
	RiskFreeRatePct = 3.0

	// DeadbandPct keeps PT/YT flips from flickering on spread noise.
	DeadbandPct = 0.5

	// Z-score bands for mean-reversion grading.
	StrongReversionZ = 1.5
	MildReversionZ   = 0.5

	// PTVolFactor shrinks series vol for the fixed-rate leg: locking the
	// rate removes most of the yield variance.
	PTVolFactor = 0.2

	// YTLeverageCap bounds the leverage read from the PT discount.
	YTLeverageCap = 10.0

	// CrossAssetBandPct is the in-line band around the peer average.
	CrossAssetBandPct = 1.0

	// MinCategoryPeers is the fewest categorized peers a comparison needs.
	MinCategoryPeers = 2

	// VerifyTolerancePct bounds reported-vs-source APY agreement.
	VerifyTolerancePct = 1.0
)

// EvaluationInput carries everything the per-market classification needs.
// Optional sections are nil when upstream analyzers had nothing to say.
type EvaluationInput struct {
	Quote       models.MarketQuote
	FixedAPYPct float64
	Watermark   *models.WatermarkAnalysis
	Loop        *models.LoopOpportunity
}

// Evaluate assigns the single per-market signal. Precedence is fixed: a
// pure points market outranks everything (there is no yield to read),
// then a high-risk watermark, then a surfaced loop, then an LP pool
// beating both sides, then the plain spread classification.
func Evaluate(in EvaluationInput) models.Signal {
	q := in.Quote
	if q.UnderlyingAPYPct == 0 && q.ImpliedAPYPct == 0 {
		return models.Signal{
			Kind:      models.SignalPurePoints,
			Rationale: "no underlying or implied yield: points/incentive market, value rides on airdrop odds",
		}
	}
	if in.Watermark != nil && in.Watermark.RiskLevel == models.RiskHigh {
		return models.Signal{
			Kind:      models.SignalBelowWatermark,
			Rationale: "yield history shows high watermark risk: YT accrues nothing until the mark is recovered",
		}
	}
	if in.Loop != nil {
		return models.Signal{
			Kind:      models.SignalLoop,
			Rationale: fmt.Sprintf("%s loop at %.1fx safe leverage lifts the fixed rate to %.1f%%", in.Loop.Platform, in.Loop.SafeLeverage, in.Loop.EffectiveAPYPct),
		}
	}
	if q.PoolAPYPct > 0 && q.PoolAPYPct > in.FixedAPYPct && q.PoolAPYPct > q.UnderlyingAPYPct {
		return models.Signal{
			Kind:      models.SignalLPBest,
			Rationale: fmt.Sprintf("pool APY %.2f%% beats both the %.2f%% fixed rate and the %.2f%% underlying", q.PoolAPYPct, in.FixedAPYPct, q.UnderlyingAPYPct),
		}
	}
	return Classify(q.UnderlyingAPYPct, q.ImpliedAPYPct)
}

// Classify reads the implied-minus-underlying spread through the deadband.
// Above it the market prices more yield than the asset generates today
// (lock the fixed rate); below it future yield may be underpriced.
func Classify(underlyingPct, impliedPct float64) models.Signal {
	diff := impliedPct - underlyingPct
	switch {
	case diff > DeadbandPct:
		return models.Signal{
			Kind:      models.SignalPTFixed,
			Rationale: fmt.Sprintf("implied %.2f%% runs %.2fpp above underlying %.2f%%: lock the fixed rate", impliedPct, diff, underlyingPct),
		}
	case diff < -DeadbandPct:
		return models.Signal{
			Kind:      models.SignalYTLeverage,
			Rationale: fmt.Sprintf("implied %.2f%% sits %.2fpp below underlying %.2f%%: future yield looks underpriced", impliedPct, -diff, underlyingPct),
		}
	default:
		return models.Signal{
			Kind:      models.SignalNeutral,
			Rationale: fmt.Sprintf("implied %.2f%% within %.1fpp of underlying %.2f%%: fairly priced", impliedPct, DeadbandPct, underlyingPct),
		}
	}
}

// MeanReversion grades the current implied APY against its historical
// mean. ok is false when the series is flat (stdDev 0) or the mean itself
// is 0 (no baseline to revert to).
func MeanReversion(currentPct, avgPct, stdDev float64) (models.MeanReversion, bool) {
	if stdDev == 0 || avgPct == 0 {
		return models.MeanReversion{}, false
	}
	z := (currentPct - avgPct) / stdDev
	abs := math.Abs(z)
	mr := models.MeanReversion{ZScore: z}
	switch {
	case abs > StrongReversionZ:
		mr.Strength = models.ReversionStrong
	case abs > MildReversionZ:
		mr.Strength = models.ReversionMild
	default:
		mr.Strength = models.ReversionNone
	}
	switch {
	case mr.Strength == models.ReversionNone:
		mr.Favors = models.SignalNeutral
		mr.Rationale = fmt.Sprintf("implied %.2f%% near its %.2f%% mean (z=%.2f)", currentPct, avgPct, z)
	case z > 0:
		mr.Favors = models.SignalPTFixed
		mr.Rationale = fmt.Sprintf("implied %.2f%% is %.1f sigma above its %.2f%% mean: reversion favors locking PT", currentPct, abs, avgPct)
	default:
		mr.Favors = models.SignalYTLeverage
		mr.Rationale = fmt.Sprintf("implied %.2f%% is %.1f sigma below its %.2f%% mean: reversion favors YT", currentPct, abs, avgPct)
	}
	return mr, true
}

// CompareSharpe sizes PT against levered YT over a shared risk-free
// anchor. volatility is the dispersion of the underlying APY series in
// percent points; days scale the PT discount into YT leverage. A
// zero-volatility leg scores 0, never Inf. Heuristic only: APY dispersion
// is not price vol and the leverage read ignores YT carry decay.
func CompareSharpe(ptFixedPct, underlyingPct, impliedPct, volatility, days float64) models.SharpeComparison {
	ptVol := PTVolFactor * volatility
	pt := models.SharpeLeg{ExcessReturnPct: ptFixedPct - RiskFreeRatePct, Volatility: ptVol}
	if ptVol > 0 {
		pt.Sharpe = pt.ExcessReturnPct / ptVol
	}

	leverage := YTLeverageCap
	if ptPrice := pricing.PTPriceFromImpliedAPY(impliedPct, days); ptPrice < 1 {
		leverage = math.Min(1/(1-ptPrice), YTLeverageCap)
	}
	yt := models.SharpeLeg{ExcessReturnPct: (underlyingPct - impliedPct) * leverage, Volatility: volatility}
	if volatility > 0 {
		yt.Sharpe = yt.ExcessReturnPct / volatility
	}

	out := models.SharpeComparison{PT: pt, YT: yt, YTLeverage: leverage}
	switch {
	case pt.Sharpe > yt.Sharpe:
		out.Preferred = models.SignalPTFixed
	case yt.Sharpe > pt.Sharpe:
		out.Preferred = models.SignalYTLeverage
	default:
		out.Preferred = models.SignalNeutral
	}
	return out
}

// CrossAsset positions a market's implied APY against peers sharing its
// curated asset category. ok is false when the asset is uncategorized or
// fewer than MinCategoryPeers other markets share the category.
func CrossAsset(market models.MarketQuote, peers []models.MarketQuote) (models.CrossAssetComparison, bool) {
	cat, ok := catalog.CategoryOf(market.Name)
	if !ok {
		return models.CrossAssetComparison{}, false
	}
	var sum float64
	var count int
	for _, p := range peers {
		if p.Key() == market.Key() {
			continue
		}
		pc, pok := catalog.CategoryOf(p.Name)
		if !pok || pc.Name != cat.Name {
			continue
		}
		sum += p.ImpliedAPYPct
		count++
	}
	if count < MinCategoryPeers {
		return models.CrossAssetComparison{}, false
	}
	avg := sum / float64(count)
	diff := market.ImpliedAPYPct - avg
	out := models.CrossAssetComparison{
		Category:      cat.Name,
		PeerCount:     count,
		AvgImpliedPct: avg,
		DiffPct:       diff,
	}
	switch {
	case diff > CrossAssetBandPct:
		out.Stance = models.StanceRichToPeers
		out.Rationale = fmt.Sprintf("implied %.2f%% runs %.2fpp above the %s peer average %.2f%%", market.ImpliedAPYPct, diff, cat.Name, avg)
	case diff < -CrossAssetBandPct:
		out.Stance = models.StanceCheapToPeers
		out.Rationale = fmt.Sprintf("implied %.2f%% sits %.2fpp below the %s peer average %.2f%%", market.ImpliedAPYPct, -diff, cat.Name, avg)
	default:
		out.Stance = models.StanceInLine
		out.Rationale = fmt.Sprintf("implied %.2f%% in line with the %s peer average %.2f%%", market.ImpliedAPYPct, cat.Name, avg)
	}
	return out, true
}

// VerifyUnderlying cross-checks the venue-reported underlying APY against
// a protocol-native source for the asset category. Categories without a
// source report unverified, a distinct outcome from both agreement and
// divergence.
func VerifyUnderlying(category string, reportedPct float64, sources map[string]float64) models.UnderlyingVerification {
	src, ok := sources[category]
	if !ok {
		return models.UnderlyingVerification{Outcome: models.VerifyUnsourced}
	}
	delta := reportedPct - src
	out := models.UnderlyingVerification{SourceAPYPct: src, DeltaPct: delta}
	if math.Abs(delta) <= VerifyTolerancePct {
		out.Outcome = models.VerifyMatch
	} else {
		out.Outcome = models.VerifyDivergent
	}
	return out
}
