package signal

import (
	"math"
	"testing"

	"pendlescope/internal/domain/models"
)

const eps = 1e-9

func TestClassifySpread(t *testing.T) {
	cases := []struct {
		underlying, implied float64
		want                models.SignalKind
	}{
		{5, 7, models.SignalPTFixed},
		{5, 5.2, models.SignalNeutral},
		{7, 5, models.SignalYTLeverage},
		{5, 5.5, models.SignalNeutral},  // exactly at the deadband edge
		{5, 4.5, models.SignalNeutral},  // exactly at the other edge
		{5, 5.51, models.SignalPTFixed}, // just past it
		{5, 4.49, models.SignalYTLeverage},
	}
	for _, c := range cases {
		got := Classify(c.underlying, c.implied)
		if got.Kind != c.want {
			t.Errorf("Classify(%v, %v) = %s, want %s", c.underlying, c.implied, got.Kind, c.want)
		}
		if got.Rationale == "" {
			t.Errorf("Classify(%v, %v) produced no rationale", c.underlying, c.implied)
		}
	}
}

func TestMeanReversionUndefined(t *testing.T) {
	if _, ok := MeanReversion(5, 5, 0); ok {
		t.Fatalf("flat series must not grade")
	}
	if _, ok := MeanReversion(5, 0, 1); ok {
		t.Fatalf("zero mean must not grade")
	}
}

func TestMeanReversionBands(t *testing.T) {
	cases := []struct {
		current, avg, std float64
		wantZ             float64
		wantStrength      models.ReversionStrength
		wantFavors        models.SignalKind
	}{
		{8, 5, 1.5, 2.0, models.ReversionStrong, models.SignalPTFixed},
		{3.5, 5, 1.5, -1.0, models.ReversionMild, models.SignalYTLeverage},
		{5.4, 5, 1.5, 0.26666666666666666, models.ReversionNone, models.SignalNeutral},
		{6.5, 5, 1, 1.5, models.ReversionMild, models.SignalPTFixed}, // band edges stay mild
		{5.5, 5, 1, 0.5, models.ReversionNone, models.SignalNeutral}, // and none
	}
	for _, c := range cases {
		mr, ok := MeanReversion(c.current, c.avg, c.std)
		if !ok {
			t.Fatalf("MeanReversion(%v, %v, %v) unexpectedly undefined", c.current, c.avg, c.std)
		}
		if math.Abs(mr.ZScore-c.wantZ) > eps {
			t.Errorf("z = %v, want %v", mr.ZScore, c.wantZ)
		}
		if mr.Strength != c.wantStrength {
			t.Errorf("strength for z=%v is %s, want %s", c.wantZ, mr.Strength, c.wantStrength)
		}
		if mr.Favors != c.wantFavors {
			t.Errorf("favors for z=%v is %s, want %s", c.wantZ, mr.Favors, c.wantFavors)
		}
	}
}

func TestCompareSharpeCapsLeverage(t *testing.T) {
	got := CompareSharpe(8, 5, 6, 2, 90)
	if math.Abs(got.PT.Sharpe-12.5) > eps {
		t.Fatalf("pt sharpe = %v, want 12.5", got.PT.Sharpe)
	}
	if got.YTLeverage != YTLeverageCap {
		t.Fatalf("a 90-day 6%% market implies tiny PT discount, leverage must cap at %v, got %v", YTLeverageCap, got.YTLeverage)
	}
	if math.Abs(got.YT.ExcessReturnPct+10) > eps {
		t.Fatalf("yt excess = %v, want -10", got.YT.ExcessReturnPct)
	}
	if math.Abs(got.YT.Sharpe+5) > eps {
		t.Fatalf("yt sharpe = %v, want -5", got.YT.Sharpe)
	}
	if got.Preferred != models.SignalPTFixed {
		t.Fatalf("preferred = %s, want pt_fixed", got.Preferred)
	}
}

func TestCompareSharpeUncappedLeverage(t *testing.T) {
	// 40% implied over a full year discounts PT to 1/1.4, leverage 3.5x.
	got := CompareSharpe(8, 45, 40, 4, 365)
	if math.Abs(got.YTLeverage-3.5) > eps {
		t.Fatalf("leverage = %v, want 3.5", got.YTLeverage)
	}
	if math.Abs(got.YT.ExcessReturnPct-17.5) > eps {
		t.Fatalf("yt excess = %v, want 17.5", got.YT.ExcessReturnPct)
	}
}

func TestCompareSharpeZeroVolatility(t *testing.T) {
	got := CompareSharpe(8, 5, 6, 0, 90)
	if got.PT.Sharpe != 0 || got.YT.Sharpe != 0 {
		t.Fatalf("zero vol must score 0, got pt=%v yt=%v", got.PT.Sharpe, got.YT.Sharpe)
	}
	if got.Preferred != models.SignalNeutral {
		t.Fatalf("preferred = %s, want neutral on a dead tie", got.Preferred)
	}
}

func quote(name, addr string, impliedPct float64) models.MarketQuote {
	return models.MarketQuote{Name: name, Address: addr, ChainID: 1, ImpliedAPYPct: impliedPct}
}

func TestCrossAssetStances(t *testing.T) {
	peers := []models.MarketQuote{
		quote("PT-rsETH-26SEP2025", "0x1", 3.5),
		quote("PT-weETH-27JUN2025", "0x2", 4.5),
		quote("PT-sUSDe-25SEP2025", "0x3", 20), // different category, ignored
	}
	m := quote("PT-wstETH-26DEC2024", "0xa", 5)
	got, ok := CrossAsset(m, peers)
	if !ok {
		t.Fatalf("expected a comparison")
	}
	if got.PeerCount != 2 || math.Abs(got.AvgImpliedPct-4) > eps {
		t.Fatalf("peer aggregation wrong: %+v", got)
	}
	if got.Stance != models.StanceInLine {
		t.Fatalf("diff of exactly 1pp must stay in line, got %s", got.Stance)
	}

	m.ImpliedAPYPct = 5.3
	if got, _ := CrossAsset(m, peers); got.Stance != models.StanceRichToPeers {
		t.Fatalf("diff 1.3pp should read rich, got %s", got.Stance)
	}
	m.ImpliedAPYPct = 2.5
	if got, _ := CrossAsset(m, peers); got.Stance != models.StanceCheapToPeers {
		t.Fatalf("diff -1.5pp should read cheap, got %s", got.Stance)
	}
}

func TestCrossAssetInsufficientPeers(t *testing.T) {
	m := quote("PT-wstETH-26DEC2024", "0xa", 5)
	peers := []models.MarketQuote{quote("PT-rsETH-26SEP2025", "0x1", 3.5)}
	if _, ok := CrossAsset(m, peers); ok {
		t.Fatalf("one categorized peer must not compare")
	}
	if _, ok := CrossAsset(quote("EXOTIC-TOKEN", "0xb", 5), peers); ok {
		t.Fatalf("uncategorized market must not compare")
	}
}

func TestCrossAssetExcludesSelf(t *testing.T) {
	m := quote("PT-wstETH-26DEC2024", "0xa", 100)
	peers := []models.MarketQuote{
		m, // the market itself shows up in the snapshot list
		quote("PT-rsETH-26SEP2025", "0x1", 3.5),
		quote("PT-weETH-27JUN2025", "0x2", 4.5),
	}
	got, ok := CrossAsset(m, peers)
	if !ok {
		t.Fatalf("expected a comparison")
	}
	if got.PeerCount != 2 {
		t.Fatalf("self must not count as a peer, got %d", got.PeerCount)
	}
	if math.Abs(got.AvgImpliedPct-4) > eps {
		t.Fatalf("self leaked into the average: %v", got.AvgImpliedPct)
	}
}

func TestVerifyUnderlying(t *testing.T) {
	sources := map[string]float64{"eth_liquid_staking": 3.2}
	if got := VerifyUnderlying("btc_wrapped", 5, sources); got.Outcome != models.VerifyUnsourced {
		t.Fatalf("missing source must report unverified, got %s", got.Outcome)
	}
	if got := VerifyUnderlying("eth_liquid_staking", 3.5, sources); got.Outcome != models.VerifyMatch {
		t.Fatalf("0.3pp delta should match, got %s", got.Outcome)
	}
	if got := VerifyUnderlying("eth_liquid_staking", 4.2, sources); got.Outcome != models.VerifyMatch {
		t.Fatalf("delta at the tolerance edge should match, got %s", got.Outcome)
	}
	got := VerifyUnderlying("eth_liquid_staking", 5.0, sources)
	if got.Outcome != models.VerifyDivergent {
		t.Fatalf("1.8pp delta should diverge, got %s", got.Outcome)
	}
	if math.Abs(got.DeltaPct-1.8) > eps {
		t.Fatalf("delta = %v, want 1.8", got.DeltaPct)
	}
}

func TestEvaluatePrecedence(t *testing.T) {
	highRisk := &models.WatermarkAnalysis{RiskLevel: models.RiskHigh}
	loop := &models.LoopOpportunity{Platform: "Morpho", LoopMetrics: models.LoopMetrics{SafeLeverage: 5, EffectiveAPYPct: 30}}

	in := EvaluationInput{Quote: models.MarketQuote{Name: "points-only"}, Watermark: highRisk, Loop: loop}
	if got := Evaluate(in); got.Kind != models.SignalPurePoints {
		t.Fatalf("zero-yield market must classify pure points, got %s", got.Kind)
	}

	q := models.MarketQuote{Name: "PT-wstETH", UnderlyingAPYPct: 5, ImpliedAPYPct: 7, PoolAPYPct: 9}
	in = EvaluationInput{Quote: q, FixedAPYPct: 6, Watermark: highRisk, Loop: loop}
	if got := Evaluate(in); got.Kind != models.SignalBelowWatermark {
		t.Fatalf("high watermark risk must outrank loop, got %s", got.Kind)
	}

	in.Watermark = &models.WatermarkAnalysis{RiskLevel: models.RiskMedium}
	if got := Evaluate(in); got.Kind != models.SignalLoop {
		t.Fatalf("loop must outrank LP, got %s", got.Kind)
	}

	in.Loop = nil
	if got := Evaluate(in); got.Kind != models.SignalLPBest {
		t.Fatalf("pool 9%% over fixed 6%% and underlying 5%% must read lp_best, got %s", got.Kind)
	}

	in.Quote.PoolAPYPct = 5.5
	if got := Evaluate(in); got.Kind != models.SignalPTFixed {
		t.Fatalf("pool below fixed falls through to the spread read, got %s", got.Kind)
	}

	in.Quote.ImpliedAPYPct = 5.2
	if got := Evaluate(in); got.Kind != models.SignalNeutral {
		t.Fatalf("inside the deadband must read neutral, got %s", got.Kind)
	}
}
