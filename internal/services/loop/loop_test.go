package loop

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestMetricsKnownScenario(t *testing.T) {
	m, ok := Metrics(20, 0.9, 5)
	if !ok {
		t.Fatalf("expected ok")
	}
	if math.Abs(m.MaxLeverage-10) > eps {
		t.Errorf("max leverage = %v, want 10", m.MaxLeverage)
	}
	if math.Abs(m.SafeLeverage-9.1) > eps {
		t.Errorf("safe leverage = %v, want 9.1", m.SafeLeverage)
	}
	if math.Abs(m.EffectiveAPYPct-141.5) > eps {
		t.Errorf("effective apy = %v, want 141.5", m.EffectiveAPYPct)
	}
	if math.Abs(m.APYBoostPct-121.5) > eps {
		t.Errorf("boost = %v, want 121.5", m.APYBoostPct)
	}
	if math.Abs(m.LiquidationBufferPct-10) > eps {
		t.Errorf("buffer = %v, want 10", m.LiquidationBufferPct)
	}
}

func TestMetricsLTVBounds(t *testing.T) {
	for _, ltv := range []float64{0, 1, -0.5, 1.5} {
		if _, ok := Metrics(20, ltv, 5); ok {
			t.Errorf("ltv %v must not compute", ltv)
		}
	}
}

func TestMetricsNegativeCarry(t *testing.T) {
	// Borrow cost above the fixed rate turns the loop against the holder;
	// the math still computes, only discovery filters it out.
	m, ok := Metrics(2, 0.5, 10)
	if !ok {
		t.Fatalf("expected ok")
	}
	if math.Abs(m.EffectiveAPYPct+5.2) > eps {
		t.Errorf("effective apy = %v, want -5.2", m.EffectiveAPYPct)
	}
	if math.Abs(m.APYBoostPct+7.2) > eps {
		t.Errorf("boost = %v, want -7.2", m.APYBoostPct)
	}
}

func TestFindOpportunityCuratedMatch(t *testing.T) {
	opp, ok := FindOpportunity("PT-sUSDe-25SEP2025", 1, 10)
	if !ok {
		t.Fatalf("expected an opportunity")
	}
	if opp.Platform != "Morpho" || opp.CollateralSymbol != "PT-sUSDe" {
		t.Fatalf("unexpected venue %+v", opp)
	}
	if math.Abs(opp.EffectiveAPYPct-29.349999999999994) > eps {
		t.Fatalf("effective apy = %v", opp.EffectiveAPYPct)
	}
	if math.Abs(opp.APYBoostPct-19.349999999999994) > eps {
		t.Fatalf("boost = %v", opp.APYBoostPct)
	}
}

func TestFindOpportunityRateFloor(t *testing.T) {
	if _, ok := FindOpportunity("PT-sUSDe-25SEP2025", 1, 2.9); ok {
		t.Fatalf("fixed rate below the floor must not surface")
	}
}

func TestFindOpportunityBoostFloor(t *testing.T) {
	// 6.6% fixed against a 6.5% borrow leaves a ~0.55pp boost.
	if _, ok := FindOpportunity("PT-sUSDe-25SEP2025", 1, 6.6); ok {
		t.Fatalf("insignificant boost must not surface")
	}
}

func TestFindOpportunityChainAndName(t *testing.T) {
	if _, ok := FindOpportunity("PT-sUSDe-25SEP2025", 42161, 10); ok {
		t.Fatalf("the sUSDe venues are mainnet-only")
	}
	if _, ok := FindOpportunity("UNKNOWN-ASSET", 1, 10); ok {
		t.Fatalf("unknown collateral must not surface")
	}
}
