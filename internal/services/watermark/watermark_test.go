package watermark

import (
	"math"
	"testing"
	"time"

	"pendlescope/internal/domain/models"
)

const eps = 1e-9

// dailySeries builds one fractional underlying-APY point per day.
func dailySeries(fracs ...float64) models.YieldSeries {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(models.YieldSeries, len(fracs))
	for i, f := range fracs {
		s[i] = models.YieldPoint{Date: start.AddDate(0, 0, i), UnderlyingAPY: f, ImpliedAPY: f}
	}
	return s
}

func TestQuietHistoryLowRisk(t *testing.T) {
	a := Analyze(dailySeries(0.04, 0.041, 0.04, 0.042, 0.04), "SYNTH-ASSET", "ethereum")
	if len(a.Breaches) != 0 || len(a.RiskPeriods) != 0 {
		t.Fatalf("quiet history flagged: %+v", a)
	}
	if a.MaxDrawdownPct != 0 {
		t.Fatalf("rising index cannot draw down, got %v", a.MaxDrawdownPct)
	}
	if a.RiskLevel != models.RiskLow {
		t.Fatalf("risk = %s, want low", a.RiskLevel)
	}
}

func TestSingleSharpDropIsHighSeverityMediumRisk(t *testing.T) {
	a := Analyze(dailySeries(0.10, 0.10, 0.01), "SYNTH-ASSET", "ethereum")
	if len(a.Breaches) != 1 {
		t.Fatalf("want exactly one breach, got %d", len(a.Breaches))
	}
	b := a.Breaches[0]
	if math.Abs(b.ChangePct+90) > eps {
		t.Fatalf("change = %v, want -90", b.ChangePct)
	}
	if b.FromAPY != 10 || b.ToAPY != 1 {
		t.Fatalf("breach endpoints %v -> %v", b.FromAPY, b.ToAPY)
	}
	if b.Severity != models.BreachHigh {
		t.Fatalf("a 90%% drop to positive yield is high severity, got %s", b.Severity)
	}
	if a.RiskLevel != models.RiskMedium {
		t.Fatalf("no critical breach and no incident caps risk at medium, got %s", a.RiskLevel)
	}
}

func TestNegativeYieldIsCritical(t *testing.T) {
	a := Analyze(dailySeries(0.05, -0.01), "SYNTH-ASSET", "ethereum")
	if len(a.Breaches) != 1 || a.Breaches[0].Severity != models.BreachCritical {
		t.Fatalf("negative yield must breach critical: %+v", a.Breaches)
	}
	if a.RiskLevel != models.RiskHigh {
		t.Fatalf("risk = %s, want high", a.RiskLevel)
	}
	if len(a.RiskPeriods) != 1 {
		t.Fatalf("want one risk period, got %d", len(a.RiskPeriods))
	}
	p := a.RiskPeriods[0]
	if p.Kind != models.RiskNegativeYield {
		t.Fatalf("period kind = %s, want negative_yield", p.Kind)
	}
	if !p.EndDate.IsZero() {
		t.Fatalf("period still open at series end must carry a zero EndDate, got %v", p.EndDate)
	}
}

func TestNearZeroPeriodOpensAndCloses(t *testing.T) {
	a := Analyze(dailySeries(0.008, 0.0045, 0.006), "SYNTH-ASSET", "ethereum")
	if len(a.Breaches) != 0 {
		t.Fatalf("a 44%% dip is not a breach: %+v", a.Breaches)
	}
	if len(a.RiskPeriods) != 1 {
		t.Fatalf("want one risk period, got %d", len(a.RiskPeriods))
	}
	p := a.RiskPeriods[0]
	if p.Kind != models.RiskNearZeroYield {
		t.Fatalf("kind = %s, want near_zero_yield", p.Kind)
	}
	wantStart := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	if !p.StartDate.Equal(wantStart) || !p.EndDate.Equal(wantEnd) {
		t.Fatalf("period span %v -> %v", p.StartDate, p.EndDate)
	}
	if math.Abs(p.MinAPY-0.45) > eps {
		t.Fatalf("min apy = %v, want 0.45", p.MinAPY)
	}
	if a.RiskLevel != models.RiskLow {
		t.Fatalf("a recovered dip alone stays low risk, got %s", a.RiskLevel)
	}
}

func TestRiskPeriodUpgradesWhenYieldGoesNegative(t *testing.T) {
	a := Analyze(dailySeries(0.008, 0.0045, -0.005, 0.008), "SYNTH-ASSET", "ethereum")
	if len(a.Breaches) != 1 || a.Breaches[0].Severity != models.BreachCritical {
		t.Fatalf("want one critical breach, got %+v", a.Breaches)
	}
	if len(a.RiskPeriods) != 1 {
		t.Fatalf("want one risk period, got %d", len(a.RiskPeriods))
	}
	p := a.RiskPeriods[0]
	if p.Kind != models.RiskNegativeYield {
		t.Fatalf("period dipping negative must upgrade, got %s", p.Kind)
	}
	if math.Abs(p.MinAPY+0.5) > eps {
		t.Fatalf("min apy = %v, want -0.5", p.MinAPY)
	}
	if p.EndDate.IsZero() {
		t.Fatalf("recovery above threshold must close the period")
	}
	if a.RiskLevel != models.RiskHigh {
		t.Fatalf("risk = %s, want high", a.RiskLevel)
	}
}

func TestKnownIncidentForcesHighRisk(t *testing.T) {
	a := Analyze(dailySeries(0.04, 0.041), "PT-ezETH-26DEC2024", "arbitrum")
	if len(a.KnownEvents) != 1 {
		t.Fatalf("expected the documented ezETH event, got %d", len(a.KnownEvents))
	}
	if len(a.Breaches) != 0 {
		t.Fatalf("quiet series should not breach")
	}
	if a.RiskLevel != models.RiskHigh {
		t.Fatalf("a documented incident outranks quiet statistics, got %s", a.RiskLevel)
	}
}

func TestDrawdownAloneLiftsToMedium(t *testing.T) {
	// A first-day collapse moves the index without a day-over-day pair.
	a := Analyze(dailySeries(-20.0, 0.04), "SYNTH-ASSET", "ethereum")
	if len(a.Breaches) != 0 {
		t.Fatalf("no prior day means no breach, got %+v", a.Breaches)
	}
	if math.Abs(a.MaxDrawdownPct-5.47945205479452) > 1e-9 {
		t.Fatalf("drawdown = %v", a.MaxDrawdownPct)
	}
	if a.RiskLevel != models.RiskMedium {
		t.Fatalf("drawdown past the limit must read medium, got %s", a.RiskLevel)
	}
}

func TestChangeFromZeroBaseline(t *testing.T) {
	a := Analyze(dailySeries(0.0, -0.01), "SYNTH-ASSET", "ethereum")
	if len(a.Breaches) != 1 {
		t.Fatalf("want one breach, got %d", len(a.Breaches))
	}
	if a.Breaches[0].ChangePct != 0 {
		t.Fatalf("relative change from a zero baseline reads 0, got %v", a.Breaches[0].ChangePct)
	}
	if a.Breaches[0].Severity != models.BreachCritical {
		t.Fatalf("severity = %s, want critical", a.Breaches[0].Severity)
	}
}

func TestEmptySeries(t *testing.T) {
	a := Analyze(nil, "SYNTH-ASSET", "ethereum")
	if len(a.Breaches) != 0 || len(a.RiskPeriods) != 0 || a.MaxDrawdownPct != 0 {
		t.Fatalf("empty series must stay empty: %+v", a)
	}
	if a.RiskLevel != models.RiskLow {
		t.Fatalf("risk = %s, want low", a.RiskLevel)
	}
}
