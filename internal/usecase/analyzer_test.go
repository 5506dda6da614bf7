package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"pendlescope/internal/domain/models"
	applogger "pendlescope/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// fakeSource serves canned quotes and history, or a canned failure.
type fakeSource struct {
	quotes  []models.MarketQuote
	history map[string]models.YieldSeries
	histErr error
}

func (f *fakeSource) ActiveMarkets(_ context.Context, chainID int) ([]models.MarketQuote, error) {
	out := make([]models.MarketQuote, 0, len(f.quotes))
	for _, q := range f.quotes {
		if q.ChainID == chainID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeSource) MarketHistory(_ context.Context, chainID int, address string, _ int) (models.YieldSeries, error) {
	if f.histErr != nil {
		return nil, f.histErr
	}
	return f.history[address], nil
}

func steadySeries(days int, implied, underlying float64) models.YieldSeries {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.YieldSeries, 0, days)
	for i := 0; i < days; i++ {
		// small ramp keeps stddev nonzero without tripping breach detection
		out = append(out, models.YieldPoint{
			Date:          start.AddDate(0, 0, i),
			ImpliedAPY:    implied + float64(i)*0.0001,
			UnderlyingAPY: underlying + float64(i)*0.0001,
		})
	}
	return out
}

func testQuote() models.MarketQuote {
	return models.MarketQuote{
		Address:          "0xabc",
		ChainID:          1,
		Name:             "PT-eETH-26JUN2025",
		Expiry:           time.Now().AddDate(0, 3, 0),
		DaysToMaturity:   90,
		PTPrice:          0.95,
		YTPrice:          0.05,
		UnderlyingAPYPct: 3.2,
		ImpliedAPYPct:    5.0,
		TVLUSD:           1_000_000,
	}
}

func newTestAnalyzer(t *testing.T, src *fakeSource) *Analyzer {
	t.Helper()
	l := testLogger(t)
	hist := NewHistoryUseCase(src, nil, nil, 180, time.Hour, time.Hour, l)
	return NewAnalyzer(hist, map[string]float64{"eth_liquid_staking": 3.0}, 4, l)
}

func TestAnalyzeMarketComposesSections(t *testing.T) {
	q := testQuote()
	src := &fakeSource{history: map[string]models.YieldSeries{
		q.Address: steadySeries(120, 0.045, 0.032),
	}}
	a := newTestAnalyzer(t, src)

	history, err := a.history.Series(context.Background(), q.ChainID, q.Address)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	res := a.AnalyzeMarket(q, history, []models.MarketQuote{q})

	if res.FixedAPYPct <= 0 {
		t.Errorf("fixed APY = %v, want > 0", res.FixedAPYPct)
	}
	// implied 5.0 vs underlying 3.2: clearly outside the deadband
	if res.Signal.Kind != models.SignalPTFixed {
		t.Errorf("signal = %s, want %s", res.Signal.Kind, models.SignalPTFixed)
	}
	if res.Watermark == nil {
		t.Fatal("watermark analysis missing")
	}
	if res.Watermark.RiskLevel != models.RiskLow {
		t.Errorf("risk = %s for a steady series, want low", res.Watermark.RiskLevel)
	}
	for _, w := range []string{"all", "90d", "30d", "7d"} {
		if _, ok := res.Stats[w]; !ok {
			t.Errorf("stats window %q missing", w)
		}
	}
	if res.MeanReversion == nil {
		t.Error("mean reversion missing for a dispersive series")
	}
	if res.Sharpe == nil {
		t.Error("sharpe comparison missing")
	}
	if _, bad := res.Errors["history"]; bad {
		t.Errorf("unexpected history error: %v", res.Errors)
	}
}

func TestAnalyzeMarketWithoutHistoryDegrades(t *testing.T) {
	q := testQuote()
	a := newTestAnalyzer(t, &fakeSource{})

	res := a.AnalyzeMarket(q, nil, []models.MarketQuote{q})
	if res.Watermark != nil {
		t.Error("watermark should be absent without history")
	}
	if len(res.Stats) != 0 {
		t.Errorf("stats should be empty without history, got %d", len(res.Stats))
	}
	if res.Errors["history"] == "" {
		t.Error("missing history not noted in Errors")
	}
	// classification still runs on the quote alone
	if res.Signal.Kind != models.SignalPTFixed {
		t.Errorf("signal = %s, want %s", res.Signal.Kind, models.SignalPTFixed)
	}
}

func TestAnalyzeMarketCrossAssetNeedsPeers(t *testing.T) {
	q := testQuote()
	a := newTestAnalyzer(t, &fakeSource{})

	res := a.AnalyzeMarket(q, nil, []models.MarketQuote{q})
	if res.CrossAsset != nil {
		t.Error("cross-asset should be absent with no peers")
	}

	peers := []models.MarketQuote{
		q,
		{Address: "0x1", ChainID: 1, Name: "PT-weETH-26JUN2025", ImpliedAPYPct: 4.0},
		{Address: "0x2", ChainID: 1, Name: "PT-rsETH-26JUN2025", ImpliedAPYPct: 4.4},
	}
	res = a.AnalyzeMarket(q, nil, peers)
	if res.CrossAsset == nil {
		t.Fatal("cross-asset missing with two categorized peers")
	}
	if res.CrossAsset.Category != "eth_liquid_staking" {
		t.Errorf("category = %s", res.CrossAsset.Category)
	}
	if res.Verification == nil {
		t.Fatal("verification missing when a protocol APY source exists")
	}
	if res.Verification.Outcome == models.VerifyUnsourced {
		t.Error("eth_liquid_staking has a source; outcome should not be unverified")
	}
}

func TestAnalyzeBatchSurvivesHistoryFailure(t *testing.T) {
	q1 := testQuote()
	q2 := testQuote()
	q2.Address = "0xdef"
	q2.TVLUSD = 5_000_000
	src := &fakeSource{histErr: errors.New("upstream down")}
	a := newTestAnalyzer(t, src)

	out := a.AnalyzeBatch(context.Background(), []models.MarketQuote{q1, q2})
	if len(out) != 2 {
		t.Fatalf("got %d analyses, want 2", len(out))
	}
	// descending TVL
	if out[0].Quote.Address != "0xdef" {
		t.Errorf("batch not sorted by TVL: first is %s", out[0].Quote.Address)
	}
	for _, res := range out {
		if res.Errors["history"] == "" {
			t.Errorf("market %s: history failure not recorded", res.Quote.Address)
		}
		if res.Signal.Kind == "" {
			t.Errorf("market %s: no signal assigned", res.Quote.Address)
		}
	}
}
