package usecase

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"pendlescope/internal/catalog"
	"pendlescope/internal/domain/models"
	drepo "pendlescope/internal/domain/repository"
	"pendlescope/internal/services/loop"
	"pendlescope/internal/services/pricing"
	"pendlescope/internal/services/signal"
	"pendlescope/internal/services/stats"
	"pendlescope/internal/services/watermark"
	applogger "pendlescope/pkg/logger"
)

// Analyzer composes the pure calculation packages into the per-market
// aggregate the API serves. Sections that cannot be computed degrade into
// the Errors map; nothing here aborts a batch.
type Analyzer struct {
	history      *HistoryUseCase
	protocolAPYs map[string]float64 // category -> protocol-native APY, for cross-checks
	workers      int
	l            *applogger.Logger
}

func NewAnalyzer(history *HistoryUseCase, protocolAPYs map[string]float64, workers int, l *applogger.Logger) *Analyzer {
	if workers <= 0 {
		workers = 8
	}
	return &Analyzer{history: history, protocolAPYs: protocolAPYs, workers: workers, l: l}
}

// AnalyzeMarket runs the whole engine over one quote. history may be
// empty; everything history-derived is then absent and noted in Errors.
// peers is the full snapshot set for cross-asset positioning.
func (a *Analyzer) AnalyzeMarket(quote models.MarketQuote, history models.YieldSeries, peers []models.MarketQuote) models.MarketAnalysis {
	out := models.MarketAnalysis{
		Quote:       quote,
		FixedAPYPct: pricing.FixedAPY(quote.PTPrice, quote.DaysToMaturity),
		Stats:       make(map[string]models.SeriesStats, 4),
		GeneratedAt: time.Now().UTC(),
		Errors:      make(map[string]string),
	}

	chain := catalog.ChainName(quote.ChainID)

	var windowStats models.SeriesStats
	var haveStats bool
	if len(history) == 0 {
		out.Errors["history"] = "no yield history available"
	} else {
		wm := watermark.Analyze(history, quote.Name, chain)
		out.Watermark = &wm

		for _, w := range drepo.Windows() {
			if s, ok := stats.Describe(history.Window(w.Days()).ImpliedPct()); ok {
				out.Stats[string(w)] = s
			}
		}
		windowStats, haveStats = out.Stats[string(drepo.DefaultWindow())]
		if !haveStats {
			windowStats, haveStats = out.Stats[string(drepo.WindowAll)]
		}
	}

	if haveStats {
		if mr, ok := signal.MeanReversion(quote.ImpliedAPYPct, windowStats.Avg, windowStats.StdDev); ok {
			out.MeanReversion = &mr
		} else {
			out.Errors["mean_reversion"] = "series flat or mean zero"
		}
		if us, ok := stats.Describe(history.Window(drepo.DefaultWindow().Days()).UnderlyingPct()); ok {
			sc := signal.CompareSharpe(out.FixedAPYPct, quote.UnderlyingAPYPct, quote.ImpliedAPYPct, us.StdDev, quote.DaysToMaturity)
			out.Sharpe = &sc
		}
	} else if len(history) > 0 {
		out.Errors["stats"] = "no usable points after outlier rejection"
	}

	if ca, ok := signal.CrossAsset(quote, peers); ok {
		out.CrossAsset = &ca
		v := signal.VerifyUnderlying(ca.Category, quote.UnderlyingAPYPct, a.protocolAPYs)
		out.Verification = &v
	} else {
		out.Errors["cross_asset"] = "uncategorized asset or too few peers"
	}

	if opp, ok := loop.FindOpportunity(quote.Name, quote.ChainID, out.FixedAPYPct); ok {
		out.Loop = &opp
	}

	out.Signal = signal.Evaluate(signal.EvaluationInput{
		Quote:       quote,
		FixedAPYPct: out.FixedAPYPct,
		Watermark:   out.Watermark,
		Loop:        out.Loop,
	})
	return out
}

// AnalyzeBatch fans one goroutine per market, bounded by the configured
// worker count. Safe because the calculation core is pure; the only
// shared work is the singleflight-deduplicated history fetch. A market
// whose history fails is still analyzed, with the failure noted.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, quotes []models.MarketQuote) []models.MarketAnalysis {
	out := make([]models.MarketAnalysis, len(quotes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, q := range quotes {
		i, q := i, q
		g.Go(func() error {
			var history models.YieldSeries
			if a.history != nil {
				var err error
				history, err = a.history.Series(gctx, q.ChainID, q.Address)
				if err != nil {
					a.l.Warn("market history unavailable",
						applogger.String("market", q.Key()),
						applogger.Error(err),
					)
				}
			}
			out[i] = a.AnalyzeMarket(q, history, quotes)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Quote.TVLUSD > out[j].Quote.TVLUSD })
	return out
}
