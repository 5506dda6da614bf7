package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"pendlescope/internal/catalog"
	"pendlescope/internal/domain/models"
	drepo "pendlescope/internal/domain/repository"
	sigmetrics "pendlescope/internal/service/metrics"
	applogger "pendlescope/pkg/logger"
)

// Refresher drives the periodic fetch-analyze-publish cycle and holds the
// latest analysis set behind a lock for the API to serve. All state lives
// here, owned and passed explicitly; nothing in the engine below keeps
// globals.
type Refresher struct {
	source      drepo.MarketSource
	analyzer    *Analyzer
	publisher   drepo.SignalPublisher // nil when the event topic is disabled
	broadcaster drepo.Broadcaster     // nil when live push is disabled
	metrics     drepo.Metrics
	chains      []int
	interval    time.Duration
	l           *applogger.Logger

	mu        sync.RWMutex
	latest    map[string]models.MarketAnalysis
	lastKind  map[string]models.SignalKind
	refreshed time.Time
}

func NewRefresher(
	source drepo.MarketSource,
	analyzer *Analyzer,
	publisher drepo.SignalPublisher,
	broadcaster drepo.Broadcaster,
	metrics drepo.Metrics,
	chains []int,
	interval time.Duration,
	l *applogger.Logger,
) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Refresher{
		source:      source,
		analyzer:    analyzer,
		publisher:   publisher,
		broadcaster: broadcaster,
		metrics:     metrics,
		chains:      chains,
		interval:    interval,
		l:           l,
		latest:      make(map[string]models.MarketAnalysis),
		lastKind:    make(map[string]models.SignalKind),
	}
}

// Start runs the refresh loop until ctx is cancelled. The first cycle
// runs immediately so the API has data as soon as a fetch succeeds.
func (r *Refresher) Start(ctx context.Context) {
	go func() {
		r.refresh(ctx)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.refresh(ctx)
			}
		}
	}()
}

func (r *Refresher) refresh(ctx context.Context) {
	start := time.Now()
	var all []models.MarketAnalysis
	for _, chainID := range r.chains {
		chain := catalog.ChainName(chainID)
		quotes, err := r.source.ActiveMarkets(ctx, chainID)
		if err != nil {
			r.metrics.RecordFetchError("markets")
			r.l.Error("market fetch failed",
				applogger.String("chain", chain),
				applogger.Error(err),
			)
			continue
		}
		analyses := r.analyzer.AnalyzeBatch(ctx, quotes)
		r.metrics.RecordRefresh(chain, len(analyses))
		sigmetrics.RecordCycle(chain, analyses)
		for _, a := range analyses {
			r.metrics.RecordImpliedAPY(a.Quote.Key(), a.Quote.ImpliedAPYPct)
		}
		all = append(all, analyses...)
		r.l.Info("chain refreshed",
			applogger.String("chain", chain),
			applogger.Int("markets", len(analyses)),
		)
	}
	if len(all) == 0 {
		return
	}

	changes := r.commit(all)
	for _, ev := range changes {
		sigmetrics.RecordChange(catalog.ChainName(ev.ChainID), ev.Previous, ev.Current)
		if r.publisher != nil {
			if err := r.publisher.PublishSignalChange(ctx, ev); err != nil {
				r.metrics.RecordFetchError("publish")
				r.l.Warn("signal event publish failed",
					applogger.String("market", ev.Key),
					applogger.Error(err),
				)
			}
		}
	}
	if r.broadcaster != nil {
		r.broadcaster.BroadcastAnalyses(all)
	}
	r.metrics.RecordLatency("refresh_cycle", time.Since(start).Seconds())
}

// commit swaps in the fresh analysis set and returns the signal-kind
// transitions since the previous cycle.
func (r *Refresher) commit(analyses []models.MarketAnalysis) []models.SignalChangeEvent {
	now := time.Now().UTC()
	var changes []models.SignalChangeEvent

	r.mu.Lock()
	defer r.mu.Unlock()
	next := make(map[string]models.MarketAnalysis, len(analyses))
	for _, a := range analyses {
		key := a.Quote.Key()
		next[key] = a
		if prev, seen := r.lastKind[key]; seen && prev != a.Signal.Kind {
			changes = append(changes, models.SignalChangeEvent{
				Key:       key,
				ChainID:   a.Quote.ChainID,
				Address:   a.Quote.Address,
				Name:      a.Quote.Name,
				Previous:  prev,
				Current:   a.Signal.Kind,
				Rationale: a.Signal.Rationale,
				At:        now,
			})
		}
		r.lastKind[key] = a.Signal.Kind
	}
	r.latest = next
	r.refreshed = now
	return changes
}

// Latest returns a copy of the current analysis set.
func (r *Refresher) Latest() []models.MarketAnalysis {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.MarketAnalysis, 0, len(r.latest))
	for _, a := range r.latest {
		out = append(out, a)
	}
	return out
}

// Get returns the latest analysis for one market.
func (r *Refresher) Get(chainID int, address string) (models.MarketAnalysis, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.latest[models.MarketQuote{ChainID: chainID, Address: strings.ToLower(address)}.Key()]
	return a, ok
}

// LastRefreshed reports when the current set was committed, zero before
// the first successful cycle.
func (r *Refresher) LastRefreshed() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refreshed
}
