package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"pendlescope/internal/domain/models"
	drepo "pendlescope/internal/domain/repository"
	"pendlescope/pkg/cache"
	applogger "pendlescope/pkg/logger"
)

// HistoryUseCase serves merged yield history for one market: hot cache
// first, then the durable store, then the upstream API, deduplicated by
// calendar day and capped to the retention window. Concurrent requests
// for the same market collapse into one upstream fetch.
type HistoryUseCase struct {
	source    drepo.MarketSource
	store     drepo.HistoryStore // nil when persistence is disabled
	cache     cache.Service      // nil when caching is disabled
	maxDays   int
	freshness time.Duration
	cacheTTL  time.Duration
	sf        singleflight.Group
	l         *applogger.Logger
}

// cachedSeries is the cache envelope; FetchedAt drives the freshness
// window so a refresh cycle inside it never re-hits upstream.
type cachedSeries struct {
	FetchedAt time.Time          `json:"fetchedAt"`
	Points    models.YieldSeries `json:"points"`
}

func NewHistoryUseCase(
	source drepo.MarketSource,
	store drepo.HistoryStore,
	c cache.Service,
	maxDays int,
	freshness, cacheTTL time.Duration,
	l *applogger.Logger,
) *HistoryUseCase {
	if maxDays <= 0 {
		maxDays = 180
	}
	if freshness <= 0 {
		freshness = time.Hour
	}
	if cacheTTL <= 0 {
		cacheTTL = 6 * time.Hour
	}
	return &HistoryUseCase{
		source:    source,
		store:     store,
		cache:     c,
		maxDays:   maxDays,
		freshness: freshness,
		cacheTTL:  cacheTTL,
		l:         l,
	}
}

// Series returns the merged, chronological, day-deduplicated history for
// one market. A failed upstream fetch degrades to whatever the store
// already holds rather than erroring the caller out.
func (uc *HistoryUseCase) Series(ctx context.Context, chainID int, address string) (models.YieldSeries, error) {
	key := cache.GenerateKeyWithParams("history", chainID, strings.ToLower(address))
	v, err, _ := uc.sf.Do(key, func() (interface{}, error) {
		return uc.load(ctx, key, chainID, address)
	})
	if err != nil {
		return nil, err
	}
	return v.(models.YieldSeries), nil
}

func (uc *HistoryUseCase) load(ctx context.Context, key string, chainID int, address string) (models.YieldSeries, error) {
	if cached, ok := uc.fromCache(ctx, key); ok {
		return cached, nil
	}

	var stored models.YieldSeries
	if uc.store != nil {
		to := time.Now().UTC()
		from := to.AddDate(0, 0, -uc.maxDays)
		var err error
		stored, err = uc.store.Range(ctx, chainID, address, from, to)
		if err != nil {
			uc.l.Warn("history store read failed, continuing from upstream only",
				applogger.Int("chain", chainID),
				applogger.String("address", address),
				applogger.Error(err),
			)
			stored = nil
		}
	}

	fresh, err := uc.source.MarketHistory(ctx, chainID, address, uc.maxDays)
	if err != nil {
		if len(stored) > 0 {
			uc.l.Warn("upstream history fetch failed, serving stored days",
				applogger.Int("chain", chainID),
				applogger.String("address", address),
				applogger.Int("stored", len(stored)),
				applogger.Error(err),
			)
			return models.MergeSeries(stored, nil, uc.maxDays), nil
		}
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	merged := models.MergeSeries(stored, fresh, uc.maxDays)

	if uc.store != nil && len(fresh) > 0 {
		if err := uc.store.UpsertPoints(ctx, chainID, address, fresh); err != nil {
			uc.l.Warn("history upsert failed",
				applogger.Int("chain", chainID),
				applogger.String("address", address),
				applogger.Error(err),
			)
		}
	}
	uc.toCache(ctx, key, merged)
	return merged, nil
}

func (uc *HistoryUseCase) fromCache(ctx context.Context, key string) (models.YieldSeries, bool) {
	if uc.cache == nil {
		return nil, false
	}
	env, ok, err := cache.GetTyped[cachedSeries](ctx, uc.cache, key)
	if err != nil || !ok {
		return nil, false
	}
	if time.Since(env.FetchedAt) > uc.freshness {
		return nil, false
	}
	return env.Points, true
}

func (uc *HistoryUseCase) toCache(ctx context.Context, key string, series models.YieldSeries) {
	if uc.cache == nil || len(series) == 0 {
		return
	}
	env := cachedSeries{FetchedAt: time.Now().UTC(), Points: series}
	if err := uc.cache.Set(ctx, key, env, uc.cacheTTL); err != nil {
		uc.l.Warn("history cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}
