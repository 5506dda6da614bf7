package repository

import (
	"context"
	"time"

	"pendlescope/internal/domain/models"
)

// MarketSource supplies market snapshots and per-market yield history
// from the venue API.
type MarketSource interface {
	ActiveMarkets(ctx context.Context, chainID int) ([]models.MarketQuote, error)
	MarketHistory(ctx context.Context, chainID int, address string, days int) (models.YieldSeries, error)
}

// HistoryStore persists daily yield points keyed by (chain, address, day).
type HistoryStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	UpsertPoints(ctx context.Context, chainID int, address string, points models.YieldSeries) error
	Range(ctx context.Context, chainID int, address string, from, to time.Time) (models.YieldSeries, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// SignalPublisher emits signal-change events for downstream consumers.
type SignalPublisher interface {
	PublishSignalChange(ctx context.Context, e models.SignalChangeEvent) error
	Close() error
}

// Broadcaster fans a refreshed analysis set out to live subscribers.
type Broadcaster interface {
	BroadcastAnalyses(analyses []models.MarketAnalysis)
}

type Metrics interface {
	RecordRefresh(chain string, markets int)
	RecordFetchError(kind string)
	RecordImpliedAPY(market string, pct float64)
	RecordLatency(op string, seconds float64)
}
