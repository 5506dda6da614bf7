package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	refreshes   *prometheus.CounterVec
	marketsSeen *prometheus.GaugeVec
	fetchErrors *prometheus.CounterVec
	impliedAPY  *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		refreshes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pendlescope_refreshes_total",
				Help: "Completed market refresh cycles per chain",
			},
			[]string{"chain"},
		),
		marketsSeen: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pendlescope_markets",
				Help: "Markets analyzed in the last refresh per chain",
			},
			[]string{"chain"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pendlescope_fetch_errors_total",
				Help: "Upstream fetch errors by kind",
			},
			[]string{"kind"},
		),
		impliedAPY: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pendlescope_implied_apy_percent",
				Help: "Last observed implied APY per market",
			},
			[]string{"market"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pendlescope_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRefresh records one completed refresh cycle for a chain.
func (r *Recorder) RecordRefresh(chain string, markets int) {
	r.refreshes.WithLabelValues(chain).Inc()
	r.marketsSeen.WithLabelValues(chain).Set(float64(markets))
}

// RecordFetchError records an upstream fetch error.
func (r *Recorder) RecordFetchError(kind string) {
	r.fetchErrors.WithLabelValues(kind).Inc()
}

// RecordImpliedAPY records the last implied APY seen for a market.
func (r *Recorder) RecordImpliedAPY(market string, pct float64) {
	r.impliedAPY.WithLabelValues(market).Set(pct)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
