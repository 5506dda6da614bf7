package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"pendlescope/internal/domain/models"
)

var (
	once sync.Once

	// SignalsByKind gauges how many markets currently carry each signal,
	// refreshed wholesale after every analysis cycle.
	SignalsByKind = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pendlescope",
			Subsystem: "signals",
			Name:      "current",
			Help:      "Markets currently classified per signal kind",
		},
		[]string{"chain", "kind"},
	)

	// SignalChanges counts kind transitions between refresh cycles.
	SignalChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pendlescope",
			Subsystem: "signals",
			Name:      "changes_total",
			Help:      "Signal kind transitions between refreshes",
		},
		[]string{"chain", "from", "to"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(SignalsByKind, SignalChanges)
	})
}

// RecordCycle replaces the per-kind gauges for one chain with the counts
// from a fresh analysis set.
func RecordCycle(chain string, analyses []models.MarketAnalysis) {
	counts := make(map[models.SignalKind]int, 8)
	for _, a := range analyses {
		counts[a.Signal.Kind]++
	}
	for _, kind := range []models.SignalKind{
		models.SignalPTFixed, models.SignalYTLeverage, models.SignalNeutral,
		models.SignalLPBest, models.SignalLoop, models.SignalBelowWatermark,
		models.SignalPurePoints,
	} {
		SignalsByKind.WithLabelValues(chain, string(kind)).Set(float64(counts[kind]))
	}
}

// RecordChange counts one kind transition.
func RecordChange(chain string, from, to models.SignalKind) {
	SignalChanges.WithLabelValues(chain, string(from), string(to)).Inc()
}
