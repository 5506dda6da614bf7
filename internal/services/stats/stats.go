// Package stats provides the distributional summaries the signal engine
// feeds on: windowed series stats with outlier rejection, percentile
// positioning, day-aligned Pearson correlation, and a trailing moving
// average with an expanding warm-up.
package stats

import (
	"math"
	"time"

	"pendlescope/internal/domain/models"
)

// Values outside the open interval (OutlierMinPct, OutlierMaxPct) percent
// are treated as bad data, not real yields, and excluded from aggregation.
const (
	OutlierMinPct = 0.0
	OutlierMaxPct = 1000.0
)

// MinCorrelationPoints is the fewest day-aligned samples Pearson accepts.
const MinCorrelationPoints = 10

// Describe filters values to the accepted percent range and summarizes
// what survives; ok is false when nothing does. StdDev is the population
// standard deviation and Current the last surviving value.
func Describe(values []float64) (models.SeriesStats, bool) {
	filtered := make([]float64, 0, len(values))
	for _, v := range values {
		if v > OutlierMinPct && v < OutlierMaxPct {
			filtered = append(filtered, v)
		}
	}
	if len(filtered) == 0 {
		return models.SeriesStats{}, false
	}
	min, max, sum := filtered[0], filtered[0], 0.0
	for _, v := range filtered {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	n := float64(len(filtered))
	avg := sum / n
	var sq float64
	for _, v := range filtered {
		d := v - avg
		sq += d * d
	}
	return models.SeriesStats{
		Min:     min,
		Max:     max,
		Avg:     avg,
		StdDev:  math.Sqrt(sq / n),
		Current: filtered[len(filtered)-1],
		Count:   len(filtered),
	}, true
}

// Percentile places current within [min,max] as an integer percent
// position, clamped to [0,100]. A degenerate single-value range reads as
// dead-center by convention.
func Percentile(current, min, max float64) int {
	if min == max {
		return 50
	}
	p := int(math.Round((current - min) / (max - min) * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Sample is one dated observation for correlation alignment.
type Sample struct {
	Date  time.Time
	Value float64
}

// Pearson correlates two series after aligning them by UTC calendar day.
// ok is false with fewer than MinCorrelationPoints aligned days, or when
// either side is constant (zero denominator).
func Pearson(a, b []Sample) (float64, bool) {
	byDay := make(map[time.Time]float64, len(a))
	for _, s := range a {
		byDay[models.DayUTC(s.Date)] = s.Value
	}
	xs := make([]float64, 0, len(b))
	ys := make([]float64, 0, len(b))
	for _, s := range b {
		if x, ok := byDay[models.DayUTC(s.Date)]; ok {
			xs = append(xs, x)
			ys = append(ys, s.Value)
		}
	}
	if len(xs) < MinCorrelationPoints {
		return 0, false
	}
	var sx, sy, sxy, sx2, sy2 float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxy += xs[i] * ys[i]
		sx2 += xs[i] * xs[i]
		sy2 += ys[i] * ys[i]
	}
	n := float64(len(xs))
	den := math.Sqrt((n*sx2 - sx*sx) * (n*sy2 - sy*sy))
	if den == 0 {
		return 0, false
	}
	return (n*sxy - sx*sy) / den, true
}

// MovingAverage returns a same-length trailing average: indexes below
// window-1 average everything seen so far (expanding warm-up), later
// indexes average the trailing window points. The warm-up shape is part
// of the contract; chart overlays depend on it.
func MovingAverage(values []float64, window int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
			out[i] = sum / float64(window)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}
