package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MarketQuote is a point-in-time snapshot of a single Pendle yield market.
// Prices are in underlying units (PT + YT = 1 for a live market), rates in
// annualized percent. Quotes are immutable; a later fetch supersedes the
// whole value, nothing mutates one in place.
type MarketQuote struct {
	Address          string
	ChainID          int
	Name             string
	Protocol         string
	Expiry           time.Time
	DaysToMaturity   float64
	PTPrice          float64 // (0,1) for a non-matured market
	YTPrice          float64 // 1 - PTPrice
	UnderlyingAPYPct float64 // 0 for pure-incentive markets
	ImpliedAPYPct    float64
	PoolAPYPct       float64 // aggregate LP APY, 0 when the venue reports none
	TVLUSD           float64
	HasRewards       bool
}

// Key identifies a market across chains as "<chainID>:<lowercase address>".
func (m MarketQuote) Key() string {
	return fmt.Sprintf("%d:%s", m.ChainID, strings.ToLower(m.Address))
}

// Matured reports whether the market has passed expiry.
func (m MarketQuote) Matured() bool {
	return m.DaysToMaturity <= 0
}

// YieldPoint is one daily observation from a market's yield history.
// Rates are fractional as ingested from the venue (0.05 == 5%).
type YieldPoint struct {
	Date          time.Time
	ImpliedAPY    float64
	UnderlyingAPY float64
}

// YieldSeries is a chronological run of daily points, deduplicated by
// calendar day after merge.
type YieldSeries []YieldPoint

// ImpliedPct returns the implied APY column in percent units.
func (s YieldSeries) ImpliedPct() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.ImpliedAPY * 100
	}
	return out
}

// UnderlyingPct returns the underlying APY column in percent units.
func (s YieldSeries) UnderlyingPct() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.UnderlyingAPY * 100
	}
	return out
}

// Window returns the trailing sub-series covering the last days calendar
// days measured from the newest point. days <= 0 returns the whole series.
func (s YieldSeries) Window(days int) YieldSeries {
	if days <= 0 || len(s) == 0 {
		return s
	}
	cutoff := DayUTC(s[len(s)-1].Date).AddDate(0, 0, -days)
	for i, p := range s {
		if DayUTC(p.Date).After(cutoff) {
			return s[i:]
		}
	}
	return nil
}

// MergeSeries combines previously stored points with freshly fetched ones,
// keyed by UTC calendar day; fresh points win on collision. The result is
// chronological and capped to the most recent maxDays days (0 = uncapped).
func MergeSeries(old, fresh YieldSeries, maxDays int) YieldSeries {
	byDay := make(map[time.Time]YieldPoint, len(old)+len(fresh))
	for _, p := range old {
		d := DayUTC(p.Date)
		p.Date = d
		byDay[d] = p
	}
	for _, p := range fresh {
		d := DayUTC(p.Date)
		p.Date = d
		byDay[d] = p
	}
	merged := make(YieldSeries, 0, len(byDay))
	for _, p := range byDay {
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	if maxDays > 0 && len(merged) > maxDays {
		merged = merged[len(merged)-maxDays:]
	}
	return merged
}

// DayUTC truncates t to its UTC calendar day.
func DayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
