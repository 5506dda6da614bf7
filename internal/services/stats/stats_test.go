package stats

import (
	"math"
	"testing"
	"time"
)

const eps = 1e-9

func TestDescribeEmpty(t *testing.T) {
	if _, ok := Describe(nil); ok {
		t.Fatalf("nil input should not describe")
	}
	if _, ok := Describe([]float64{0, -3, 1000, 5000}); ok {
		t.Fatalf("all-outlier input should not describe")
	}
}

func TestDescribeConstant(t *testing.T) {
	s, ok := Describe([]float64{5, 5, 5})
	if !ok {
		t.Fatalf("expected ok")
	}
	if s.Min != 5 || s.Max != 5 || s.Avg != 5 || s.Current != 5 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if s.StdDev != 0 {
		t.Fatalf("constant series stddev = %v, want 0", s.StdDev)
	}
	if s.Count != 3 {
		t.Fatalf("count = %d, want 3", s.Count)
	}
}

func TestDescribeFiltersOutliers(t *testing.T) {
	s, ok := Describe([]float64{4, 5, 6, 5, -2, 0, 1000, 2000})
	if !ok {
		t.Fatalf("expected ok")
	}
	if s.Count != 4 {
		t.Fatalf("count = %d, want 4 after outlier rejection", s.Count)
	}
	if s.Min != 4 || s.Max != 6 || s.Avg != 5 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if math.Abs(s.StdDev-0.7071067811865476) > eps {
		t.Fatalf("population stddev = %v", s.StdDev)
	}
	if s.Current != 5 {
		t.Fatalf("current should be the last surviving value, got %v", s.Current)
	}
}

func TestDescribeOrderingInvariant(t *testing.T) {
	s, ok := Describe([]float64{3.2, 9.7, 1.4, 6.6})
	if !ok {
		t.Fatalf("expected ok")
	}
	if !(s.Min <= s.Avg && s.Avg <= s.Max) {
		t.Fatalf("min <= avg <= max violated: %+v", s)
	}
	if s.StdDev < 0 {
		t.Fatalf("stddev negative: %v", s.StdDev)
	}
}

func TestPercentile(t *testing.T) {
	cases := []struct {
		current, min, max float64
		want              int
	}{
		{0, 0, 10, 0},
		{10, 0, 10, 100},
		{5, 5, 5, 50},
		{5, 0, 10, 50},
		{7.5, 0, 10, 75},
		{1, 0, 3, 33},
		{2, 0, 3, 67},
		{-5, 0, 10, 0},
		{15, 0, 10, 100},
	}
	for _, c := range cases {
		if got := Percentile(c.current, c.min, c.max); got != c.want {
			t.Errorf("Percentile(%v, %v, %v) = %d, want %d", c.current, c.min, c.max, got, c.want)
		}
	}
}

func samplesFrom(start time.Time, values []float64) []Sample {
	out := make([]Sample, len(values))
	for i, v := range values {
		out[i] = Sample{Date: start.AddDate(0, 0, i), Value: v}
	}
	return out
}

func TestPearsonPerfectCorrelation(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := samplesFrom(start, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	b := samplesFrom(start, []float64{2, 4, 6, 8, 10, 12, 14, 16, 18, 20})
	r, ok := Pearson(a, b)
	if !ok {
		t.Fatalf("expected ok")
	}
	if math.Abs(r-1) > eps {
		t.Fatalf("r = %v, want 1", r)
	}

	inv := samplesFrom(start, []float64{20, 18, 16, 14, 12, 10, 8, 6, 4, 2})
	r, ok = Pearson(a, inv)
	if !ok || math.Abs(r+1) > eps {
		t.Fatalf("r = %v ok=%v, want -1", r, ok)
	}
}

func TestPearsonAlignsByCalendarDay(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := make([]Sample, 10)
	b := make([]Sample, 10)
	for i := 0; i < 10; i++ {
		a[i] = Sample{Date: start.AddDate(0, 0, i).Add(5 * time.Hour), Value: float64(i)}
		b[i] = Sample{Date: start.AddDate(0, 0, i).Add(22 * time.Hour), Value: float64(2 * i)}
	}
	if _, ok := Pearson(a, b); !ok {
		t.Fatalf("intraday timestamps on the same day must align")
	}
}

func TestPearsonInsufficientOverlap(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := samplesFrom(start, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	b := samplesFrom(start, []float64{2, 4, 6, 8, 10, 12, 14, 16, 18})
	if _, ok := Pearson(a, b); ok {
		t.Fatalf("9 aligned points must not correlate")
	}

	// 12 points each but only 6 shared days.
	a = samplesFrom(start, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	b = samplesFrom(start.AddDate(0, 0, 6), []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8})
	if _, ok := Pearson(a, b); ok {
		t.Fatalf("6 overlapping days must not correlate")
	}
}

func TestPearsonConstantSeries(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := samplesFrom(start, []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5})
	b := samplesFrom(start, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	if _, ok := Pearson(a, b); ok {
		t.Fatalf("constant series has no defined correlation")
	}
}

func TestMovingAverageWarmup(t *testing.T) {
	got := MovingAverage([]float64{10}, 7)
	if len(got) != 1 || got[0] != 10 {
		t.Fatalf("MovingAverage([10], 7) = %v", got)
	}
	got = MovingAverage([]float64{10, 20, 30}, 7)
	want := []float64{10, 15, 20}
	for i := range want {
		if math.Abs(got[i]-want[i]) > eps {
			t.Fatalf("warm-up mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}

func TestMovingAverageTrailingWindow(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{1, 1.5, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > eps {
			t.Fatalf("at %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMovingAverageWindowOne(t *testing.T) {
	in := []float64{3, 1, 4, 1, 5}
	got := MovingAverage(in, 1)
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("window 1 should be identity, got %v", got)
		}
	}
	if MovingAverage(nil, 5) != nil {
		t.Fatalf("nil input should stay nil")
	}
}
