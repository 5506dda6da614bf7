package pendle

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, bases []string) *Client {
	t.Helper()
	src, err := New(Config{
		BaseURLs:       bases,
		RequestTimeout: 2 * time.Second,
		RetryAttempts:  1,
		RateRPS:        1000,
		RateBurst:      1000,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return src.(*Client)
}

const activeMarketsBody = `{"markets":[{
  "name":"PT-wstETH-26DEC2024",
  "address":"0xABCDEF0000000000000000000000000000000001",
  "expiry":"2031-01-01T00:00:00Z",
  "protocol":"Lido",
  "details":{"liquidity":1200000,"impliedApy":0.04,"underlyingApy":0.032,"aggregatedApy":0.051},
  "rewardTokens":["PENDLE"]
}]}`

func TestActiveMarketsNormalizesQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/1/markets/active" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(activeMarketsBody))
	}))
	defer srv.Close()

	c := newTestClient(t, []string{srv.URL})
	quotes, err := c.ActiveMarkets(context.Background(), 1)
	if err != nil {
		t.Fatalf("ActiveMarkets: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}
	q := quotes[0]
	if q.Address != "0xabcdef0000000000000000000000000000000001" {
		t.Errorf("address not lowercased: %s", q.Address)
	}
	if math.Abs(q.ImpliedAPYPct-4.0) > 1e-9 {
		t.Errorf("implied = %v, want 4.0", q.ImpliedAPYPct)
	}
	if math.Abs(q.UnderlyingAPYPct-3.2) > 1e-9 {
		t.Errorf("underlying = %v, want 3.2", q.UnderlyingAPYPct)
	}
	if q.PTPrice <= 0 || q.PTPrice >= 1 {
		t.Errorf("derived PT price %v outside (0,1)", q.PTPrice)
	}
	if math.Abs(q.PTPrice+q.YTPrice-1) > 1e-12 {
		t.Errorf("PT %v + YT %v != 1", q.PTPrice, q.YTPrice)
	}
	if !q.HasRewards {
		t.Error("reward tokens present but HasRewards false")
	}
}

func TestGetJSONFallsBackToNextHost(t *testing.T) {
	var deadHits int
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadHits++
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer dead.Close()

	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(activeMarketsBody))
	}))
	defer live.Close()

	c := newTestClient(t, []string{dead.URL, live.URL})
	quotes, err := c.ActiveMarkets(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected fallback to succeed, got %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}
	if deadHits == 0 {
		t.Error("primary host never tried")
	}
}

func TestGetJSONAllHostsDown(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer dead.Close()

	c := newTestClient(t, []string{dead.URL})
	if _, err := c.ActiveMarkets(context.Background(), 1); err == nil {
		t.Fatal("expected error when every host fails")
	}
}

func TestMarketHistoryColumnarDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("time_frame") != "day" {
			t.Errorf("time_frame = %q, want day", r.URL.Query().Get("time_frame"))
		}
		_, _ = w.Write([]byte(`{
			"timestamp":[1719792000,1719878400,1719964800],
			"impliedApy":[0.041,0.043,0.040],
			"underlyingApy":[0.031,0.030,0.032]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, []string{srv.URL})
	series, err := c.MarketHistory(context.Background(), 1, "0xAA", 90)
	if err != nil {
		t.Fatalf("MarketHistory: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("got %d points, want 3", len(series))
	}
	if math.Abs(series[1].ImpliedAPY-0.043) > 1e-12 {
		t.Errorf("point 1 implied = %v, want 0.043", series[1].ImpliedAPY)
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Date.After(series[i-1].Date) {
			t.Errorf("series not ascending at %d", i)
		}
	}
}
