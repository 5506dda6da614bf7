// Package pendle implements the market source against the Pendle REST
// API. Requests run through an ordered list of base URLs (the hosted API
// plus mirrors) so a dead host degrades to the next one, with short
// retry backoff per host and a shared rate limit across all calls.
package pendle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"pendlescope/internal/domain/models"
	drepo "pendlescope/internal/domain/repository"
	"pendlescope/internal/services/pricing"
	xhttp "pendlescope/pkg/http"
	applogger "pendlescope/pkg/logger"
)

const retryBackoff = 300 * time.Millisecond

// Client fetches market snapshots and yield history from the Pendle API.
type Client struct {
	http     *xhttp.Client
	baseURLs []string
	retries  int
	limiter  *rate.Limiter
	l        *applogger.Logger
}

// Config holds client construction parameters.
type Config struct {
	BaseURLs       []string
	RequestTimeout time.Duration
	RetryAttempts  int
	RateRPS        float64
	RateBurst      int
}

// New creates a Pendle MarketSource.
func New(cfg Config, l *applogger.Logger) (drepo.MarketSource, error) {
	if len(cfg.BaseURLs) == 0 {
		return nil, fmt.Errorf("pendle: base URLs required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 2
	}
	if cfg.RateRPS <= 0 {
		cfg.RateRPS = 5
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = int(cfg.RateRPS)
		if cfg.RateBurst < 1 {
			cfg.RateBurst = 1
		}
	}
	bases := make([]string, 0, len(cfg.BaseURLs))
	for _, b := range cfg.BaseURLs {
		bases = append(bases, strings.TrimRight(b, "/"))
	}
	return &Client{
		http:     xhttp.NewClient(xhttp.WithTimeout(cfg.RequestTimeout)),
		baseURLs: bases,
		retries:  cfg.RetryAttempts,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst),
		l:        l,
	}, nil
}

type marketDTO struct {
	Name    string    `json:"name"`
	Address string    `json:"address"`
	Expiry  time.Time `json:"expiry"`
	Proto   string    `json:"protocol"`
	Details struct {
		LiquidityUSD  float64 `json:"liquidity"`
		ImpliedAPY    float64 `json:"impliedApy"`
		UnderlyingAPY float64 `json:"underlyingApy"`
		AggregatedAPY float64 `json:"aggregatedApy"`
		PTPrice       float64 `json:"ptPrice"`
	} `json:"details"`
	RewardTokens []string `json:"rewardTokens"`
}

type activeMarketsDTO struct {
	Markets []marketDTO `json:"markets"`
}

// ActiveMarkets fetches the live market list for one chain and normalizes
// it into quotes: venue rates arrive fractional and are converted to
// percent, and the PT price is derived from the implied APY when the
// venue omits it.
func (c *Client) ActiveMarkets(ctx context.Context, chainID int) ([]models.MarketQuote, error) {
	var dto activeMarketsDTO
	path := fmt.Sprintf("/v1/%d/markets/active", chainID)
	if err := c.getJSON(ctx, path, nil, &dto); err != nil {
		return nil, fmt.Errorf("active markets chain %d: %w", chainID, err)
	}

	now := time.Now().UTC()
	out := make([]models.MarketQuote, 0, len(dto.Markets))
	for _, m := range dto.Markets {
		days := m.Expiry.Sub(now).Hours() / 24
		impliedPct := m.Details.ImpliedAPY * 100
		pt := m.Details.PTPrice
		if pt <= 0 || pt >= 1 {
			pt = pricing.PTPriceFromImpliedAPY(impliedPct, days)
		}
		out = append(out, models.MarketQuote{
			Address:          strings.ToLower(m.Address),
			ChainID:          chainID,
			Name:             m.Name,
			Protocol:         m.Proto,
			Expiry:           m.Expiry,
			DaysToMaturity:   days,
			PTPrice:          pt,
			YTPrice:          1 - pt,
			UnderlyingAPYPct: m.Details.UnderlyingAPY * 100,
			ImpliedAPYPct:    impliedPct,
			PoolAPYPct:       m.Details.AggregatedAPY * 100,
			TVLUSD:           m.Details.LiquidityUSD,
			HasRewards:       len(m.RewardTokens) > 0,
		})
	}
	return out, nil
}

// historyDTO is the venue's columnar history payload: parallel arrays
// indexed by day.
type historyDTO struct {
	Timestamps    []int64   `json:"timestamp"`
	ImpliedAPY    []float64 `json:"impliedApy"`
	UnderlyingAPY []float64 `json:"underlyingApy"`
}

// MarketHistory fetches up to days of daily yield points, fractional
// units as the venue reports them, chronologically sorted.
func (c *Client) MarketHistory(ctx context.Context, chainID int, address string, days int) (models.YieldSeries, error) {
	if days <= 0 {
		days = 90
	}
	var dto historyDTO
	path := fmt.Sprintf("/v1/%d/markets/%s/historical-data", chainID, strings.ToLower(address))
	query := map[string][]string{
		"time_frame": {"day"},
		"limit":      {fmt.Sprintf("%d", days)},
	}
	if err := c.getJSON(ctx, path, query, &dto); err != nil {
		return nil, fmt.Errorf("history %d:%s: %w", chainID, address, err)
	}

	n := len(dto.Timestamps)
	if len(dto.ImpliedAPY) < n {
		n = len(dto.ImpliedAPY)
	}
	if len(dto.UnderlyingAPY) < n {
		n = len(dto.UnderlyingAPY)
	}
	series := make(models.YieldSeries, 0, n)
	for i := 0; i < n; i++ {
		series = append(series, models.YieldPoint{
			Date:          time.Unix(dto.Timestamps[i], 0).UTC(),
			ImpliedAPY:    dto.ImpliedAPY[i],
			UnderlyingAPY: dto.UnderlyingAPY[i],
		})
	}
	// the venue already returns ascending days; dedupe happens at merge
	return series, nil
}

// getJSON walks the base URLs in order, retrying each with backoff before
// falling through to the next. The first host to answer wins; only when
// every host is exhausted does the joined error surface.
func (c *Client) getJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	var errs []error
	for _, base := range c.baseURLs {
		var lastErr error
		for attempt := 0; attempt < c.retries; attempt++ {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			lastErr = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
				Method:      xhttp.MethodGet,
				URL:         base + path,
				QueryParams: query,
			}, dest)
			if lastErr == nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt < c.retries-1 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryBackoff << attempt):
				}
			}
		}
		if c.l != nil {
			c.l.Warn("pendle host failed, trying next",
				applogger.String("base", base),
				applogger.String("path", path),
				applogger.Error(lastErr),
			)
		}
		errs = append(errs, fmt.Errorf("%s: %w", base, lastErr))
	}
	return fmt.Errorf("all hosts failed: %w", errors.Join(errs...))
}
