package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"pendlescope/internal/catalog"
	"pendlescope/internal/domain/models"
	drepo "pendlescope/internal/domain/repository"
	"pendlescope/internal/services/stats"
	"pendlescope/internal/stream"
	"pendlescope/internal/usecase"
	xhttp "pendlescope/pkg/http"
	applogger "pendlescope/pkg/logger"
)

// MarketsHandler serves the analyzed market list, per-market detail and
// history, current signals, the live WebSocket feed, and liveness.
type MarketsHandler struct {
	log       *applogger.Logger
	refresher *usecase.Refresher
	history   *usecase.HistoryUseCase
	hub       *stream.Hub
	store     drepo.HistoryStore // nil when persistence is disabled; healthz only
}

func NewMarketsHandler(
	log *applogger.Logger,
	refresher *usecase.Refresher,
	history *usecase.HistoryUseCase,
	hub *stream.Hub,
	store drepo.HistoryStore,
) *MarketsHandler {
	return &MarketsHandler{log: log, refresher: refresher, history: history, hub: hub, store: store}
}

func (h *MarketsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/markets", h.List)
	g.GET("/markets/:chain/:address", h.Detail)
	g.GET("/markets/:chain/:address/history", h.History)
	g.GET("/signals", h.Signals)
	e.GET("/ws", h.Live)
	e.GET("/healthz", h.Healthz)
}

// List returns the latest analysis set, filtered and sorted per query.
func (h *MarketsHandler) List(c echo.Context) error {
	req := &models.ListMarketsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	analyses := h.refresher.Latest()
	filtered := analyses[:0:0]
	for _, a := range analyses {
		if req.ChainID != 0 && a.Quote.ChainID != req.ChainID {
			continue
		}
		if req.MinTVL > 0 && a.Quote.TVLUSD < req.MinTVL {
			continue
		}
		if req.Signal != "" && string(a.Signal.Kind) != req.Signal {
			continue
		}
		if req.Category != "" {
			cat, ok := catalog.CategoryOf(a.Quote.Name)
			if !ok || cat.Name != req.Category {
				continue
			}
		}
		filtered = append(filtered, a)
	}

	sortAnalyses(filtered, req.SortBy)
	if len(filtered) > req.Limit {
		filtered = filtered[:req.Limit]
	}
	return xhttp.ListResponse(c, filtered, int64(len(filtered)))
}

func sortAnalyses(list []models.MarketAnalysis, key string) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch key {
		case "implied":
			return a.Quote.ImpliedAPYPct > b.Quote.ImpliedAPYPct
		case "fixed":
			return a.FixedAPYPct > b.FixedAPYPct
		case "maturity":
			return a.Quote.DaysToMaturity < b.Quote.DaysToMaturity
		default: // tvl
			return a.Quote.TVLUSD > b.Quote.TVLUSD
		}
	})
}

// Detail returns the full analysis for one market.
func (h *MarketsHandler) Detail(c echo.Context) error {
	chainID, address, appErr := marketParams(c)
	if appErr != nil {
		return xhttp.AppErrorResponse(c, appErr)
	}
	a, ok := h.refresher.Get(chainID, address)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("market %d:%s not found", chainID, address))
	}
	return xhttp.SuccessResponse(c, a)
}

// historyResponse is the chart-ready view of a market's merged series.
type historyResponse struct {
	Window        string              `json:"window"`
	Points        []historyPoint      `json:"points"`
	Stats         *models.SeriesStats `json:"stats,omitempty"`
	MovingAverage []float64           `json:"movingAverage"`
}

type historyPoint struct {
	Date          string  `json:"date"`
	ImpliedPct    float64 `json:"implied"`
	UnderlyingPct float64 `json:"underlying"`
}

// History returns the merged series for one market, percent units, with
// per-window stats and a trailing moving average for chart overlays.
func (h *MarketsHandler) History(c echo.Context) error {
	chainID, address, appErr := marketParams(c)
	if appErr != nil {
		return xhttp.AppErrorResponse(c, appErr)
	}
	req := &models.MarketHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	window := drepo.NormalizeWindow(req.Window)

	series, err := h.history.Series(c.Request().Context(), chainID, address)
	if err != nil {
		h.log.Error("history fetch failed",
			applogger.Int("chain", chainID),
			applogger.String("address", address),
			applogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.InternalError("history unavailable"))
	}
	windowed := series.Window(window.Days())

	implied := windowed.ImpliedPct()
	resp := historyResponse{
		Window:        string(window),
		Points:        make([]historyPoint, len(windowed)),
		MovingAverage: stats.MovingAverage(implied, req.MA),
	}
	for i, p := range windowed {
		resp.Points[i] = historyPoint{
			Date:          models.DayUTC(p.Date).Format("2006-01-02"),
			ImpliedPct:    p.ImpliedAPY * 100,
			UnderlyingPct: p.UnderlyingAPY * 100,
		}
	}
	if s, ok := stats.Describe(implied); ok {
		resp.Stats = &s
	}
	return xhttp.SuccessResponse(c, resp)
}

// signalRow is the compact per-market signal view.
type signalRow struct {
	Key       string            `json:"key"`
	Name      string            `json:"name"`
	Kind      models.SignalKind `json:"kind"`
	Rationale string            `json:"rationale"`
}

// Signals returns just the current signal per market.
func (h *MarketsHandler) Signals(c echo.Context) error {
	analyses := h.refresher.Latest()
	rows := make([]signalRow, len(analyses))
	for i, a := range analyses {
		rows[i] = signalRow{
			Key:       a.Quote.Key(),
			Name:      a.Quote.Name,
			Kind:      a.Signal.Kind,
			Rationale: a.Signal.Rationale,
		}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Live upgrades to WebSocket and subscribes the client to refresh pushes.
func (h *MarketsHandler) Live(c echo.Context) error {
	return h.hub.Serve(c.Response(), c.Request())
}

// Healthz reports liveness plus dependency state.
func (h *MarketsHandler) Healthz(c echo.Context) error {
	status := map[string]interface{}{
		"status":        "ok",
		"lastRefreshed": h.refresher.LastRefreshed(),
		"markets":       len(h.refresher.Latest()),
	}
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["store"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, status)
		}
		status["store"] = "ok"
	}
	return c.JSON(http.StatusOK, status)
}

func marketParams(c echo.Context) (int, string, *xhttp.AppError) {
	chainID, err := strconv.Atoi(c.Param("chain"))
	if err != nil || chainID <= 0 {
		return 0, "", xhttp.BadRequestErrorf("invalid chain id %q", c.Param("chain"))
	}
	address := strings.ToLower(c.Param("address"))
	if !strings.HasPrefix(address, "0x") || len(address) < 4 {
		return 0, "", xhttp.BadRequestErrorf("invalid market address %q", c.Param("address"))
	}
	return chainID, address, nil
}
