package api

import (
	"github.com/labstack/echo/v4"

	"pendlescope/internal/domain/models"
	"pendlescope/internal/services/loop"
	"pendlescope/internal/services/pricing"
	"pendlescope/internal/services/strategy"
	xhttp "pendlescope/pkg/http"
	applogger "pendlescope/pkg/logger"
)

// CalculatorsHandler exposes the what-if calculators. These are thin
// shells over the pure engine: bind, validate, compute, respond.
type CalculatorsHandler struct {
	log *applogger.Logger
}

func NewCalculatorsHandler(log *applogger.Logger) *CalculatorsHandler {
	return &CalculatorsHandler{log: log}
}

func (h *CalculatorsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/calc")
	g.POST("/strategies", h.Strategies)
	g.POST("/loop", h.Loop)
}

// Strategies projects PT/YT/LP/Hold/Loop outcomes for one scenario and
// returns the ranked comparison.
func (h *CalculatorsHandler) Strategies(c echo.Context) error {
	req := &models.StrategyCalcRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	params := models.ComparisonParams{
		InvestmentUSD: req.InvestmentUSD,
		Days:          req.Days,
		PTPrice:       req.PTPrice,
		YTPrice:       1 - req.PTPrice,
		FutureAPYPct:  req.FutureAPYPct,
		LPAPYPct:      req.LPAPYPct,
	}
	if req.LoopLTV != nil {
		borrow := 0.0
		if req.LoopBorrowPct != nil {
			borrow = *req.LoopBorrowPct
		}
		// the looped collateral earns the scenario's own fixed rate
		fixed := pricing.FixedAPY(req.PTPrice, req.Days)
		if m, ok := loop.Metrics(fixed, *req.LoopLTV, borrow); ok {
			params.Loop = &m
		}
	}

	comparison := strategy.Compare(params)
	if len(comparison.Outcomes) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("scenario not computable from the given inputs"))
	}
	return xhttp.SuccessResponse(c, comparison)
}

// Loop computes leverage economics for one collateral position.
func (h *CalculatorsHandler) Loop(c echo.Context) error {
	req := &models.LoopCalcRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	m, ok := loop.Metrics(req.FixedAPYPct, req.LTV, req.BorrowRatePct)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ltv must be inside (0,1)"))
	}
	return xhttp.SuccessResponse(c, m)
}
