package models

// Requests for the analytics HTTP endpoints. Defined in domain for
// consistency and reuse.

type ListMarketsRequest struct {
	ChainID  int     `query:"chain" json:"chain" validate:"gte=0"`
	Category string  `query:"category" json:"category"`
	Signal   string  `query:"signal" json:"signal" validate:"omitempty,oneof=pt_fixed yt_leverage neutral lp_best loop below_watermark pure_points"`
	MinTVL   float64 `query:"minTvl" json:"minTvl" validate:"gte=0"`
	SortBy   string  `query:"sortBy" json:"sortBy" default:"tvl" validate:"oneof=tvl implied fixed maturity"`
	Limit    int     `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=500"`
}

type MarketHistoryRequest struct {
	Window string `query:"window" json:"window" default:"90d" validate:"oneof=all 90d 30d 7d"`
	MA     int    `query:"ma" json:"ma" default:"7" validate:"gte=1,lte=60"`
}

type LoopCalcRequest struct {
	FixedAPYPct   float64 `json:"fixedApy" validate:"required,gt=0,lte=1000"`
	LTV           float64 `json:"ltv" validate:"required,gt=0,lt=1"`
	BorrowRatePct float64 `json:"borrowRate" validate:"gte=0,lte=1000"`
}

type StrategyCalcRequest struct {
	InvestmentUSD float64  `json:"investment" default:"1000" validate:"gt=0,lte=1000000000"`
	Days          float64  `json:"days" default:"90" validate:"gt=0,lte=3650"`
	PTPrice       float64  `json:"ptPrice" validate:"required,gt=0,lt=1"`
	FutureAPYPct  float64  `json:"futureApy" validate:"gte=0,lte=1000"`
	LPAPYPct      *float64 `json:"lpApy" validate:"omitempty,gte=0,lte=1000"`
	LoopLTV       *float64 `json:"loopLtv" validate:"omitempty,gt=0,lt=1"`
	LoopBorrowPct *float64 `json:"loopBorrowRate" validate:"omitempty,gte=0,lte=1000"`
}
