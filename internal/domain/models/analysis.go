package models

import "time"

// SignalKind enumerates the closed set of per-market classifications.
// Exactly one is assigned per market per evaluation.
type SignalKind string

const (
	SignalPTFixed        SignalKind = "pt_fixed"
	SignalYTLeverage     SignalKind = "yt_leverage"
	SignalNeutral        SignalKind = "neutral"
	SignalLPBest         SignalKind = "lp_best"
	SignalLoop           SignalKind = "loop"
	SignalBelowWatermark SignalKind = "below_watermark"
	SignalPurePoints     SignalKind = "pure_points"
)

// Signal carries the classification plus a rationale built from the inputs
// that produced it. Presentation (color, icon) belongs to consumers.
type Signal struct {
	Kind      SignalKind
	Rationale string
}

// SeriesStats summarizes a percent-scaled APY series over one window.
// StdDev is the population standard deviation.
type SeriesStats struct {
	Min     float64
	Max     float64
	Avg     float64
	StdDev  float64
	Current float64
	Count   int
}

type ReversionStrength string

const (
	ReversionStrong ReversionStrength = "strong"
	ReversionMild   ReversionStrength = "mild"
	ReversionNone   ReversionStrength = "none"
)

// MeanReversion grades how far the current implied APY sits from its
// historical mean, in population standard deviations.
type MeanReversion struct {
	ZScore    float64
	Strength  ReversionStrength
	Favors    SignalKind // SignalPTFixed, SignalYTLeverage or SignalNeutral
	Rationale string
}

// SharpeLeg is one side of the PT-versus-YT risk-adjusted comparison.
type SharpeLeg struct {
	ExcessReturnPct float64
	Volatility      float64
	Sharpe          float64
}

// SharpeComparison is a heuristic risk-adjusted comparison of holding PT
// versus levered YT. Volatility inputs are APY-series dispersion, not
// price vol; treat the numbers as a screen, not ground truth.
type SharpeComparison struct {
	PT         SharpeLeg
	YT         SharpeLeg
	YTLeverage float64 // capped leverage used for the YT leg
	Preferred  SignalKind
}

type CrossAssetStance string

const (
	StanceRichToPeers  CrossAssetStance = "rich_to_peers"
	StanceCheapToPeers CrossAssetStance = "cheap_to_peers"
	StanceInLine       CrossAssetStance = "in_line"
)

// CrossAssetComparison positions a market's implied APY against the other
// markets sharing its asset category.
type CrossAssetComparison struct {
	Category      string
	PeerCount     int
	AvgImpliedPct float64
	DiffPct       float64 // market implied minus peer average
	Stance        CrossAssetStance
	Rationale     string
}

type VerifyOutcome string

const (
	VerifyMatch     VerifyOutcome = "verified_match"
	VerifyDivergent VerifyOutcome = "verified_divergent"
	VerifyUnsourced VerifyOutcome = "unverified"
)

// UnderlyingVerification cross-checks the venue-reported underlying APY
// against a protocol-native source when one exists for the category.
// Unsourced is a distinct outcome, never folded into match or divergence.
type UnderlyingVerification struct {
	Outcome      VerifyOutcome
	SourceAPYPct float64
	DeltaPct     float64
}

// LoopMetrics are the leverage economics of borrowing against PT
// collateral and re-buying PT with the proceeds.
type LoopMetrics struct {
	MaxLeverage          float64
	SafeLeverage         float64
	EffectiveAPYPct      float64
	APYBoostPct          float64
	LiquidationBufferPct float64
}

// LoopOpportunity is a curated looping venue surfaced for one market.
type LoopOpportunity struct {
	Platform         string
	CollateralSymbol string
	BorrowSymbol     string
	LTV              float64
	BorrowRatePct    float64
	LoopMetrics
}

type BreachSeverity string

const (
	BreachMedium   BreachSeverity = "medium"
	BreachHigh     BreachSeverity = "high"
	BreachCritical BreachSeverity = "critical"
)

// WatermarkBreach is a single-day suspicious drop in underlying yield.
// APYs and the day-over-day change are percent values.
type WatermarkBreach struct {
	Date      time.Time
	FromAPY   float64
	ToAPY     float64
	ChangePct float64
	Severity  BreachSeverity
}

type RiskPeriodKind string

const (
	RiskNegativeYield RiskPeriodKind = "negative_yield"
	RiskNearZeroYield RiskPeriodKind = "near_zero_yield"
)

// YieldRiskPeriod marks a stretch where the underlying APY sat below the
// near-zero threshold. EndDate is zero while the period is still open at
// the end of the series.
type YieldRiskPeriod struct {
	Kind      RiskPeriodKind
	StartDate time.Time
	EndDate   time.Time
	MinAPY    float64
}

// Incident is a documented watermark-breach event, curated as static data.
// Matched incidents are attached to an analysis as ground truth regardless
// of what the series scan detected.
type Incident struct {
	Asset        string
	Chain        string // empty = any chain
	Date         time.Time
	Description  string
	BeforeAPYPct float64
	AfterAPYPct  float64
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// WatermarkAnalysis is the risk read over one market's yield history.
// Never mutated after computation.
type WatermarkAnalysis struct {
	Breaches       []WatermarkBreach
	RiskPeriods    []YieldRiskPeriod
	MaxDrawdownPct float64
	RiskLevel      RiskLevel
	KnownEvents    []Incident
}

type StrategyKind string

const (
	StrategyPT   StrategyKind = "pt_fixed"
	StrategyYT   StrategyKind = "yt_leveraged"
	StrategyLP   StrategyKind = "lp"
	StrategyHold StrategyKind = "hold"
	StrategyLoop StrategyKind = "loop"
)

// StrategyOutcome is one simulated strategy's projected result in USD.
type StrategyOutcome struct {
	Strategy   StrategyKind
	FinalValue float64
	Profit     float64
	Detail     string
}

// StrategyComparison ranks simulated strategies for one what-if scenario.
// Outcomes are descending by final value; ties keep input order.
type StrategyComparison struct {
	Outcomes     []StrategyOutcome
	Winner       StrategyKind
	RunnerUp     StrategyKind
	AdvantageUSD float64
}

// ComparisonParams are the comparator inputs. Rates are annualized percent;
// nil optionals drop the corresponding strategy from the ranking.
type ComparisonParams struct {
	InvestmentUSD float64
	Days          float64
	PTPrice       float64
	YTPrice       float64
	FutureAPYPct  float64
	LPAPYPct      *float64
	Loop          *LoopMetrics
}

// MarketAnalysis is the full analytical read for one market: the snapshot
// quote plus every derived signal the engine produces. Optional sections
// are nil when their inputs were insufficient; Errors carries per-section
// notes so one bad input never sinks a batch.
type MarketAnalysis struct {
	Quote         MarketQuote
	FixedAPYPct   float64
	Signal        Signal
	Stats         map[string]SeriesStats // keyed by window: all, 90d, 30d, 7d
	MeanReversion *MeanReversion
	Sharpe        *SharpeComparison
	CrossAsset    *CrossAssetComparison
	Verification  *UnderlyingVerification
	Watermark     *WatermarkAnalysis
	Loop          *LoopOpportunity
	GeneratedAt   time.Time
	Errors        map[string]string
}
