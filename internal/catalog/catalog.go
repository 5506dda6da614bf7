// Package catalog holds the curated static tables the signal engine leans
// on: asset categories for cross-asset comparison, verified lending pairs
// for loop discovery, documented watermark incidents, and chain naming.
// Tables are configuration data, ordered most-specific-first; every name
// lookup goes through MatchTerm.
package catalog

import (
	"strconv"
	"strings"
	"time"

	"pendlescope/internal/domain/models"
)

// AssetCategory groups markets whose underlying tracks the same base asset.
type AssetCategory struct {
	Name  string
	Terms []string
}

// LendingPair is a verified looping venue: the PT accepted as collateral,
// its quoted LTV and borrow rate, and the chains it operates on.
type LendingPair struct {
	Platform         string
	CollateralTerm   string
	CollateralSymbol string
	BorrowSymbol     string
	LTV              float64
	BorrowRatePct    float64
	ChainIDs         []int
}

var categories = []AssetCategory{
	{Name: "eth_liquid_staking", Terms: []string{
		"wsteth", "steth", "weeth", "eeth", "ezeth", "rseth", "pufeth",
		"oseth", "sweth", "reth", "cbeth",
	}},
	{Name: "btc_wrapped", Terms: []string{
		"solvbtc", "pumpbtc", "unibtc", "cbbtc", "ebtc", "lbtc", "wbtc",
	}},
	{Name: "stablecoin", Terms: []string{
		"susde", "usde", "susds", "usds", "sdai", "dai", "usd0",
		"crvusd", "gusd", "frax", "usdc", "usdt",
	}},
}

var lendingPairs = []LendingPair{
	{Platform: "Morpho", CollateralTerm: "susde", CollateralSymbol: "PT-sUSDe", BorrowSymbol: "DAI", LTV: 0.86, BorrowRatePct: 6.5, ChainIDs: []int{1}},
	{Platform: "Morpho", CollateralTerm: "usde", CollateralSymbol: "PT-USDe", BorrowSymbol: "DAI", LTV: 0.86, BorrowRatePct: 6.5, ChainIDs: []int{1}},
	{Platform: "Euler", CollateralTerm: "usd0", CollateralSymbol: "PT-USD0++", BorrowSymbol: "USDC", LTV: 0.85, BorrowRatePct: 7.0, ChainIDs: []int{1}},
	{Platform: "Silo", CollateralTerm: "ezeth", CollateralSymbol: "PT-ezETH", BorrowSymbol: "WETH", LTV: 0.82, BorrowRatePct: 2.8, ChainIDs: []int{1, 42161}},
	{Platform: "Silo", CollateralTerm: "weeth", CollateralSymbol: "PT-weETH", BorrowSymbol: "WETH", LTV: 0.82, BorrowRatePct: 2.8, ChainIDs: []int{1, 42161}},
	{Platform: "Dolomite", CollateralTerm: "rseth", CollateralSymbol: "PT-rsETH", BorrowSymbol: "WETH", LTV: 0.80, BorrowRatePct: 3.2, ChainIDs: []int{42161}},
}

var incidents = []models.Incident{
	{
		Asset:        "ezeth",
		Date:         time.Date(2024, 4, 24, 0, 0, 0, 0, time.UTC),
		Description:  "Renzo ezETH depeg: exchange rate fell sharply and leveraged loops were liquidated",
		BeforeAPYPct: 4.1,
		AfterAPYPct:  0.2,
	},
	{
		Asset:        "susde",
		Chain:        "ethereum",
		Date:         time.Date(2024, 4, 13, 0, 0, 0, 0, time.UTC),
		Description:  "Ethena funding flipped negative; sUSDe yield collapsed toward zero",
		BeforeAPYPct: 35.4,
		AfterAPYPct:  1.1,
	},
	{
		Asset:        "usd0",
		Chain:        "ethereum",
		Date:         time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
		Description:  "Usual USD0++ redemption floor change repriced the principal token",
		BeforeAPYPct: 12.6,
		AfterAPYPct:  4.8,
	},
	{
		Asset:        "steth",
		Date:         time.Date(2022, 6, 10, 0, 0, 0, 0, time.UTC),
		Description:  "stETH secondary-market discount widened during the Celsius unwind",
		BeforeAPYPct: 4.3,
		AfterAPYPct:  3.9,
	},
}

var chainNames = map[int]string{
	1:     "ethereum",
	10:    "optimism",
	56:    "bsc",
	146:   "sonic",
	5000:  "mantle",
	8453:  "base",
	42161: "arbitrum",
}

// Categories returns the curated asset categories.
func Categories() []AssetCategory { return categories }

// CategoryOf resolves the asset category for a market name, false when the
// name matches no curated term.
func CategoryOf(name string) (AssetCategory, bool) {
	for _, c := range categories {
		for _, term := range c.Terms {
			if MatchTerm(name, term) {
				return c, true
			}
		}
	}
	return AssetCategory{}, false
}

// PairsFor returns the lending pairs whose collateral term matches the
// market name and which support the chain, in table order.
func PairsFor(name string, chainID int) []LendingPair {
	var out []LendingPair
	for _, p := range lendingPairs {
		if !MatchTerm(name, p.CollateralTerm) {
			continue
		}
		for _, id := range p.ChainIDs {
			if id == chainID {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// IncidentsFor returns documented incidents matching the market name, and
// the chain when the incident names one.
func IncidentsFor(name, chain string) []models.Incident {
	var out []models.Incident
	for _, inc := range incidents {
		if !MatchTerm(name, inc.Asset) {
			continue
		}
		if inc.Chain != "" && !strings.EqualFold(inc.Chain, chain) {
			continue
		}
		out = append(out, inc)
	}
	return out
}

// ChainName returns the canonical lowercase name for an EVM chain id,
// falling back to the decimal id for chains the table does not know.
func ChainName(id int) string {
	if n, ok := chainNames[id]; ok {
		return n
	}
	return strconv.Itoa(id)
}

// MatchTerm reports whether haystack contains term, case-insensitively.
// Substring containment is deliberately loose so venue naming like
// "PT-wstETH-26DEC2024" still hits; tables are ordered most specific
// first because of it. Keep this the single matching primitive.
func MatchTerm(haystack, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(term))
}
