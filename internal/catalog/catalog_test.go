package catalog

import "testing"

func TestMatchTerm(t *testing.T) {
	cases := []struct {
		haystack, term string
		want           bool
	}{
		{"PT-wstETH-26DEC2024", "wsteth", true},
		{"PT-wstETH-26DEC2024", "WSTETH", true},
		{"sUSDe (Ethena)", "susde", true},
		{"PT-weETH-27JUN2025", "ezeth", false},
		{"anything", "", false},
		{"", "wsteth", false},
	}
	for _, c := range cases {
		if got := MatchTerm(c.haystack, c.term); got != c.want {
			t.Errorf("MatchTerm(%q, %q) = %v, want %v", c.haystack, c.term, got, c.want)
		}
	}
}

func TestCategoryOf(t *testing.T) {
	if c, ok := CategoryOf("PT-rsETH-26SEP2025"); !ok || c.Name != "eth_liquid_staking" {
		t.Fatalf("rsETH should be liquid staking, got %v ok=%v", c.Name, ok)
	}
	if c, ok := CategoryOf("LBTC (Lombard)"); !ok || c.Name != "btc_wrapped" {
		t.Fatalf("LBTC should be wrapped BTC, got %v ok=%v", c.Name, ok)
	}
	if c, ok := CategoryOf("sUSDe-26MAR2026"); !ok || c.Name != "stablecoin" {
		t.Fatalf("sUSDe should be stablecoin, got %v ok=%v", c.Name, ok)
	}
	if _, ok := CategoryOf("SOME-EXOTIC-TOKEN"); ok {
		t.Fatalf("unknown asset should not resolve to a category")
	}
}

func TestPairsForMostSpecificFirst(t *testing.T) {
	pairs := PairsFor("PT-sUSDe-25SEP2025", 1)
	if len(pairs) < 2 {
		t.Fatalf("sUSDe should match both the sUSDe and USDe pairs, got %d", len(pairs))
	}
	if pairs[0].CollateralTerm != "susde" {
		t.Fatalf("most specific pair must come first, got %q", pairs[0].CollateralTerm)
	}
}

func TestPairsForChainFilter(t *testing.T) {
	if pairs := PairsFor("PT-rsETH-26SEP2025", 1); len(pairs) != 0 {
		t.Fatalf("rsETH pair is Arbitrum-only, got %d pairs on mainnet", len(pairs))
	}
	if pairs := PairsFor("PT-rsETH-26SEP2025", 42161); len(pairs) != 1 {
		t.Fatalf("expected one rsETH pair on Arbitrum, got %d", len(pairs))
	}
}

func TestIncidentsFor(t *testing.T) {
	if got := IncidentsFor("PT-ezETH-26DEC2024", "arbitrum"); len(got) != 1 {
		t.Fatalf("ezETH incident is chain-agnostic, got %d matches", len(got))
	}
	if got := IncidentsFor("PT-sUSDe-25SEP2025", "arbitrum"); len(got) != 0 {
		t.Fatalf("sUSDe incident is mainnet-only, got %d matches", len(got))
	}
	if got := IncidentsFor("PT-sUSDe-25SEP2025", "Ethereum"); len(got) != 1 {
		t.Fatalf("chain match should be case-insensitive, got %d", len(got))
	}
}

func TestChainName(t *testing.T) {
	if ChainName(1) != "ethereum" {
		t.Fatalf("unexpected name for chain 1: %q", ChainName(1))
	}
	if ChainName(999999) != "999999" {
		t.Fatalf("unknown chains fall back to the id, got %q", ChainName(999999))
	}
}
