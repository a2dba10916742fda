/*

This is a custom type for pool market snapshots which contains all the state
needed for range generation, scoring, and risk decisions.

*/

package types

import "time"

// PoolSnapshot is an immutable-per-fetch record of one liquidity pool's market
// state. Snapshots are upserted keyed by Address and superseded on every scan
// cycle; derived fields (Score, Recommendation, Explanation, Ranges,
// Simulations) are filled in by the analyzer after the provider fetch.
type PoolSnapshot struct {
	Address        string  `json:"address"`
	Dex            string  `json:"dex"`
	Chain          string  `json:"chain"`
	Token0Symbol   string  `json:"token0_symbol"`
	Token1Symbol   string  `json:"token1_symbol"`
	FeeTier        float64 `json:"fee_tier"`       // percent, e.g. 0.05 / 0.3 / 1.0
	TvlUSD         float64 `json:"tvl_usd"`        // >= 0
	Volume24hUSD   float64 `json:"volume_24h"`     // >= 0
	Fees24hUSD     float64 `json:"fees_24h"`       // >= 0, estimated from volume*fee_tier when absent
	CurrentPrice   float64 `json:"current_price"`  // > 0 once normalized
	PriceChange24h float64 `json:"price_change_24h"`
	Volatility     float64 `json:"volatility"` // |price_change_24h| proxy unless set upstream
	IL7d           float64 `json:"il_7d"`
	FeeAPR         float64 `json:"fee_apr"`
	APR7d          float64 `json:"apr_7d"`

	// Derived by the analyzer.
	Score          int           `json:"score"`
	Recommendation string        `json:"recommendation"`
	Explanation    string        `json:"explanation"`
	Ranges         RangeSet      `json:"ranges,omitempty"`
	Simulations    SimulationSet `json:"simulations,omitempty"`

	LastAnalyzed time.Time `json:"last_analyzed,omitempty"`
	LastUpdate   time.Time `json:"last_update,omitempty"`
}

// Pair returns the pool's token pair in display form, e.g. "ETH/USDC".
func (p PoolSnapshot) Pair() string {
	t0 := p.Token0Symbol
	if t0 == "" {
		t0 = "TOKEN0"
	}
	t1 := p.Token1Symbol
	if t1 == "" {
		t1 = "TOKEN1"
	}
	return t0 + "/" + t1
}
