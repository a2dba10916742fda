package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emity-labs/emity/internal/types"
)

func TestGenerateRanges_SpreadOrdering(t *testing.T) {
	snapshot := types.PoolSnapshot{
		Address:      "0xpool",
		CurrentPrice: 3450.50,
		Volatility:   2.5,
	}

	ranges := GenerateRanges(snapshot)
	require.Len(t, ranges, 3)

	for _, strategy := range types.Strategies {
		spec, ok := ranges[strategy]
		require.True(t, ok, "missing range for %s", strategy)
		assert.Less(t, spec.MinPrice, snapshot.CurrentPrice, "%s min must be below current price", strategy)
		assert.Greater(t, spec.MaxPrice, snapshot.CurrentPrice, "%s max must be above current price", strategy)
		assert.Equal(t, strategy, spec.Strategy)
		assert.NotEmpty(t, spec.Description)
	}

	defensive := ranges[types.StrategyDefensive]
	optimized := ranges[types.StrategyOptimized]
	aggressive := ranges[types.StrategyAggressive]
	assert.Greater(t, defensive.SpreadPercent, optimized.SpreadPercent)
	assert.Greater(t, optimized.SpreadPercent, aggressive.SpreadPercent)

	assert.InDelta(t, 30.0, defensive.SpreadPercent, 1e-9)
	assert.InDelta(t, 16.0, optimized.SpreadPercent, 1e-9)
	assert.InDelta(t, 8.0, aggressive.SpreadPercent, 1e-9)
}

func TestGenerateRanges_HighVolatilityWidens(t *testing.T) {
	calm := GenerateRanges(types.PoolSnapshot{CurrentPrice: 100, Volatility: 10})
	volatile := GenerateRanges(types.PoolSnapshot{CurrentPrice: 100, Volatility: 20})

	for _, strategy := range types.Strategies {
		assert.Greater(t, volatile[strategy].SpreadPercent, calm[strategy].SpreadPercent,
			"%s range should widen above the volatility knee", strategy)
		assert.Less(t, volatile[strategy].MinPrice, calm[strategy].MinPrice)
		assert.Greater(t, volatile[strategy].MaxPrice, calm[strategy].MaxPrice)
	}

	// vol=20 scales defensive to 0.8075 / 1.2075 around the price
	defensive := volatile[types.StrategyDefensive]
	assert.InDelta(t, 80.75, defensive.MinPrice, 1e-9)
	assert.InDelta(t, 120.75, defensive.MaxPrice, 1e-9)
}

func TestGenerateRanges_DegeneratePrice(t *testing.T) {
	for _, price := range []float64{0, -5} {
		ranges := GenerateRanges(types.PoolSnapshot{CurrentPrice: price, Volatility: 2.5})

		defensive := ranges[types.StrategyDefensive]
		assert.InDelta(t, DefaultCurrentPrice*0.85, defensive.MinPrice, 1e-9)
		assert.InDelta(t, DefaultCurrentPrice*1.15, defensive.MaxPrice, 1e-9)
	}
}

func TestEffectiveVolatility(t *testing.T) {
	assert.Equal(t, 12.0, EffectiveVolatility(types.PoolSnapshot{Volatility: 12.0, PriceChange24h: -3}))
	assert.Equal(t, 3.0, EffectiveVolatility(types.PoolSnapshot{PriceChange24h: -3}))
	assert.Equal(t, DefaultVolatility, EffectiveVolatility(types.PoolSnapshot{}))
}

func TestEstimateTimeInRange(t *testing.T) {
	testCases := []struct {
		name       string
		volatility float64
		spread     float64
		expected   float64
	}{
		{"very wide range", 10, 35, 0.95},
		{"wide range", 10, 25, 0.85},
		{"comfortable range", 10, 16, 0.75},
		{"matched range", 10, 12, 0.65},
		{"tight range", 10, 6, 0.50},
		{"very tight range", 10, 4, 0.35},
		{"volatility floored at one", 0.5, 2, 0.75},
		{"zero spread", 10, 0, 0.0},
		{"negative spread", 10, -1, 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EstimateTimeInRange(tc.volatility, tc.spread))
		})
	}
}

func TestEstimateTimeInRange_MonotonicInSpread(t *testing.T) {
	prev := 0.0
	for _, spread := range []float64{0, 2, 6, 12, 16, 25, 35} {
		cur := EstimateTimeInRange(10, spread)
		assert.GreaterOrEqual(t, cur, prev, "time in range must not drop as the spread widens")
		prev = cur
	}
}
