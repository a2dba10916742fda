/*

This file contains range generation for pools: three candidate price ranges
(defensive, optimized, aggressive) derived from the current price and a
volatility proxy.

*/

package analyzer

import (
	"math"

	"github.com/emity-labs/emity/internal/logger"
	"github.com/emity-labs/emity/internal/types"
)

var rangeLogger = logger.GetForComponent("range_generator")

// Base multiplier pairs per strategy. Defensive is the widest band, aggressive
// the narrowest. Volatility above 15 widens both bounds proportionally.
var rangeMultipliers = map[types.Strategy]struct{ Lower, Upper float64 }{
	types.StrategyDefensive:  {0.85, 1.15}, // ±15%
	types.StrategyOptimized:  {0.92, 1.08}, // ±8%
	types.StrategyAggressive: {0.96, 1.04}, // ±4%
}

var strategyDescriptions = map[types.Strategy]string{
	types.StrategyDefensive:  "🛡️ Conservador - Range amplo para menor risco",
	types.StrategyOptimized:  "⚖️ Balanceado - Equilíbrio entre risco e retorno",
	types.StrategyAggressive: "🚀 Agressivo - Range estreito para máximo retorno",
}

// DefaultCurrentPrice substitutes degenerate (zero or negative) prices so a
// range is never computed around a non-positive center.
const DefaultCurrentPrice = 1000.0

// DefaultVolatility substitutes a zero volatility proxy.
const DefaultVolatility = 2.5

// EffectiveVolatility resolves the volatility proxy for a snapshot: the
// dedicated field when set, else |price_change_24h|, else a small default.
func EffectiveVolatility(snapshot types.PoolSnapshot) float64 {
	vol := snapshot.Volatility
	if vol <= 0 || math.IsNaN(vol) || math.IsInf(vol, 0) {
		vol = math.Abs(snapshot.PriceChange24h)
	}
	if vol <= 0 || math.IsNaN(vol) || math.IsInf(vol, 0) {
		vol = DefaultVolatility
	}
	return vol
}

// GenerateRanges produces the three candidate ranges for a snapshot.
// Inputs:
//   - snapshot: the pool market state; only CurrentPrice and the volatility
//     proxy are consulted.
//
// Output:
//   - A RangeSet with one RangeSpec per strategy. min_price < max_price holds
//     for every entry, and the spread strictly decreases from defensive to
//     aggressive.
func GenerateRanges(snapshot types.PoolSnapshot) types.RangeSet {
	currentPrice := snapshot.CurrentPrice
	if currentPrice <= 0 || math.IsNaN(currentPrice) || math.IsInf(currentPrice, 0) {
		rangeLogger.Warn().
			Str("pool", snapshot.Address).
			Float64("currentPrice", snapshot.CurrentPrice).
			Msg("Degenerate current price, substituting default")
		currentPrice = DefaultCurrentPrice
	}

	volatility := EffectiveVolatility(snapshot)

	ranges := make(types.RangeSet, len(types.Strategies))
	for _, strategy := range types.Strategies {
		mult := rangeMultipliers[strategy]
		lowerMult := mult.Lower
		upperMult := mult.Upper

		// Expand the band for volatile pools
		if volatility > 15 {
			lowerMult *= 1 - (volatility-15)/100
			upperMult *= 1 + (volatility-15)/100
		}

		ranges[strategy] = types.RangeSpec{
			MinPrice:      currentPrice * lowerMult,
			MaxPrice:      currentPrice * upperMult,
			SpreadPercent: (upperMult - lowerMult) * 100,
			Strategy:      strategy,
			Description:   strategyDescriptions[strategy],
		}
	}

	rangeLogger.Debug().
		Str("pool", snapshot.Address).
		Float64("currentPrice", currentPrice).
		Float64("volatility", volatility).
		Float64("defensiveSpread", ranges[types.StrategyDefensive].SpreadPercent).
		Float64("aggressiveSpread", ranges[types.StrategyAggressive].SpreadPercent).
		Msg("Generated candidate ranges")

	return ranges
}

// EstimateTimeInRange estimates the probability (0.0-1.0) that the pool price
// stays inside a range, as a step function of spread relative to volatility.
// A wider spread relative to volatility means more time in range. The five
// breakpoints are load-bearing: the scorer and the risk engine both gate on
// this output.
func EstimateTimeInRange(volatility, spread float64) float64 {
	if spread <= 0 {
		return 0.0
	}

	ratio := spread / math.Max(volatility, 1.0)

	switch {
	case ratio > 3:
		return 0.95
	case ratio > 2:
		return 0.85
	case ratio > 1.5:
		return 0.75
	case ratio > 1:
		return 0.65
	case ratio > 0.5:
		return 0.50
	default:
		return 0.35
	}
}
