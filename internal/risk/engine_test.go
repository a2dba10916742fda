package risk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emity-labs/emity/internal/types"
)

// scoredPool builds a snapshot carrying a 7d simulation, the shape the
// engine sees after a scan cycle.
func scoredPool(address string, score int, netAfterGas7d, il7d float64) types.PoolSnapshot {
	return types.PoolSnapshot{
		Address:      address,
		Token0Symbol: "WETH",
		Token1Symbol: "USDC",
		Score:        score,
		Simulations: types.SimulationSet{
			types.StrategyOptimized: {
				types.Horizon7d: {
					NetAfterGas:     netAfterGas7d,
					NetReturn:       netAfterGas7d + 0.5,
					TimeInRange:     85,
					ImpermanentLoss: il7d,
				},
			},
		},
	}
}

func TestNewEngine_Defaults(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	cfg := engine.Config()
	assert.Equal(t, 10000.0, cfg.CapitalTotal)
	assert.Equal(t, "conservador", cfg.PerfilRisco)
	assert.Equal(t, 3, cfg.MaxPositions)
	assert.Equal(t, 10.0, cfg.StopLoss)
	assert.Equal(t, 30.0, cfg.MaxPositionSize)
	assert.Equal(t, 60, cfg.MinScore)
	assert.Equal(t, 2.0, cfg.GasMultiplier)

	assert.Equal(t, 20.0, engine.Profile().MaxPositionPct)
}

func TestNewEngine_UnknownProfileFallsBack(t *testing.T) {
	engine := NewEngine(types.RiskConfig{PerfilRisco: "degen"})
	assert.Equal(t, 20.0, engine.Profile().MaxPositionPct)
	assert.Equal(t, 5.0, engine.Profile().MaxILTolerance)
}

func TestCalculatePositionSize_ScoreBelowMinimum(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	decision := engine.CalculatePositionSize(scoredPool("0xa", 50, 5.0, 1.0), 0)

	assert.False(t, decision.CanOperate)
	assert.Equal(t, "Score 50 abaixo do mínimo 60", decision.Reason)
	assert.Zero(t, decision.SizeUSDT)
}

func TestCalculatePositionSize_ScalesWithScore(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	testCases := []struct {
		score        int
		expectedPct  float64
		expectedUSDT float64
	}{
		{60, 10.0, 1000.00},  // floor of the linear scale
		{80, 15.0, 1500.00},  // midpoint
		{100, 20.0, 2000.00}, // conservador profile cap
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("score_%d", tc.score), func(t *testing.T) {
			decision := engine.CalculatePositionSize(scoredPool("0xa", tc.score, 5.0, 1.0), 0)

			require.True(t, decision.CanOperate, decision.Reason)
			assert.Equal(t, tc.expectedPct, decision.SizePct)
			assert.Equal(t, tc.expectedUSDT, decision.SizeUSDT)
			assert.Equal(t, "OK", decision.Reason)
		})
	}
}

func TestCalculatePositionSize_RoundsDownToCents(t *testing.T) {
	engine := NewEngine(types.RiskConfig{CapitalTotal: 9999.99})

	decision := engine.CalculatePositionSize(scoredPool("0xa", 100, 5.0, 1.0), 0)

	// 20% of 9999.99 is 1999.998; must truncate, never round to 2000.00
	assert.Equal(t, 1999.99, decision.SizeUSDT)
}

func TestCalculatePositionSize_OverrideCappedByProfile(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	forced := engine.CalculatePositionSize(scoredPool("0xa", 100, 5.0, 1.0), 15)
	assert.Equal(t, 15.0, forced.SizePct)
	assert.Equal(t, 1500.00, forced.SizeUSDT)

	excessive := engine.CalculatePositionSize(scoredPool("0xa", 100, 5.0, 1.0), 50)
	assert.Equal(t, 20.0, excessive.SizePct, "override above the profile cap is clamped")
}

func TestCalculatePositionSize_GasRejection(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	// 20% of 10k at 0.3% projected return: $6 against a $10 gas floor
	decision := engine.CalculatePositionSize(scoredPool("0xa", 100, 0.3, 1.0), 0)

	assert.False(t, decision.CanOperate)
	assert.Equal(t, "Retorno estimado $6.00 < $10.00 (gas x2.0)", decision.Reason)
	assert.Equal(t, 20.0, decision.SizePct, "size is still reported for the UI")
	assert.Equal(t, 2000.00, decision.SizeUSDT)
}

func TestCalculatePositionSize_GasRejectionSmallPosition(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	// $1000 position at 0.3% projects $3, short of the $10 floor
	decision := engine.CalculatePositionSize(scoredPool("0xa", 100, 0.3, 1.0), 10)

	assert.False(t, decision.CanOperate)
	assert.Equal(t, "Retorno estimado $3.00 < $10.00 (gas x2.0)", decision.Reason)
	assert.Equal(t, 1000.00, decision.SizeUSDT)
}

func TestCalculatePositionSize_GasWarning(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	// $40 projected return: viable, but gas is 12.5% of it
	decision := engine.CalculatePositionSize(scoredPool("0xa", 100, 2.0, 1.0), 0)

	require.True(t, decision.CanOperate)
	require.Len(t, decision.Warnings, 1)
	assert.Contains(t, decision.Warnings[0], "12.5%")
}

func TestCalculatePositionSize_APRFallback(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	// No simulations; apr_7d pro-rated over 7 days must carry the estimate
	pool := types.PoolSnapshot{Address: "0xa", Score: 100, APR7d: 52.0}
	decision := engine.CalculatePositionSize(pool, 0)

	// 2000 * 52% * 7/365 ≈ $19.95, above the $10 floor
	assert.True(t, decision.CanOperate, decision.Reason)
}

func TestCheckMarketConditions_NoPools(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	gate := engine.CheckMarketConditions(nil)

	assert.False(t, gate.CanOperate)
	assert.Equal(t, "Nenhuma pool disponível para análise", gate.Reason)
	assert.Equal(t, "Aguardar scanner coletar dados", gate.Recommendation)
	assert.Empty(t, gate.GoodPools)
	assert.Zero(t, gate.MarketScore)
}

func TestCheckMarketConditions_FavorableMarket(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	pools := []types.PoolSnapshot{
		scoredPool("0xAAA", 80, 3.0, 1.0),
		scoredPool("0xBBB", 90, 4.0, 2.0),
	}

	gate := engine.CheckMarketConditions(pools)

	require.True(t, gate.CanOperate)
	assert.Equal(t, "2 pools viáveis encontradas", gate.Reason)
	assert.Equal(t, 85.0, gate.MarketScore)
	assert.Equal(t, 2, gate.TotalOpportunities)
	require.Len(t, gate.GoodPools, 2)
	assert.Equal(t, "0xaaa", gate.GoodPools[0].PoolAddress, "addresses are normalized to lowercase")
	assert.Equal(t, "0xbbb", gate.GoodPools[1].PoolAddress)
}

func TestCheckMarketConditions_BadMarketSuppressesGoodPool(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	// One excellent pool in a sea of junk: the average gates it out
	pools := []types.PoolSnapshot{
		scoredPool("0xgood", 80, 3.0, 1.0),
		scoredPool("0xbad1", 10, 0, 0),
		scoredPool("0xbad2", 10, 0, 0),
		scoredPool("0xbad3", 10, 0, 0),
	}

	gate := engine.CheckMarketConditions(pools)

	assert.False(t, gate.CanOperate)
	assert.Equal(t, 20.0, gate.MarketScore)
	assert.Equal(t, "Mercado desfavorável (score médio: 20)", gate.Reason)
	assert.Contains(t, gate.Recommendation, "NÃO OPERAR HOJE")
}

func TestCheckMarketConditions_ILToleranceExcludes(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	// conservador tolerates at most 5% IL
	pools := []types.PoolSnapshot{
		scoredPool("0xaaa", 80, 3.0, 6.0),
		scoredPool("0xbbb", 80, 3.0, 4.0),
	}

	gate := engine.CheckMarketConditions(pools)

	require.Len(t, gate.GoodPools, 1)
	assert.Equal(t, "0xbbb", gate.GoodPools[0].PoolAddress)
}

func TestCheckMarketConditions_NegativeReturnExcludes(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	pools := []types.PoolSnapshot{
		scoredPool("0xaaa", 80, -0.5, 1.0),
		scoredPool("0xbbb", 80, 3.0, 1.0),
	}

	gate := engine.CheckMarketConditions(pools)

	require.Len(t, gate.GoodPools, 1)
	assert.Equal(t, "0xbbb", gate.GoodPools[0].PoolAddress)
}

func TestCheckMarketConditions_TruncatesToMaxPositions(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	var pools []types.PoolSnapshot
	for i := 0; i < 5; i++ {
		pools = append(pools, scoredPool(fmt.Sprintf("0xpool%d", i), 80, 3.0, 1.0))
	}

	gate := engine.CheckMarketConditions(pools)

	require.True(t, gate.CanOperate)
	assert.Equal(t, 5, gate.TotalOpportunities, "total counts every viable pool")
	assert.Len(t, gate.GoodPools, 3, "entries are capped at max_positions")
}

func TestCalculatePortfolioAllocation_GateClosed(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	allocation := engine.CalculatePortfolioAllocation(nil)

	assert.False(t, allocation.CanOperate)
	assert.Empty(t, allocation.Allocations)
	assert.Equal(t, "Nenhuma pool disponível para análise", allocation.Reason)
}

func TestCalculatePortfolioAllocation_GreedyOrderPreserving(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	pools := []types.PoolSnapshot{
		scoredPool("0xaaa", 100, 5.0, 1.0),
		scoredPool("0xbbb", 100, 5.0, 1.0),
		scoredPool("0xccc", 100, 5.0, 1.0),
	}

	allocation := engine.CalculatePortfolioAllocation(pools)

	require.True(t, allocation.CanOperate)
	require.Len(t, allocation.Allocations, 3)
	assert.Equal(t, "0xaaa", allocation.Allocations[0].PoolAddress)
	assert.Equal(t, "0xbbb", allocation.Allocations[1].PoolAddress)
	assert.Equal(t, "0xccc", allocation.Allocations[2].PoolAddress)

	assert.Equal(t, "3 posições alocadas", allocation.Reason)
	assert.Equal(t, 6000.00, allocation.TotalAllocatedUSDT)
	assert.Equal(t, 60.0, allocation.TotalAllocatedPct)
	assert.Equal(t, 4000.00, allocation.RemainingCapital)
}

func TestCalculatePortfolioAllocation_CapitalExhaustion(t *testing.T) {
	// agressivo sizes score-100 pools at 40% each; the third does not fit
	engine := NewEngine(types.RiskConfig{PerfilRisco: "agressivo", MaxPositionSize: 50})

	pools := []types.PoolSnapshot{
		scoredPool("0xaaa", 100, 5.0, 1.0),
		scoredPool("0xbbb", 100, 5.0, 1.0),
		scoredPool("0xccc", 100, 5.0, 1.0),
	}

	allocation := engine.CalculatePortfolioAllocation(pools)

	require.True(t, allocation.CanOperate)
	require.Len(t, allocation.Allocations, 2)
	assert.Equal(t, 8000.00, allocation.TotalAllocatedUSDT)
	assert.Equal(t, 2000.00, allocation.RemainingCapital)
}

func TestSyncPositionValues(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	testCases := []struct {
		name         string
		value        float64
		valueType    string
		expectedPct  float64
		expectedUSDT float64
	}{
		{"pct to usdt", 15, "pct", 15.0, 1500.00},
		{"pct clamped to 100", 150, "pct", 100.0, 10000.00},
		{"usdt to pct", 2500, "usdt", 25.0, 2500.00},
		{"usdt clamped to capital", 12000, "usdt", 100.0, 10000.00},
		{"negative pct clamped to zero", -5, "pct", 0.0, 0.0},
		{"negative usdt clamped to zero", -500, "usdt", 0.0, 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pct, usdt := engine.SyncPositionValues(tc.value, tc.valueType)
			assert.Equal(t, tc.expectedPct, pct)
			assert.Equal(t, tc.expectedUSDT, usdt)
		})
	}
}

func TestValidateStopLoss(t *testing.T) {
	engine := NewEngine(types.RiskConfig{})

	t.Run("breach triggers stop", func(t *testing.T) {
		decision := engine.ValidateStopLoss(-150, 1000)

		require.True(t, decision.ShouldStop)
		assert.Equal(t, "Stop Loss atingido: -15.00%", decision.Reason)
		assert.Equal(t, -150.0, decision.LossAmount)
	})

	t.Run("exact threshold triggers stop", func(t *testing.T) {
		decision := engine.ValidateStopLoss(-100, 1000)
		assert.True(t, decision.ShouldStop)
	})

	t.Run("loss within tolerance", func(t *testing.T) {
		decision := engine.ValidateStopLoss(-50, 1000)

		assert.False(t, decision.ShouldStop)
		assert.Equal(t, -5.0, decision.CurrentLossPct)
	})

	t.Run("profitable position", func(t *testing.T) {
		assert.False(t, engine.ValidateStopLoss(80, 1000).ShouldStop)
	})

	t.Run("zero position size", func(t *testing.T) {
		assert.False(t, engine.ValidateStopLoss(-500, 0).ShouldStop)
	})
}
