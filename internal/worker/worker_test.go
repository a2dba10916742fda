package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emity-labs/emity/internal/types"
)

func TestShouldAlertOpportunity(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		score     int
		lastAlert time.Time
		expected  bool
	}{
		{"score below threshold", 74, time.Time{}, false},
		{"score at threshold, never alerted", 75, time.Time{}, true},
		{"high score, never alerted", 92, time.Time{}, true},
		{"within cooldown", 92, now.Add(-2 * time.Hour), false},
		{"cooldown elapsed", 92, now.Add(-6 * time.Hour), true},
		{"just inside cooldown", 92, now.Add(-6*time.Hour + time.Second), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pool := types.PoolSnapshot{Address: "0xa", Score: tc.score}
			assert.Equal(t, tc.expected, shouldAlertOpportunity(pool, tc.lastAlert, now))
		})
	}
}

func TestRiskReasons_HighIL(t *testing.T) {
	pool := types.PoolSnapshot{Address: "0xa", IL7d: 6.2}

	reasons := riskReasons(pool)

	require.Len(t, reasons, 1)
	assert.Equal(t, "Impermanent Loss alto: 6.20%", reasons[0])
}

func TestRiskReasons_GasDominatesReturn(t *testing.T) {
	// Best projected 30d return of $20: flat $5 gas is 25% of it
	pool := types.PoolSnapshot{
		Address: "0xa",
		Simulations: types.SimulationSet{
			types.StrategyOptimized: {
				types.Horizon30d: {NetReturn: 20.0},
			},
		},
	}

	reasons := riskReasons(pool)

	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "Gas cost muito alto")
	assert.Contains(t, reasons[0], "25.0% do retorno")
}

func TestRiskReasons_HealthyPool(t *testing.T) {
	pool := types.PoolSnapshot{
		Address: "0xa",
		IL7d:    1.0,
		Simulations: types.SimulationSet{
			types.StrategyOptimized: {
				types.Horizon30d: {NetReturn: 100.0},
			},
		},
	}

	assert.Empty(t, riskReasons(pool))
}

func TestRiskReasons_PicksBestStrategyForGasCheck(t *testing.T) {
	// One weak strategy does not flag the pool when a better one clears gas
	pool := types.PoolSnapshot{
		Address: "0xa",
		Simulations: types.SimulationSet{
			types.StrategyAggressive: {
				types.Horizon30d: {NetReturn: 8.0},
			},
			types.StrategyDefensive: {
				types.Horizon30d: {NetReturn: 60.0},
			},
		},
	}

	assert.Empty(t, riskReasons(pool))
}

func TestNeedsMaintenance(t *testing.T) {
	assert.True(t, needsMaintenance(types.Position{TimeInRange: 49.9}))
	assert.True(t, needsMaintenance(types.Position{TimeInRange: 0}))
	assert.False(t, needsMaintenance(types.Position{TimeInRange: 50.0}))
	assert.False(t, needsMaintenance(types.Position{TimeInRange: 92.5}))
}
