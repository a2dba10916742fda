package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emity-labs/emity/internal/types"
)

func TestExtractSimulation7d_PicksBestNetAfterGas(t *testing.T) {
	snapshot := types.PoolSnapshot{
		Simulations: types.SimulationSet{
			types.StrategyDefensive: {
				types.Horizon7d: {NetAfterGas: 1.2, NetReturn: 1.7, TimeInRange: 95, ImpermanentLoss: 0.3},
			},
			types.StrategyOptimized: {
				types.Horizon7d: {NetAfterGas: 2.8, NetReturn: 3.3, TimeInRange: 85, ImpermanentLoss: 0.6},
			},
			types.StrategyAggressive: {
				types.Horizon7d: {NetAfterGas: 2.1, NetReturn: 2.6, TimeInRange: 65, ImpermanentLoss: 0.9},
			},
		},
	}

	sim := ExtractSimulation7d(snapshot)

	require.True(t, sim.Found)
	assert.Equal(t, 2.8, sim.NetAfterGas)
	assert.Equal(t, 3.3, sim.NetReturn)
	assert.Equal(t, 85.0, sim.TimeInRange)
	assert.Equal(t, 0.6, sim.ILPercentage)
}

func TestExtractSimulation7d_NegativeILReportedAsMagnitude(t *testing.T) {
	snapshot := types.PoolSnapshot{
		Simulations: types.SimulationSet{
			types.StrategyDefensive: {
				types.Horizon7d: {NetAfterGas: 1.0, ImpermanentLoss: -2.5},
			},
		},
	}

	sim := ExtractSimulation7d(snapshot)

	require.True(t, sim.Found)
	assert.Equal(t, 2.5, sim.ILPercentage)
}

func TestExtractSimulation7d_NoSimulations(t *testing.T) {
	assert.False(t, ExtractSimulation7d(types.PoolSnapshot{}).Found)
}

func TestExtractSimulation7d_Missing7dHorizon(t *testing.T) {
	snapshot := types.PoolSnapshot{
		Simulations: types.SimulationSet{
			types.StrategyDefensive: {
				types.Horizon30d: {NetAfterGas: 9.9},
			},
		},
	}

	assert.False(t, ExtractSimulation7d(snapshot).Found)
}

func TestExtractSimulation7d_AllNegativeStillFound(t *testing.T) {
	snapshot := types.PoolSnapshot{
		Simulations: types.SimulationSet{
			types.StrategyDefensive: {
				types.Horizon7d: {NetAfterGas: -0.4, NetReturn: 0.1},
			},
			types.StrategyAggressive: {
				types.Horizon7d: {NetAfterGas: -1.9, NetReturn: -1.4},
			},
		},
	}

	sim := ExtractSimulation7d(snapshot)

	require.True(t, sim.Found)
	assert.Equal(t, -0.4, sim.NetAfterGas)
}
