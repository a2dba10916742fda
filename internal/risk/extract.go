/*

This file contains the consolidated 7-day simulation view the risk engine
consumes. Extraction picks the strategy with the best net-after-gas return
from a pool's typed simulation set.

*/

package risk

import (
	"math"

	"github.com/emity-labs/emity/internal/types"
	"github.com/emity-labs/emity/internal/utils"
)

// ExtractSimulation7d collapses a pool's per-strategy simulations into the
// single 7-day view used for gas viability and market gating. The best
// strategy is the one with the highest net-after-gas return. Found is false
// when the snapshot carries no usable 7-day simulation.
func ExtractSimulation7d(snapshot types.PoolSnapshot) types.Simulation7d {
	best := types.Simulation7d{}
	bestNet := math.Inf(-1)

	for _, strategy := range types.Strategies {
		horizons, ok := snapshot.Simulations[strategy]
		if !ok {
			continue
		}
		sim, ok := horizons[types.Horizon7d]
		if !ok {
			continue
		}

		netAfterGas := utils.Sanitize(sim.NetAfterGas, 0)
		if netAfterGas <= bestNet && best.Found {
			continue
		}

		bestNet = netAfterGas
		best = types.Simulation7d{
			NetReturn:    utils.Sanitize(sim.NetReturn, netAfterGas),
			NetAfterGas:  netAfterGas,
			TimeInRange:  utils.Sanitize(sim.TimeInRange, 0),
			ILPercentage: math.Abs(utils.Sanitize(sim.ImpermanentLoss, 0)),
			Found:        true,
		}
	}

	return best
}
