package types

// Strategy identifies one of the three candidate range strategies generated per
// pool. The spread strictly decreases from defensive to aggressive.
type Strategy string

const (
	StrategyDefensive  Strategy = "defensive"
	StrategyOptimized  Strategy = "optimized"
	StrategyAggressive Strategy = "aggressive"
)

// Strategies lists all strategies in spread order, widest first. Iteration
// order matters for deterministic output, so callers range over this slice
// instead of a map.
var Strategies = []Strategy{StrategyDefensive, StrategyOptimized, StrategyAggressive}

// Horizon is a simulation projection window in days.
type Horizon string

const (
	Horizon7d  Horizon = "7d"
	Horizon30d Horizon = "30d"
)

// HorizonDays maps each horizon to its day count.
var HorizonDays = map[Horizon]int{
	Horizon7d:  7,
	Horizon30d: 30,
}

// RangeSpec is one candidate price range for a pool. Ranges are recomputed
// fresh on every analysis pass and replaced, never mutated in place.
type RangeSpec struct {
	MinPrice      float64  `json:"min_price"`
	MaxPrice      float64  `json:"max_price"`
	SpreadPercent float64  `json:"spread_percent"`
	Strategy      Strategy `json:"strategy"`
	Description   string   `json:"description"`
}

// RangeSet holds the three generated ranges keyed by strategy.
type RangeSet map[Strategy]RangeSpec

// SimulationResult is the projected outcome for one (pool, strategy, horizon)
// combination. All return figures are percent of capital; GasCost is flat USD.
type SimulationResult struct {
	TimeInRange     float64 `json:"time_in_range"` // 0-100
	FeesCollected   float64 `json:"fees_collected"`
	ImpermanentLoss float64 `json:"impermanent_loss"`
	NetReturn       float64 `json:"net_return"`
	GasCost         float64 `json:"gas_cost"`
	NetAfterGas     float64 `json:"net_after_gas"`
}

// SimulationSet holds per-strategy, per-horizon simulation results.
type SimulationSet map[Strategy]map[Horizon]SimulationResult

// Simulation7d is the consolidated 7-day view the risk engine consumes. It is
// extracted from a SimulationSet (or a persisted blob of one) by picking the
// strategy with the best net-after-gas return.
type Simulation7d struct {
	NetReturn    float64 `json:"net_return"`
	NetAfterGas  float64 `json:"net_after_gas"`
	TimeInRange  float64 `json:"time_in_range"`
	ILPercentage float64 `json:"il_percentage"`
	Found        bool    `json:"-"`
}
