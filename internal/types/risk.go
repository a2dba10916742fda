package types

import "time"

// RiskConfig is the user-controlled risk policy. It is loaded once per
// decision cycle and passed by value into the risk engine; the engine itself
// holds no mutable state beyond this snapshot.
type RiskConfig struct {
	CapitalTotal    float64 `json:"capital_total"`
	PerfilRisco     string  `json:"perfil_risco"` // conservador | moderado | agressivo
	MaxPositions    int     `json:"max_positions"`
	StopLoss        float64 `json:"stop_loss"`         // percent, positive magnitude
	MaxPositionSize float64 `json:"max_position_size"` // percent cap per position
	MinScore        int     `json:"min_score"`
	GasMultiplier   float64 `json:"gas_multiplier"` // minimum return-to-gas ratio
}

// RiskProfile is the fixed limit bundle a perfil_risco maps to.
type RiskProfile struct {
	MaxPositionPct float64 `json:"max_position_pct"`
	MinScore       int     `json:"min_score"`
	MaxILTolerance float64 `json:"max_il_tolerance"`
	RangeType      string  `json:"range_type"`
}

// PositionSizeDecision is the outcome of sizing a single pool. A negative
// decision is not an error: CanOperate carries the verdict and Reason the
// human-readable cause.
type PositionSizeDecision struct {
	CanOperate bool     `json:"can_operate"`
	Reason     string   `json:"reason"`
	SizePct    float64  `json:"size_pct"`
	SizeUSDT   float64  `json:"size_usdt"`
	GasCost    float64  `json:"gas_cost,omitempty"`
	Warnings   []string `json:"warnings"`
}

// GoodPool is one pool that passed the market-gate criteria.
type GoodPool struct {
	PoolAddress  string  `json:"pool_address"`
	Pair         string  `json:"pair"`
	Score        int     `json:"score"`
	NetReturn    float64 `json:"net_return"`
	ILPercentage float64 `json:"il_percentage"`
}

// MarketGateResult is the go/no-go verdict over a set of scored pools.
// MarketScore averages over all evaluated pools, not just the good ones.
type MarketGateResult struct {
	CanOperate         bool       `json:"can_operate"`
	Reason             string     `json:"reason"`
	Recommendation     string     `json:"recommendation"`
	GoodPools          []GoodPool `json:"good_pools"`
	MarketScore        float64    `json:"market_score"`
	TotalOpportunities int        `json:"total_opportunities"`
}

// PoolAllocation is one accepted entry in a portfolio allocation plan.
type PoolAllocation struct {
	PoolAddress    string   `json:"pool_address"`
	Pair           string   `json:"pair"`
	Score          int      `json:"score"`
	AllocationPct  float64  `json:"allocation_pct"`
	AllocationUSDT float64  `json:"allocation_usdt"`
	ExpectedReturn float64  `json:"expected_return"`
	Warnings       []string `json:"warnings"`
}

// PortfolioAllocation is the result of greedily allocating capital across the
// market gate's good pools.
type PortfolioAllocation struct {
	CanOperate         bool             `json:"can_operate"`
	Reason             string           `json:"reason"`
	Recommendation     string           `json:"recommendation"`
	Allocations        []PoolAllocation `json:"allocations"`
	TotalAllocatedUSDT float64          `json:"total_allocated_usdt"`
	TotalAllocatedPct  float64          `json:"total_allocated_pct"`
	RemainingCapital   float64          `json:"remaining_capital"`
	MarketScore        float64          `json:"market_score"`
}

// StopLossDecision reports whether an open position breached its stop loss.
type StopLossDecision struct {
	ShouldStop     bool    `json:"should_stop"`
	Reason         string  `json:"reason,omitempty"`
	LossAmount     float64 `json:"loss_amount,omitempty"`
	CurrentLossPct float64 `json:"current_loss_pct,omitempty"`
}

// ConfigChange is one audit-trail entry appended on every RiskConfig update.
type ConfigChange struct {
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedAt time.Time `json:"changed_at"`
}

// Position is an open or closed liquidity position tracked for stop-loss and
// maintenance checks.
type Position struct {
	ID           int64     `json:"id"`
	PoolAddress  string    `json:"pool_address"`
	Status       string    `json:"status"` // active | pending | closed
	CapitalUSD   float64   `json:"capital_usd"`
	RangeLower   float64   `json:"range_lower"`
	RangeUpper   float64   `json:"range_upper"`
	TimeInRange  float64   `json:"time_in_range"`
	PnlUSD       float64   `json:"pnl_usd"`
	FeesEarned   float64   `json:"fees_earned_usd"`
	GasSpentUSD  float64   `json:"gas_spent_usd"`
	EntryDate    time.Time `json:"entry_date"`
	ExitDate     time.Time `json:"exit_date,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
