/*

This file contains the risk engine: position sizing, gas viability, the
market go/no-go gate, greedy portfolio allocation, and stop-loss checks.

Every operation is a total function over well-typed numeric inputs. A
negative outcome is a normal decision carried in the result, never an error;
malformed numbers are coerced to safe defaults before any arithmetic.

*/

package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/emity-labs/emity/internal/config"
	"github.com/emity-labs/emity/internal/logger"
	"github.com/emity-labs/emity/internal/types"
	"github.com/emity-labs/emity/internal/utils"
)

var riskLogger = logger.GetForComponent("risk_engine")

// Engine evaluates pools against a user risk policy. It holds an immutable
// configuration snapshot and no other state, so a single instance is safe to
// share across goroutines.
type Engine struct {
	cfg     types.RiskConfig
	profile types.RiskProfile
}

// NewEngine builds an engine from a user configuration, substituting
// documented defaults for any unset field so the engine is always
// constructable even without persisted config.
func NewEngine(cfg types.RiskConfig) *Engine {
	def := config.DefaultRiskConfig

	if cfg.CapitalTotal <= 0 || math.IsNaN(cfg.CapitalTotal) || math.IsInf(cfg.CapitalTotal, 0) {
		cfg.CapitalTotal = def.CapitalTotal
	}
	if cfg.PerfilRisco == "" {
		cfg.PerfilRisco = def.PerfilRisco
	}
	if cfg.MaxPositions < 1 {
		cfg.MaxPositions = def.MaxPositions
	}
	if cfg.StopLoss <= 0 {
		cfg.StopLoss = def.StopLoss
	}
	if cfg.MaxPositionSize <= 0 {
		cfg.MaxPositionSize = def.MaxPositionSize
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = def.MinScore
	}
	if cfg.GasMultiplier < 1 {
		cfg.GasMultiplier = def.GasMultiplier
	}

	return &Engine{
		cfg:     cfg,
		profile: config.ProfileFor(cfg.PerfilRisco),
	}
}

// Config returns the effective configuration snapshot.
func (e *Engine) Config() types.RiskConfig {
	return e.cfg
}

// Profile returns the limits bound to the configured perfil_risco.
func (e *Engine) Profile() types.RiskProfile {
	return e.profile
}

// CalculatePositionSize sizes one pool under the configured policy.
// Inputs:
//   - pool: a scored snapshot, ideally carrying simulations for gas checks.
//   - overridePct: caller-forced size in percent; pass 0 to size by score.
//
// The decision reports size_pct and size_usdt even when gas economics make
// the position non-viable; can_operate carries the final verdict.
func (e *Engine) CalculatePositionSize(pool types.PoolSnapshot, overridePct float64) types.PositionSizeDecision {
	score := pool.Score

	if score < e.cfg.MinScore {
		return types.PositionSizeDecision{
			CanOperate: false,
			Reason:     fmt.Sprintf("Score %d abaixo do mínimo %d", score, e.cfg.MinScore),
			Warnings:   []string{},
		}
	}

	var basePct float64
	if overridePct > 0 {
		basePct = math.Min(overridePct, e.cfg.MaxPositionSize)
	} else {
		// Linear scale: score 60 -> 10%, score 100 -> profile max
		scoreFactor := (float64(score) - 60) / 40
		scoreFactor = math.Max(0, math.Min(1, scoreFactor))
		basePct = 10 + (e.profile.MaxPositionPct-10)*scoreFactor
	}

	sizePct := math.Min(basePct, math.Min(e.cfg.MaxPositionSize, e.profile.MaxPositionPct))
	sizeUSDT := e.cfg.CapitalTotal * (sizePct / 100)

	// Round down, never up
	rounded, err := utils.RoundDownCents(sizeUSDT)
	if err != nil {
		rounded = math.Floor(sizeUSDT*100) / 100
	}
	sizeUSDT = rounded

	viable, reason, warnings := e.validateGasCost(sizeUSDT, pool)

	decision := types.PositionSizeDecision{
		CanOperate: viable,
		Reason:     reason,
		SizePct:    utils.Round2(sizePct),
		SizeUSDT:   sizeUSDT,
		GasCost:    config.GasCostUSD,
		Warnings:   warnings,
	}

	riskLogger.Debug().
		Str("pool", pool.Address).
		Int("score", score).
		Float64("sizePct", decision.SizePct).
		Float64("sizeUSDT", decision.SizeUSDT).
		Bool("canOperate", decision.CanOperate).
		Str("reason", decision.Reason).
		Msg("Calculated position size")

	return decision
}

// validateGasCost checks whether the projected 7-day return justifies paying
// gas for a position of the given size. The return estimate prefers the best
// simulated net-after-gas percent, falling back to a pro-rated apr_7d.
func (e *Engine) validateGasCost(positionSize float64, pool types.PoolSnapshot) (bool, string, []string) {
	sim7d := ExtractSimulation7d(pool)

	estimatedReturnUSD := 0.0
	if sim7d.Found {
		estimatedReturnUSD = positionSize * (sim7d.NetAfterGas / 100)
	}
	if estimatedReturnUSD <= 0 && pool.APR7d > 0 {
		estimatedReturnUSD = positionSize * (pool.APR7d / 100) * (7.0 / 365.0)
	}

	minReturnNeeded := config.GasCostUSD * e.cfg.GasMultiplier
	if estimatedReturnUSD < minReturnNeeded {
		return false,
			fmt.Sprintf("Retorno estimado $%.2f < $%.2f (gas x%.1f)", estimatedReturnUSD, minReturnNeeded, e.cfg.GasMultiplier),
			[]string{}
	}

	warnings := []string{}
	gasPct := (config.GasCostUSD / estimatedReturnUSD) * 100
	if gasPct > config.GasWarningThreshold*100 {
		warnings = append(warnings, fmt.Sprintf("⚠️ Gas representa %.1f%% do retorno esperado", gasPct))
	}

	return true, "OK", warnings
}

// CheckMarketConditions evaluates a set of scored pools and decides whether
// the market is worth operating in at all.
//
// A pool is "good" when its score clears the configured minimum, its 7-day IL
// stays inside the profile tolerance, and its net return is positive. The
// market score averages over ALL evaluated pools, not just the good ones: a
// market of mostly-bad pools suppresses the gate even when a handful are
// individually attractive.
func (e *Engine) CheckMarketConditions(pools []types.PoolSnapshot) types.MarketGateResult {
	if len(pools) == 0 {
		return types.MarketGateResult{
			CanOperate:     false,
			Reason:         "Nenhuma pool disponível para análise",
			Recommendation: "Aguardar scanner coletar dados",
			GoodPools:      []types.GoodPool{},
			MarketScore:    0,
		}
	}

	goodPools := []types.GoodPool{}
	totalScore := 0

	for _, pool := range pools {
		if pool.Score < e.cfg.MinScore {
			continue
		}
		sim7d := ExtractSimulation7d(pool)
		if !sim7d.Found {
			continue
		}

		ilPct := math.Abs(sim7d.ILPercentage)
		netReturn := sim7d.NetAfterGas

		if ilPct <= e.profile.MaxILTolerance && netReturn > 0 {
			goodPools = append(goodPools, types.GoodPool{
				PoolAddress:  strings.ToLower(pool.Address),
				Pair:         pool.Pair(),
				Score:        pool.Score,
				NetReturn:    netReturn,
				ILPercentage: ilPct,
			})
			totalScore += pool.Score
		}
	}

	marketScore := float64(totalScore) / float64(len(pools))
	canOperate := len(goodPools) > 0 && marketScore >= 50

	var reason, recommendation string
	if !canOperate {
		switch {
		case marketScore < 50:
			reason = fmt.Sprintf("Mercado desfavorável (score médio: %.0f)", marketScore)
			recommendation = "🔴 NÃO OPERAR HOJE - Aguardar melhores condições"
		case len(goodPools) == 0:
			reason = "Nenhuma pool atende aos critérios de risco"
			recommendation = "⚠️ Ajustar perfil de risco ou aguardar"
		default:
			reason = "Condições incertas"
			recommendation = "⚠️ Operar com cautela reduzida"
		}
	} else {
		reason = fmt.Sprintf("%d pools viáveis encontradas", len(goodPools))
		best := len(goodPools)
		if best > e.cfg.MaxPositions {
			best = e.cfg.MaxPositions
		}
		recommendation = fmt.Sprintf("✅ Operar nas %d melhores pools", best)
	}

	totalOpportunities := len(goodPools)
	if len(goodPools) > e.cfg.MaxPositions {
		goodPools = goodPools[:e.cfg.MaxPositions]
	}

	result := types.MarketGateResult{
		CanOperate:         canOperate,
		Reason:             reason,
		Recommendation:     recommendation,
		GoodPools:          goodPools,
		MarketScore:        utils.Round1(marketScore),
		TotalOpportunities: totalOpportunities,
	}

	riskLogger.Debug().
		Int("poolsEvaluated", len(pools)).
		Int("goodPools", totalOpportunities).
		Float64("marketScore", result.MarketScore).
		Bool("canOperate", result.CanOperate).
		Msg("Checked market conditions")

	return result
}

// CalculatePortfolioAllocation spreads capital across the market gate's good
// pools. The allocator is greedy and order-preserving: pools are funded in
// the order the gate returned them, an allocation is accepted only if it fits
// in the remaining capital, and there is no backtracking or early break when
// capital runs out.
func (e *Engine) CalculatePortfolioAllocation(pools []types.PoolSnapshot) types.PortfolioAllocation {
	marketCheck := e.CheckMarketConditions(pools)

	if !marketCheck.CanOperate {
		return types.PortfolioAllocation{
			CanOperate:     false,
			Reason:         marketCheck.Reason,
			Recommendation: marketCheck.Recommendation,
			Allocations:    []types.PoolAllocation{},
		}
	}

	allocations := []types.PoolAllocation{}
	remainingCapital := e.cfg.CapitalTotal

	for _, good := range marketCheck.GoodPools {
		fullPool, ok := findPool(pools, good.PoolAddress)
		if !ok {
			// Minimal snapshot so sizing can still run on the gate data
			fullPool = types.PoolSnapshot{
				Address:      good.PoolAddress,
				Score:        good.Score,
				Token0Symbol: good.Pair,
			}
		}

		position := e.CalculatePositionSize(fullPool, 0)

		if position.CanOperate && position.SizeUSDT <= remainingCapital {
			allocations = append(allocations, types.PoolAllocation{
				PoolAddress:    good.PoolAddress,
				Pair:           good.Pair,
				Score:          good.Score,
				AllocationPct:  position.SizePct,
				AllocationUSDT: position.SizeUSDT,
				ExpectedReturn: good.NetReturn,
				Warnings:       position.Warnings,
			})
			remainingCapital -= position.SizeUSDT
		}
	}

	totalAllocated := e.cfg.CapitalTotal - remainingCapital
	totalAllocatedPct := 0.0
	if e.cfg.CapitalTotal > 0 {
		totalAllocatedPct = totalAllocated / e.cfg.CapitalTotal * 100
	}

	result := types.PortfolioAllocation{
		CanOperate:         true,
		Reason:             fmt.Sprintf("%d posições alocadas", len(allocations)),
		Recommendation:     marketCheck.Recommendation,
		Allocations:        allocations,
		TotalAllocatedUSDT: utils.Round2(totalAllocated),
		TotalAllocatedPct:  utils.Round2(totalAllocatedPct),
		RemainingCapital:   utils.Round2(remainingCapital),
		MarketScore:        marketCheck.MarketScore,
	}

	riskLogger.Info().
		Int("allocations", len(allocations)).
		Float64("totalAllocatedUSDT", result.TotalAllocatedUSDT).
		Float64("remainingCapital", result.RemainingCapital).
		Msg("Calculated portfolio allocation")

	return result
}

// SyncPositionValues converts between percent and USDT representations of a
// position size, clamping to the valid domain of whichever unit was given.
// valueType is "pct" or "usdt".
func (e *Engine) SyncPositionValues(value float64, valueType string) (pct, usdt float64) {
	value = utils.Sanitize(value, 0)

	if valueType == "pct" {
		pct = math.Max(0, math.Min(value, 100))
		usdt = e.cfg.CapitalTotal * (pct / 100)
	} else {
		usdt = math.Max(0, math.Min(value, e.cfg.CapitalTotal))
		if e.cfg.CapitalTotal > 0 {
			pct = usdt / e.cfg.CapitalTotal * 100
		}
	}

	return utils.Round2(pct), utils.Round2(usdt)
}

// ValidateStopLoss decides whether an open position breached the configured
// stop loss. A non-positive position size always reports no stop.
func (e *Engine) ValidateStopLoss(currentPnl, positionSize float64) types.StopLossDecision {
	if positionSize <= 0 {
		return types.StopLossDecision{ShouldStop: false}
	}

	lossPct := currentPnl / positionSize * 100

	if lossPct <= -e.cfg.StopLoss {
		return types.StopLossDecision{
			ShouldStop: true,
			Reason:     fmt.Sprintf("Stop Loss atingido: %.2f%%", lossPct),
			LossAmount: currentPnl,
		}
	}

	return types.StopLossDecision{ShouldStop: false, CurrentLossPct: lossPct}
}

// findPool locates a snapshot by address, case-insensitively.
func findPool(pools []types.PoolSnapshot, address string) (types.PoolSnapshot, bool) {
	for _, pool := range pools {
		if strings.EqualFold(pool.Address, address) {
			return pool, true
		}
	}
	return types.PoolSnapshot{}, false
}
