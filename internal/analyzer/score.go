/*

This file contains the institutional score calculation: six weighted,
threshold-bucketed sub-scores collapsed into a single 0-100 quality score with
a human-readable explanation and recommendation.

*/

package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/emity-labs/emity/internal/logger"
	"github.com/emity-labs/emity/internal/types"
	"github.com/emity-labs/emity/internal/utils"
)

var scoreLogger = logger.GetForComponent("pool_scorer")

// Weights for the six score components. They must sum to 1.0.
var scoreWeights = map[string]float64{
	"tvl":           0.20,
	"volume":        0.15,
	"fee_apr":       0.25,
	"il_risk":       0.20,
	"volatility":    0.10,
	"time_in_range": 0.10,
}

// ScoreComponents holds the bucketed sub-scores feeding the final score.
type ScoreComponents struct {
	TVL         float64 `json:"tvl"`
	Volume      float64 `json:"volume"`
	FeeAPR      float64 `json:"fee_apr"`
	ILRisk      float64 `json:"il_risk"`
	Volatility  float64 `json:"volatility"`
	TimeInRange float64 `json:"time_in_range"`
}

// CalculateInstitutionalScore maps snapshot metrics plus simulation outputs
// into a 0-100 integer score and an explanation of the verdict.
// Inputs:
//   - snapshot: pool market state.
//   - simulations: the per-strategy simulation set; only the 30d time-in-range
//     values are consulted here.
//
// Output:
//   - The final weighted score, floored to an integer.
//   - The component breakdown.
//   - An explanation text classifying the score into a quality band.
func CalculateInstitutionalScore(snapshot types.PoolSnapshot, simulations types.SimulationSet) (int, ScoreComponents, string) {
	components := ScoreComponents{
		TVL:         bucketAscending(utils.Sanitize(snapshot.TvlUSD, 0), 100_000, 500_000, 1_000_000, 5_000_000),
		Volume:      bucketAscending(utils.Sanitize(snapshot.Volume24hUSD, 0), 50_000, 100_000, 500_000, 1_000_000),
		FeeAPR:      bucketAscending(utils.Sanitize(snapshot.FeeAPR, 0), 10, 25, 50, 100),
		ILRisk:      bucketDescending(utils.Sanitize(snapshot.IL7d, 0), 10, 5, 2, 1),
		Volatility:  bucketDescending(EffectiveVolatility(snapshot), 25, 15, 10, 5),
		TimeInRange: math.Min(100, bestTimeInRange30d(simulations)*1.2),
	}

	finalScore := components.TVL*scoreWeights["tvl"] +
		components.Volume*scoreWeights["volume"] +
		components.FeeAPR*scoreWeights["fee_apr"] +
		components.ILRisk*scoreWeights["il_risk"] +
		components.Volatility*scoreWeights["volatility"] +
		components.TimeInRange*scoreWeights["time_in_range"]

	score := int(finalScore)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	scoreLogger.Debug().
		Str("pool", snapshot.Address).
		Float64("tvlComponent", components.TVL).
		Float64("volumeComponent", components.Volume).
		Float64("feeAPRComponent", components.FeeAPR).
		Float64("ilRiskComponent", components.ILRisk).
		Float64("volatilityComponent", components.Volatility).
		Float64("timeInRangeComponent", components.TimeInRange).
		Int("finalScore", score).
		Msg("Calculated institutional score")

	explanation := buildScoreExplanation(snapshot, components, score)
	return score, components, explanation
}

// bucketAscending returns 20/40/60/80/100 as the value climbs past each
// threshold (strict greater-than).
func bucketAscending(value, t40, t60, t80, t100 float64) float64 {
	switch {
	case value > t100:
		return 100
	case value > t80:
		return 80
	case value > t60:
		return 60
	case value > t40:
		return 40
	default:
		return 20
	}
}

// bucketDescending returns 20/40/60/80/100 as the value drops below each
// threshold (strict less-than). Used for the inverted metrics where lower
// is better.
func bucketDescending(value, t40, t60, t80, t100 float64) float64 {
	switch {
	case value < t100:
		return 100
	case value < t80:
		return 80
	case value < t60:
		return 60
	case value < t40:
		return 40
	default:
		return 20
	}
}

// bestTimeInRange30d picks the highest 30-day time-in-range across the
// strategies. Missing simulations contribute zero.
func bestTimeInRange30d(simulations types.SimulationSet) float64 {
	best := 0.0
	for _, strategy := range types.Strategies {
		horizons, ok := simulations[strategy]
		if !ok {
			continue
		}
		if sim, ok := horizons[types.Horizon30d]; ok && sim.TimeInRange > best {
			best = sim.TimeInRange
		}
	}
	return best
}

// buildScoreExplanation renders the quality band plus strengths and
// weaknesses in the user-facing (Portuguese) format.
func buildScoreExplanation(snapshot types.PoolSnapshot, components ScoreComponents, score int) string {
	var quality, emoji string
	switch {
	case score >= 80:
		quality, emoji = "EXCELENTE", "🌟"
	case score >= 60:
		quality, emoji = "BOA", "✅"
	case score >= 40:
		quality, emoji = "MODERADA", "⚠️"
	default:
		quality, emoji = "BAIXA", "❌"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Pool %s - Qualidade %s\n\n", emoji, snapshot.Pair(), quality)
	fmt.Fprintf(&b, "📊 Score Institucional: %d/100\n\n", score)

	var strengths []string
	if components.TVL >= 60 {
		strengths = append(strengths, fmt.Sprintf("✅ TVL sólida: $%s", formatThousands(snapshot.TvlUSD)))
	}
	if components.FeeAPR >= 60 {
		strengths = append(strengths, fmt.Sprintf("✅ APR atrativa: %.1f%%", snapshot.FeeAPR))
	}
	if components.Volume >= 60 {
		strengths = append(strengths, fmt.Sprintf("✅ Volume alto: $%s/24h", formatThousands(snapshot.Volume24hUSD)))
	}
	if len(strengths) > 0 {
		b.WriteString("Pontos Fortes:\n" + strings.Join(strengths, "\n") + "\n\n")
	}

	var weaknesses []string
	if components.Volatility < 60 {
		weaknesses = append(weaknesses, fmt.Sprintf("⚠️ Volatilidade: %.1f%%", EffectiveVolatility(snapshot)))
	}
	if components.ILRisk < 60 {
		weaknesses = append(weaknesses, fmt.Sprintf("⚠️ Risco IL: %.1f%% (7d)", snapshot.IL7d))
	}
	if len(weaknesses) > 0 {
		b.WriteString("Pontos de Atenção:\n" + strings.Join(weaknesses, "\n"))
	}

	return b.String()
}

// GenerateRecommendation picks the strategy with the highest 30-day
// net-after-gas return and combines it with score thresholds into a textual
// buy/avoid verdict.
func GenerateRecommendation(score int, simulations types.SimulationSet) string {
	bestStrategy := types.Strategy("")
	bestReturn := -999.0

	for _, strategy := range types.Strategies {
		horizons, ok := simulations[strategy]
		if !ok {
			continue
		}
		if sim, ok := horizons[types.Horizon30d]; ok && sim.NetAfterGas > bestReturn {
			bestReturn = sim.NetAfterGas
			bestStrategy = strategy
		}
	}

	switch {
	case score >= 70 && bestReturn > 10:
		return fmt.Sprintf("💎 FORTE COMPRA - Range %s com retorno estimado de %.1f%% em 30d", bestStrategy, bestReturn)
	case score >= 50 && bestReturn > 5:
		return fmt.Sprintf("✅ COMPRA - Range %s com retorno estimado de %.1f%% em 30d", bestStrategy, bestReturn)
	case score >= 30 && bestReturn > 0:
		return fmt.Sprintf("⚠️ NEUTRO - Avaliar risco/retorno. Range %s: %.1f%% em 30d", bestStrategy, bestReturn)
	default:
		return "❌ EVITAR - Score baixo ou retorno negativo"
	}
}

// formatThousands renders a USD amount with comma separators and no decimals.
func formatThousands(v float64) string {
	whole := int64(math.Abs(math.Round(v)))
	s := fmt.Sprintf("%d", whole)
	if len(s) <= 3 {
		if v < 0 {
			return "-" + s
		}
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if v < 0 {
		return "-" + out
	}
	return out
}
