package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emity-labs/emity/internal/types"
)

func TestCalculateInstitutionalScore_DeepLiquidPool(t *testing.T) {
	snapshot := NormalizeSnapshot(deepPool())
	simulations := SimulateReturns(snapshot, GenerateRanges(snapshot))

	score, components, explanation := CalculateInstitutionalScore(snapshot, simulations)

	assert.Equal(t, 100.0, components.TVL, "15M TVL clears the top bucket")
	assert.Equal(t, 100.0, components.Volume, "8.5M daily volume clears the top bucket")
	assert.Equal(t, 100.0, components.ILRisk, "zero IL is the best bucket")
	assert.Equal(t, 100.0, components.Volatility, "2.5% volatility is the best bucket")
	assert.Equal(t, 100.0, components.TimeInRange, "95 * 1.2 caps at 100")

	assert.GreaterOrEqual(t, score, 80)
	assert.LessOrEqual(t, score, 100)
	assert.Contains(t, explanation, "EXCELENTE")
	assert.Contains(t, explanation, "WETH/USDC")
	assert.Contains(t, explanation, "TVL sólida: $15,000,000")
}

func TestCalculateInstitutionalScore_EmptySnapshot(t *testing.T) {
	snapshot := NormalizeSnapshot(types.PoolSnapshot{Address: "0xempty"})
	simulations := SimulateReturns(snapshot, GenerateRanges(snapshot))

	score, _, explanation := CalculateInstitutionalScore(snapshot, simulations)

	assert.GreaterOrEqual(t, score, 0)
	assert.LessOrEqual(t, score, 100)
	assert.NotEmpty(t, explanation)
}

func TestCalculateInstitutionalScore_WeaknessesListed(t *testing.T) {
	snapshot := NormalizeSnapshot(types.PoolSnapshot{
		Address:      "0xrisky",
		Token0Symbol: "PEPE",
		Token1Symbol: "WETH",
		TvlUSD:       200_000,
		Volume24hUSD: 60_000,
		Volatility:   30,
		IL7d:         12,
	})
	simulations := SimulateReturns(snapshot, GenerateRanges(snapshot))

	score, components, explanation := CalculateInstitutionalScore(snapshot, simulations)

	assert.Equal(t, 20.0, components.Volatility)
	assert.Equal(t, 20.0, components.ILRisk)
	assert.Less(t, score, 60)
	assert.Contains(t, explanation, "Pontos de Atenção")
	assert.Contains(t, explanation, "Volatilidade")
	assert.Contains(t, explanation, "Risco IL")
}

func TestBucketAscending(t *testing.T) {
	// TVL thresholds
	assert.Equal(t, 20.0, bucketAscending(100_000, 100_000, 500_000, 1_000_000, 5_000_000))
	assert.Equal(t, 40.0, bucketAscending(100_001, 100_000, 500_000, 1_000_000, 5_000_000))
	assert.Equal(t, 60.0, bucketAscending(600_000, 100_000, 500_000, 1_000_000, 5_000_000))
	assert.Equal(t, 80.0, bucketAscending(2_000_000, 100_000, 500_000, 1_000_000, 5_000_000))
	assert.Equal(t, 100.0, bucketAscending(15_000_000, 100_000, 500_000, 1_000_000, 5_000_000))
}

func TestBucketDescending(t *testing.T) {
	// IL thresholds, lower is better
	assert.Equal(t, 100.0, bucketDescending(0.5, 10, 5, 2, 1))
	assert.Equal(t, 80.0, bucketDescending(1.5, 10, 5, 2, 1))
	assert.Equal(t, 60.0, bucketDescending(3, 10, 5, 2, 1))
	assert.Equal(t, 40.0, bucketDescending(7, 10, 5, 2, 1))
	assert.Equal(t, 20.0, bucketDescending(10, 10, 5, 2, 1))
	assert.Equal(t, 20.0, bucketDescending(25, 10, 5, 2, 1))
}

func simSetWith30d(netAfterGas float64) types.SimulationSet {
	return types.SimulationSet{
		types.StrategyOptimized: {
			types.Horizon30d: {NetAfterGas: netAfterGas, NetReturn: netAfterGas + 0.5},
		},
	}
}

func TestGenerateRecommendation(t *testing.T) {
	testCases := []struct {
		name     string
		score    int
		net30d   float64
		contains string
	}{
		{"strong buy", 75, 12.0, "💎 FORTE COMPRA"},
		{"buy", 55, 6.0, "✅ COMPRA"},
		{"neutral", 40, 1.0, "⚠️ NEUTRO"},
		{"avoid on low score", 20, 12.0, "❌ EVITAR"},
		{"avoid on negative return", 90, -1.0, "❌ EVITAR"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recommendation := GenerateRecommendation(tc.score, simSetWith30d(tc.net30d))
			assert.True(t, strings.HasPrefix(recommendation, tc.contains),
				"got %q", recommendation)
		})
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	snapshot := deepPool()

	first := Analyze(snapshot)
	second := Analyze(snapshot)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Ranges, second.Ranges)
	assert.Equal(t, first.Simulations, second.Simulations)
	assert.Equal(t, first.Recommendation, second.Recommendation)
	assert.Equal(t, first.Explanation, second.Explanation)
}

func TestAnalyze_FillsDerivedFields(t *testing.T) {
	analyzed := Analyze(deepPool())

	require.Len(t, analyzed.Ranges, 3)
	require.Len(t, analyzed.Simulations, 3)
	assert.NotZero(t, analyzed.Score)
	assert.NotEmpty(t, analyzed.Recommendation)
	assert.NotEmpty(t, analyzed.Explanation)
	assert.False(t, analyzed.LastAnalyzed.IsZero())
	assert.Greater(t, analyzed.FeeAPR, 0.0, "fee APR estimated from volume and tier")
}

func TestNormalizeSnapshot(t *testing.T) {
	snapshot := NormalizeSnapshot(types.PoolSnapshot{
		Volume24hUSD: 1_000_000,
		TvlUSD:       2_000_000,
	})

	assert.Equal(t, 0.3, snapshot.FeeTier, "missing fee tier defaults to 0.3")
	assert.InDelta(t, 3000.0, snapshot.Fees24hUSD, 1e-9, "fees estimated as volume * tier")
	assert.InDelta(t, 3000.0*365/2_000_000*100, snapshot.FeeAPR, 1e-9)
	assert.Equal(t, "UNKNOWN", snapshot.Token0Symbol)
	assert.Equal(t, "UNKNOWN", snapshot.Token1Symbol)
}

func TestFormatThousands(t *testing.T) {
	assert.Equal(t, "950", formatThousands(950))
	assert.Equal(t, "15,000,000", formatThousands(15_000_000))
	assert.Equal(t, "1,234", formatThousands(1234.4))
	assert.Equal(t, "-1,234", formatThousands(-1234))
}
