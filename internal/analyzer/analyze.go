/*

This file contains the analysis orchestrator: normalize a snapshot, generate
ranges, simulate returns, score, and produce the recommendation. The result is
a pure function of the input snapshot so repeated runs on identical data give
identical output.

*/

package analyzer

import (
	"time"

	"github.com/emity-labs/emity/internal/logger"
	"github.com/emity-labs/emity/internal/types"
	"github.com/emity-labs/emity/internal/utils"
)

var analyzeLogger = logger.GetForComponent("pool_analyzer")

// NormalizeSnapshot coerces missing or malformed numeric fields to safe
// defaults so downstream arithmetic never sees NaN, infinities, or zero
// divisors. Fees and fee APR are estimated from volume when absent.
func NormalizeSnapshot(snapshot types.PoolSnapshot) types.PoolSnapshot {
	snapshot.TvlUSD = utils.Sanitize(snapshot.TvlUSD, 0)
	snapshot.Volume24hUSD = utils.Sanitize(snapshot.Volume24hUSD, 0)
	snapshot.Fees24hUSD = utils.Sanitize(snapshot.Fees24hUSD, 0)
	snapshot.CurrentPrice = utils.Sanitize(snapshot.CurrentPrice, 0)
	snapshot.PriceChange24h = utils.Sanitize(snapshot.PriceChange24h, 0)
	snapshot.IL7d = utils.Sanitize(snapshot.IL7d, 0)
	snapshot.APR7d = utils.Sanitize(snapshot.APR7d, 0)

	snapshot.FeeTier = utils.Sanitize(snapshot.FeeTier, 0)
	if snapshot.FeeTier <= 0 {
		snapshot.FeeTier = 0.3
	}

	if snapshot.Fees24hUSD <= 0 && snapshot.Volume24hUSD > 0 {
		snapshot.Fees24hUSD = snapshot.Volume24hUSD * snapshot.FeeTier / 100
	}

	snapshot.FeeAPR = utils.Sanitize(snapshot.FeeAPR, 0)
	if snapshot.FeeAPR <= 0 && snapshot.Fees24hUSD > 0 {
		tvl := snapshot.TvlUSD
		if tvl <= 0 {
			tvl = 1.0
		}
		snapshot.FeeAPR = snapshot.Fees24hUSD * 365 / tvl * 100
	}

	if snapshot.Token0Symbol == "" {
		snapshot.Token0Symbol = "UNKNOWN"
	}
	if snapshot.Token1Symbol == "" {
		snapshot.Token1Symbol = "UNKNOWN"
	}

	return snapshot
}

// Analyze runs the full analysis pass over one snapshot and returns a copy
// with ranges, simulations, score, explanation, and recommendation filled in.
// Persistence is the caller's concern.
func Analyze(snapshot types.PoolSnapshot) types.PoolSnapshot {
	snapshot = NormalizeSnapshot(snapshot)

	ranges := GenerateRanges(snapshot)
	simulations := SimulateReturns(snapshot, ranges)
	score, _, explanation := CalculateInstitutionalScore(snapshot, simulations)

	snapshot.Ranges = ranges
	snapshot.Simulations = simulations
	snapshot.Score = score
	snapshot.Explanation = explanation
	snapshot.Recommendation = GenerateRecommendation(score, simulations)
	snapshot.LastAnalyzed = time.Now().UTC()

	analyzeLogger.Debug().
		Str("pool", snapshot.Address).
		Str("pair", snapshot.Pair()).
		Int("score", snapshot.Score).
		Msg("Pool analysis complete")

	return snapshot
}

// AnalyzeAll analyzes every snapshot in the slice, returning the analyzed
// copies in input order.
func AnalyzeAll(snapshots []types.PoolSnapshot) []types.PoolSnapshot {
	analyzed := make([]types.PoolSnapshot, 0, len(snapshots))
	for _, snapshot := range snapshots {
		analyzed = append(analyzed, Analyze(snapshot))
	}
	analyzeLogger.Info().
		Int("count", len(analyzed)).
		Msg("Analyzed pool snapshots")
	return analyzed
}
