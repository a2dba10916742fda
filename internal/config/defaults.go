/*

This file contains the default risk parameters for the decision engine.

Each value has been chosen to keep a small retail portfolio conservative by
default; users loosen them explicitly through the config API.

*/

package config

import (
	"github.com/emity-labs/emity/internal/types"
)

// DefaultRiskConfig provides the baseline user policy. These values are used
// when no persisted configuration exists, so the risk engine is always
// constructable.
var DefaultRiskConfig = types.RiskConfig{
	CapitalTotal: 10000, // Working capital in USDT.

	PerfilRisco: "conservador",
	// Rationale: new users get the tightest IL tolerance and the defensive
	// range preference until they opt into more risk.

	MaxPositions: 3,
	// Rationale: with a five-figure portfolio, more than 3 concurrent LP
	// positions spreads capital too thin to clear gas economics.

	StopLoss: 10.0, // Close a position once it is down 10%.

	MaxPositionSize: 30.0, // Hard per-position cap in percent of capital.

	MinScore: 60,
	// Rationale: 60 is the floor of the "BOA" quality band; anything below
	// it never justified an entry during backtesting.

	GasMultiplier: 2.0,
	// Rationale: the projected 7-day return must cover gas at least twice
	// over, otherwise the position is churn.
}

// GasCostUSD is the flat per-operation gas estimate (Arbitrum).
const GasCostUSD = 5.0

// GasWarningThreshold attaches a warning when gas exceeds this share of the
// expected return.
const GasWarningThreshold = 0.10

// ReferenceCapitalUSD normalizes the flat gas cost into a percent deduction
// inside simulations.
const ReferenceCapitalUSD = 1000.0

// RiskProfiles maps each perfil_risco to its fixed limits.
var RiskProfiles = map[string]types.RiskProfile{
	"conservador": {
		MaxPositionPct: 20.0,
		MinScore:       70,
		MaxILTolerance: 5.0,
		RangeType:      "defensivo",
	},
	"moderado": {
		MaxPositionPct: 30.0,
		MinScore:       60,
		MaxILTolerance: 10.0,
		RangeType:      "otimizado",
	},
	"agressivo": {
		MaxPositionPct: 40.0,
		MinScore:       50,
		MaxILTolerance: 15.0,
		RangeType:      "agressivo",
	},
}

// ProfileFor returns the limits for a perfil_risco, falling back to the
// conservative profile for unknown names.
func ProfileFor(perfil string) types.RiskProfile {
	if p, ok := RiskProfiles[perfil]; ok {
		return p
	}
	return RiskProfiles["conservador"]
}
