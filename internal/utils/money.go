/*
This file contains common utility functions for monetary rounding and
percentage handling with proper precision.
*/

package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// RoundDownCents truncates a USD amount to whole cents. Position sizes must
// never round up, so this always truncates toward zero.
func RoundDownCents(amount float64) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: amount is %f", ErrNotFinite, amount)
	}

	// Use string conversion to avoid floating point precision issues
	amountStr := fmt.Sprintf("%.8f", amount)
	decAmount, err := sdkmath.LegacyNewDecFromStr(amountStr)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create decimal from string: %w", ErrConversionFailed, err)
	}

	cents := decAmount.MulInt64(100).TruncateInt()
	result, err := sdkmath.LegacyNewDecFromInt(cents).QuoInt64(100).Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	return result, nil
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

// Round1 rounds to 1 decimal place, half away from zero.
func Round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10) / 10
}

// Sanitize replaces NaN and infinities with the given default so heuristic
// arithmetic never propagates non-finite values.
func Sanitize(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
