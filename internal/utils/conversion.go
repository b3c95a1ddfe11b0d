/*
This file contains common utility functions for converting between different types,
particularly for SDK math operations, decimal scales and floor division.
*/

package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

// MaxDecimals is the largest decimal scale a token may declare.
const MaxDecimals = 18

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
	ErrDivisionByZero   = errors.New("division by zero")
)

// Pow10 returns 10^exp as an SDK Int.
func Pow10(exp uint32) sdkmath.Int {
	factor := sdkmath.OneInt()
	ten := sdkmath.NewInt(10)
	for i := uint32(0); i < exp; i++ {
		factor = factor.Mul(ten)
	}
	return factor
}

// MulDivFloor computes floor(a*b/c) for non-negative operands without an
// intermediate rounding step.
func MulDivFloor(a, b, c sdkmath.Int) (sdkmath.Int, error) {
	if a.IsNil() || b.IsNil() || c.IsNil() {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if c.IsZero() {
		return sdkmath.ZeroInt(), ErrDivisionByZero
	}
	if a.IsNegative() || b.IsNegative() || c.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	return a.Mul(b).Quo(c), nil
}

// ConvertDecimals rescales an amount from one token scale to another,
// flooring when the target scale is coarser.
func ConvertDecimals(amount sdkmath.Int, from, to uint32) (sdkmath.Int, error) {
	if from > MaxDecimals || to > MaxDecimals {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d -> %d (must be between 0 and %d)", ErrInvalidPrecision, from, to, MaxDecimals)
	}
	if amount.IsNil() {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if amount.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	switch {
	case to > from:
		return amount.Mul(Pow10(to - from)), nil
	case to < from:
		return amount.Quo(Pow10(from - to)), nil
	default:
		return amount, nil
	}
}

// SDKIntToFloat64 converts an SDK Int to float64 with proper precision handling.
// Only used for display; accrual never goes through floats.
func SDKIntToFloat64(amount sdkmath.Int, precision int) (float64, error) {
	if precision < 0 || precision > MaxDecimals {
		return 0, fmt.Errorf("%w: %d (must be between 0 and 18)", ErrInvalidPrecision, precision)
	}
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	decAmount := sdkmath.LegacyNewDecFromInt(amount)
	factor := sdkmath.LegacyNewDecFromInt(Pow10(uint32(precision)))

	result := decAmount.Quo(factor)
	resultFloat, err := result.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	if math.IsNaN(resultFloat) || math.IsInf(resultFloat, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, resultFloat)
	}

	return resultFloat, nil
}

// Float64ToSDKInt converts a human-readable float64 amount into base units.
func Float64ToSDKInt(amount float64, precision int) (sdkmath.Int, error) {
	if precision < 0 || precision > MaxDecimals {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d (must be between 0 and 18)", ErrInvalidPrecision, precision)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: amount is %f", ErrNotFinite, amount)
	}
	if amount < 0 {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	if amount == 0 {
		return sdkmath.ZeroInt(), nil
	}

	// Use string conversion to avoid floating point precision issues
	formatStr := fmt.Sprintf("%%.%df", precision)
	amountStr := fmt.Sprintf(formatStr, amount)

	decAmount, err := sdkmath.LegacyNewDecFromStr(amountStr)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: failed to create decimal from string: %w", ErrConversionFailed, err)
	}

	return decAmount.MulInt(Pow10(uint32(precision))).TruncateInt(), nil
}
