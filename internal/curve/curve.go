// Package curve implements the bonding curves that map a lock duration to a rate.
package curve

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/types"
	"github.com/elys-network/lender/internal/utils"
)

var (
	ErrInvalidCurve = errors.New("invalid curve")
	ErrNegativeRate = errors.New("curve evaluates below zero")
	ErrRateOverflow = errors.New("curve rate overflows uint64")
)

// RateCurve maps a lock duration in days to a rate in the unit of the
// consuming pool (APR basis points or bonus rate hundredths).
type RateCurve interface {
	Name() string
	Rate(durationDays uint64) (uint64, error)
}

// BondingCurve evaluates rate(x) = (P1*x^2 - P2*x + P3) / 10^Decimals, floored.
type BondingCurve struct {
	name   string
	params types.CurveParameters
	scale  sdkmath.Int
}

// New builds a quadratic curve. The name identifies it in events and logs.
func New(name string, params types.CurveParameters) (*BondingCurve, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidCurve)
	}
	if params.Decimals > utils.MaxDecimals {
		return nil, fmt.Errorf("%w: decimals %d exceed %d", ErrInvalidCurve, params.Decimals, utils.MaxDecimals)
	}
	return &BondingCurve{
		name:   name,
		params: params,
		scale:  utils.Pow10(params.Decimals),
	}, nil
}

func (c *BondingCurve) Name() string { return c.name }

func (c *BondingCurve) Parameters() types.CurveParameters { return c.params }

// Rate evaluates the curve. The duration range is enforced by the caller.
func (c *BondingCurve) Rate(durationDays uint64) (uint64, error) {
	x := sdkmath.NewIntFromUint64(durationDays)
	p1 := sdkmath.NewIntFromUint64(c.params.P1)
	p2 := sdkmath.NewIntFromUint64(c.params.P2)
	p3 := sdkmath.NewIntFromUint64(c.params.P3)

	positive := p1.Mul(x).Mul(x).Add(p3)
	negative := p2.Mul(x)
	if positive.LT(negative) {
		return 0, fmt.Errorf("%w: %s at %d days", ErrNegativeRate, c.name, durationDays)
	}

	rate := positive.Sub(negative).Quo(c.scale)
	if !rate.IsUint64() {
		return 0, fmt.Errorf("%w: %s at %d days", ErrRateOverflow, c.name, durationDays)
	}
	return rate.Uint64(), nil
}
