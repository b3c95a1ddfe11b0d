// Package accrual holds the fixed-point reward math, the rate checkpoint log and the
// position book shared by fixed- and flexible-term pools.
//
// All amounts are integers in a token's base unit. Rate-time products are accumulated
// exactly and floored once, when converted into a token amount.
package accrual

import (
	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/utils"
)

const (
	Day            int64 = 86400
	SecondsPerYear int64 = 365 * Day

	// AprDenominator scales stable APRs: 1000 is 10.00%.
	AprDenominator uint64 = 10000
	// BonusRateDenominator scales bonus rates: 100 is one bonus token per stable token per year.
	BonusRateDenominator uint64 = 100
	// BasisPoints scales penalty rates.
	BasisPoints uint64 = 10000
)

// Rates is the pair of yearly rates a position accrues at.
type Rates struct {
	Apr       uint64 `json:"apr"`
	BonusRate uint64 `json:"bonus_rate"`
}

// Scales are the decimal scales of the stable and bonus tokens.
type Scales struct {
	Stable uint32
	Bonus  uint32
}

// RateTime accumulates elapsed-seconds times rate for each token. Nothing is
// rounded until Settle.
type RateTime struct {
	Stable sdkmath.Int
	Bonus  sdkmath.Int
}

// ZeroRateTime is the empty accumulator.
func ZeroRateTime() RateTime {
	return RateTime{Stable: sdkmath.ZeroInt(), Bonus: sdkmath.ZeroInt()}
}

// Add accumulates one segment of elapsed seconds at the given rates.
func (rt RateTime) Add(elapsed int64, r Rates) RateTime {
	if elapsed <= 0 {
		return rt
	}
	e := sdkmath.NewInt(elapsed)
	return RateTime{
		Stable: rt.Stable.Add(e.Mul(sdkmath.NewIntFromUint64(r.Apr))),
		Bonus:  rt.Bonus.Add(e.Mul(sdkmath.NewIntFromUint64(r.BonusRate))),
	}
}

// Settle converts the accumulated rate-time for a principal into token amounts,
// flooring each once. The bonus amount is expressed in the bonus token's unit.
func (rt RateTime) Settle(principal sdkmath.Int, s Scales) (stable, bonus sdkmath.Int) {
	if principal.IsNil() || !principal.IsPositive() {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt()
	}
	year := sdkmath.NewInt(SecondsPerYear)

	stableDen := sdkmath.NewIntFromUint64(AprDenominator).Mul(year)
	stable = principal.Mul(rt.Stable).Quo(stableDen)

	bonusNum := principal.Mul(rt.Bonus).Mul(utils.Pow10(s.Bonus))
	bonusDen := sdkmath.NewIntFromUint64(BonusRateDenominator).Mul(year).Mul(utils.Pow10(s.Stable))
	bonus = bonusNum.Quo(bonusDen)
	return stable, bonus
}

// RateSource yields the rate-time accumulated over [from, to).
type RateSource interface {
	Integrate(from, to int64) RateTime
}

// Integrate makes a constant rate pair a RateSource.
func (r Rates) Integrate(from, to int64) RateTime {
	return ZeroRateTime().Add(to-from, r)
}

// StableReward is floor(principal * elapsed * apr / (10000 * YEAR)).
func StableReward(principal sdkmath.Int, elapsed int64, apr uint64) sdkmath.Int {
	stable, _ := ZeroRateTime().Add(elapsed, Rates{Apr: apr}).Settle(principal, Scales{})
	return stable
}

// BonusReward is floor(principal * elapsed * rate * 10^bonusDec / (100 * YEAR * 10^stableDec)).
func BonusReward(principal sdkmath.Int, elapsed int64, rate uint64, s Scales) sdkmath.Int {
	_, bonus := ZeroRateTime().Add(elapsed, Rates{BonusRate: rate}).Settle(principal, s)
	return bonus
}

// Penalty is floor(principal * rate / 10000).
func Penalty(principal sdkmath.Int, rateBps uint64) sdkmath.Int {
	return principal.Mul(sdkmath.NewIntFromUint64(rateBps)).Quo(sdkmath.NewIntFromUint64(BasisPoints))
}

// Overlap returns the length of [from, to) intersected with [start, end).
func Overlap(from, to, start, end int64) int64 {
	if from < start {
		from = start
	}
	if to > end {
		to = end
	}
	if to <= from {
		return 0
	}
	return to - from
}
