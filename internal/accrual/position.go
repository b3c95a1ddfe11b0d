package accrual

import (
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// Position is one principal deposit and its accrual state.
//
// Start and End bound the accrual window; End is zero for an open-ended base
// position. Rewards are always derived from the whole interval since
// AccrualFrom and floored once; BonusPaid records what was already paid out of
// that interval, so successive claims add up to exactly one full-period claim.
type Position struct {
	Owner     common.Address
	Principal sdkmath.Int
	Start     int64
	End       int64
	LockDays  uint64
	Rates     Rates

	AccrualFrom int64
	BonusPaid   sdkmath.Int

	// Rewards settled when a base position changed principal, not yet paid.
	PendingStable sdkmath.Int
	PendingBonus  sdkmath.Int
}

// NewPosition opens a position accruing at constant rates until end.
// A deposit made before start accrues from start.
func NewPosition(owner common.Address, principal sdkmath.Int, depositTime, start, end int64, rates Rates) *Position {
	if depositTime > start {
		start = depositTime
	}
	return &Position{
		Owner:         owner,
		Principal:     principal,
		Start:         start,
		End:           end,
		Rates:         rates,
		AccrualFrom:   start,
		BonusPaid:     sdkmath.ZeroInt(),
		PendingStable: sdkmath.ZeroInt(),
		PendingBonus:  sdkmath.ZeroInt(),
	}
}

// IsBase reports whether the position has no maturity.
func (p *Position) IsBase() bool { return p.End == 0 }

func (p *Position) Matured(now int64) bool {
	return !p.IsBase() && now >= p.End
}

// horizon is the last instant that accrues at time now.
func (p *Position) horizon(now int64) int64 {
	if !p.IsBase() && now > p.End {
		return p.End
	}
	return now
}

func (p *Position) accrued(now int64, src RateSource, s Scales) (stable, bonus sdkmath.Int) {
	return src.Integrate(p.AccrualFrom, p.horizon(now)).Settle(p.Principal, s)
}

// Pending evaluates the unpaid stable and bonus rewards at now.
func (p *Position) Pending(now int64, src RateSource, s Scales) (stable, bonus sdkmath.Int) {
	stable, bonus = p.accrued(now, src, s)
	return stable.Add(p.PendingStable), bonus.Sub(p.BonusPaid).Add(p.PendingBonus)
}

// MarkBonusClaimed records that every bonus accrued up to now was paid.
// Call only after the payout succeeded.
func (p *Position) MarkBonusClaimed(now int64, src RateSource, s Scales) {
	_, bonus := p.accrued(now, src, s)
	p.BonusPaid = bonus
	p.PendingBonus = sdkmath.ZeroInt()
}

// TopUp settles the rewards accrued on the current principal and then adds amount.
func (p *Position) TopUp(now int64, amount sdkmath.Int, src RateSource, s Scales) {
	p.PendingStable, p.PendingBonus = p.Pending(now, src, s)
	p.AccrualFrom = p.horizon(now)
	p.BonusPaid = sdkmath.ZeroInt()
	p.Principal = p.Principal.Add(amount)
}
