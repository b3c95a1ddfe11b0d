package pool

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/accrual"
	"github.com/elys-network/lender/internal/curve"
	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// MinLockLimitDays and MaxLockLimitDays bound the admin-configurable lock range.
	MinLockLimitDays uint64 = 90
	MaxLockLimitDays uint64 = 365
)

// FlexConfig holds the configuration for creating a new FlexPool
type FlexConfig struct {
	CommonConfig
	BaseApr     uint64
	BaseRate    uint64
	AprCurve    curve.RateCurve // optional, required before locked deposits
	RateCurve   curve.RateCurve // optional, required before locked deposits
	MinLockDays uint64          // zero means not configured yet
	MaxLockDays uint64
}

// FlexPool holds one open-ended base position per owner, accruing at the pool's
// global rates through a checkpoint log, plus any number of locked positions
// whose rates are read off the bonding curves when they are opened.
type FlexPool struct {
	*core
	baseRates   *accrual.CheckpointLog
	aprCurve    curve.RateCurve
	rateCurve   curve.RateCurve
	minLockDays uint64
	maxLockDays uint64
}

func NewFlexPool(cfg FlexConfig) (*FlexPool, error) {
	if err := validateCommon(cfg.CommonConfig); err != nil {
		return nil, err
	}
	if err := validateBaseRates(cfg.BaseApr, cfg.BaseRate); err != nil {
		return nil, err
	}
	if cfg.MinLockDays != 0 || cfg.MaxLockDays != 0 {
		if err := validateDurationLimit(cfg.MinLockDays, cfg.MaxLockDays); err != nil {
			return nil, err
		}
	}

	now := cfg.Clock.Now()
	p := &FlexPool{
		core:        newCore(types.PoolKindFlexible, cfg.CommonConfig),
		baseRates:   accrual.NewCheckpointLog(now, accrual.Rates{Apr: cfg.BaseApr, BonusRate: cfg.BaseRate}),
		aprCurve:    cfg.AprCurve,
		rateCurve:   cfg.RateCurve,
		minLockDays: cfg.MinLockDays,
		maxLockDays: cfg.MaxLockDays,
	}
	p.logger.Info().
		Uint64("baseApr", cfg.BaseApr).
		Uint64("baseRate", cfg.BaseRate).
		Uint64("minLockDays", cfg.MinLockDays).
		Uint64("maxLockDays", cfg.MaxLockDays).
		Msg("Flexible-term pool created")
	return p, nil
}

func validateBaseRates(apr, rate uint64) error {
	if apr > accrual.AprDenominator {
		return ErrInvalidApr
	}
	if rate > accrual.AprDenominator {
		return ErrInvalidBonusRate
	}
	return nil
}

func validateDurationLimit(minDays, maxDays uint64) error {
	if maxDays > MaxLockLimitDays {
		return fmt.Errorf("%w: max. limit should be <= %d days", ErrInvalidDurationLimit, MaxLockLimitDays)
	}
	if minDays < MinLockLimitDays {
		return fmt.Errorf("%w: min. limit should be >= %d days", ErrInvalidDurationLimit, MinLockLimitDays)
	}
	if maxDays <= minDays {
		return fmt.Errorf("%w: max. limit is not > min. limit", ErrInvalidDurationLimit)
	}
	return nil
}

// Deposit adds to the caller's base position, opening it if needed.
func (p *FlexPool) Deposit(auth access.Auth, amount sdkmath.Int) error {
	return p.exec(access.OpDeposit, auth, func(now int64) ([]events.Event, error) {
		if err := p.checkDeposit(auth.Caller, amount); err != nil {
			return nil, err
		}
		if err := p.collect(auth.Caller, amount); err != nil {
			return nil, err
		}
		p.book.AddBase(auth.Caller, amount, now, p.baseRates, p.scales)

		p.logger.Info().Str("lender", auth.Caller.Hex()).Str("amount", amount.String()).Msg("Deposited into base")
		return []events.Event{events.Deposited(p.name, now, auth.Caller, 0, amount, 0, 0, 0)}, nil
	})
}

// DepositLocked opens a locked position and returns its slot id.
func (p *FlexPool) DepositLocked(auth access.Auth, amount sdkmath.Int, lockDays uint64) (uint64, error) {
	var id uint64
	err := p.exec(access.OpDepositLocked, auth, func(now int64) ([]events.Event, error) {
		apr, rate, err := p.quote(lockDays)
		if err != nil {
			return nil, err
		}
		if err := p.checkDeposit(auth.Caller, amount); err != nil {
			return nil, err
		}
		if err := p.collect(auth.Caller, amount); err != nil {
			return nil, err
		}

		lock := int64(lockDays) * accrual.Day
		pos := accrual.NewPosition(auth.Caller, amount, now, now, now+lock, accrual.Rates{Apr: apr, BonusRate: rate})
		pos.LockDays = lockDays
		id = p.book.AddLocked(pos)

		p.logger.Info().Str("lender", auth.Caller.Hex()).Str("amount", amount.String()).
			Uint64("id", id).Uint64("days", lockDays).Uint64("apr", apr).Uint64("rate", rate).Msg("Deposited into locked slot")
		return []events.Event{events.Deposited(p.name, now, auth.Caller, id, amount, lock, apr, rate)}, nil
	})
	return id, err
}

// quote returns the curve rates a locked deposit of lockDays would get. Caller holds mu.
func (p *FlexPool) quote(lockDays uint64) (apr, rate uint64, err error) {
	if p.aprCurve == nil || p.rateCurve == nil || p.maxLockDays == 0 {
		return 0, 0, ErrNotConfigured
	}
	if lockDays < p.minLockDays {
		return 0, 0, ErrDurationBelowMin
	}
	if lockDays > p.maxLockDays {
		return 0, 0, ErrDurationAboveMax
	}
	apr, err = p.aprCurve.Rate(lockDays)
	if err != nil {
		return 0, 0, fmt.Errorf("apr curve %s: %w", p.aprCurve.Name(), err)
	}
	rate, err = p.rateCurve.Rate(lockDays)
	if err != nil {
		return 0, 0, fmt.Errorf("rate curve %s: %w", p.rateCurve.Name(), err)
	}
	return apr, rate, nil
}

// ClaimBonus pays the bonus accrued on the caller's base position.
func (p *FlexPool) ClaimBonus(auth access.Auth) (sdkmath.Int, error) {
	paid := sdkmath.ZeroInt()
	err := p.exec(access.OpClaimBonus, auth, func(now int64) ([]events.Event, error) {
		base := p.book.Base(auth.Caller)
		if base == nil {
			return nil, ErrNoDeposit
		}
		_, bonus := base.Pending(now, p.baseRates, p.scales)
		if err := p.payBonus(auth.Caller, bonus); err != nil {
			return nil, err
		}
		base.MarkBonusClaimed(now, p.baseRates, p.scales)
		paid = bonus
		return []events.Event{events.BonusClaimed(p.name, now, auth.Caller, bonus)}, nil
	})
	return paid, err
}

// ClaimLockedBonus pays the bonus accrued on one locked position.
func (p *FlexPool) ClaimLockedBonus(auth access.Auth, id uint64) (sdkmath.Int, error) {
	paid := sdkmath.ZeroInt()
	err := p.exec(access.OpClaimBonus, auth, func(now int64) ([]events.Event, error) {
		pos, err := p.locked(auth.Caller, id)
		if err != nil {
			return nil, err
		}
		_, bonus := pos.Pending(now, pos.Rates, p.scales)
		if err := p.payBonus(auth.Caller, bonus); err != nil {
			return nil, err
		}
		pos.MarkBonusClaimed(now, pos.Rates, p.scales)
		paid = bonus
		return []events.Event{events.BonusClaimed(p.name, now, auth.Caller, bonus)}, nil
	})
	return paid, err
}

// ClaimAllBonuses pays the bonus of the base position and every locked position at once.
func (p *FlexPool) ClaimAllBonuses(auth access.Auth) (sdkmath.Int, error) {
	paid := sdkmath.ZeroInt()
	err := p.exec(access.OpClaimBonus, auth, func(now int64) ([]events.Event, error) {
		acc := p.book.Account(auth.Caller)
		if acc == nil {
			return nil, ErrNoDeposit
		}
		total := sdkmath.ZeroInt()
		if acc.Base != nil {
			_, b := acc.Base.Pending(now, p.baseRates, p.scales)
			total = total.Add(b)
		}
		acc.Locked.Each(func(_ uint64, pos *accrual.Position) {
			_, b := pos.Pending(now, pos.Rates, p.scales)
			total = total.Add(b)
		})
		if err := p.payBonus(auth.Caller, total); err != nil {
			return nil, err
		}
		if acc.Base != nil {
			acc.Base.MarkBonusClaimed(now, p.baseRates, p.scales)
		}
		acc.Locked.Each(func(_ uint64, pos *accrual.Position) {
			pos.MarkBonusClaimed(now, pos.Rates, p.scales)
		})
		paid = total
		return []events.Event{events.BonusClaimed(p.name, now, auth.Caller, total)}, nil
	})
	return paid, err
}

func (p *FlexPool) payBonus(owner common.Address, bonus sdkmath.Int) error {
	zero := sdkmath.ZeroInt()
	if err := p.settle(owner, zero, zero, zero, bonus); err != nil {
		return err
	}
	p.logger.Info().Str("lender", owner.Hex()).Str("bonus", bonus.String()).Msg("Bonus claimed")
	return nil
}

func (p *FlexPool) locked(owner common.Address, id uint64) (*accrual.Position, error) {
	pos, err := p.book.Locked(owner, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrPositionNotFound, id)
	}
	return pos, nil
}

// Withdraw closes the caller's base position, paying principal and all rewards.
func (p *FlexPool) Withdraw(auth access.Auth) (types.Payout, error) {
	var out types.Payout
	err := p.exec(access.OpWithdraw, auth, func(now int64) ([]events.Event, error) {
		base := p.book.Base(auth.Caller)
		if base == nil {
			return nil, ErrNothingToWithdraw
		}
		stable, bonus := base.Pending(now, p.baseRates, p.scales)
		ev, err := p.close(auth.Caller, base, now, stable, bonus)
		if err != nil {
			return nil, err
		}
		if _, err := p.book.CloseBase(auth.Caller); err != nil {
			return nil, err
		}
		out = p.payout(base.Principal, sdkmath.ZeroInt(), stable, bonus)
		return []events.Event{ev}, nil
	})
	return out, err
}

// WithdrawLocked closes a matured locked position.
func (p *FlexPool) WithdrawLocked(auth access.Auth, id uint64) (types.Payout, error) {
	var out types.Payout
	err := p.exec(access.OpWithdraw, auth, func(now int64) ([]events.Event, error) {
		pos, err := p.locked(auth.Caller, id)
		if err != nil {
			return nil, err
		}
		if !pos.Matured(now) {
			return nil, ErrNotMatured
		}
		stable, bonus := pos.Pending(now, pos.Rates, p.scales)
		ev, err := p.close(auth.Caller, pos, now, stable, bonus)
		if err != nil {
			return nil, err
		}
		if _, err := p.book.CloseLocked(auth.Caller, id); err != nil {
			return nil, err
		}
		out = p.payout(pos.Principal, sdkmath.ZeroInt(), stable, bonus)
		return []events.Event{ev}, nil
	})
	return out, err
}

func (p *FlexPool) close(owner common.Address, pos *accrual.Position, now int64, stable, bonus sdkmath.Int) (events.Event, error) {
	if err := p.settle(owner, pos.Principal, sdkmath.ZeroInt(), stable, bonus); err != nil {
		return events.Event{}, err
	}
	p.logger.Info().Str("lender", owner.Hex()).Str("principal", pos.Principal.String()).
		Str("stable", stable.String()).Str("bonus", bonus.String()).Msg("Withdrawn")
	return events.Withdrawn(p.name, now, owner, pos.Principal, stable, bonus), nil
}

// EmergencyWithdraw exits a locked position before maturity, paying principal
// minus the penalty and forfeiting every unpaid reward.
func (p *FlexPool) EmergencyWithdraw(auth access.Auth, id uint64) (types.Payout, error) {
	var out types.Payout
	err := p.exec(access.OpEmergencyWithdraw, auth, func(now int64) ([]events.Event, error) {
		pos, err := p.locked(auth.Caller, id)
		if err != nil {
			return nil, err
		}
		if pos.Matured(now) {
			return nil, ErrCannotEmergencyWithdraw
		}
		penalty := accrual.Penalty(pos.Principal, p.withdrawRate)
		forfeitStable, forfeitBonus := pos.Pending(now, pos.Rates, p.scales)
		zero := sdkmath.ZeroInt()
		if err := p.settle(auth.Caller, pos.Principal, penalty, zero, zero); err != nil {
			return nil, err
		}
		if _, err := p.book.CloseLocked(auth.Caller, id); err != nil {
			return nil, err
		}
		p.totalPenaltyFee = p.totalPenaltyFee.Add(penalty)

		out = p.payout(pos.Principal, penalty, zero, zero)
		out.Forfeited = forfeited(p.stable.Info().Denom, forfeitStable, p.bonus.Info().Denom, forfeitBonus)

		p.logger.Warn().Str("lender", auth.Caller.Hex()).Uint64("id", id).
			Str("principal", pos.Principal.String()).Str("penalty", penalty.String()).Msg("Emergency withdrawal")
		return []events.Event{events.WithdrawnEmergency(p.name, now, auth.Caller, pos.Principal.Sub(penalty), penalty, forfeitStable, forfeitBonus)}, nil
	})
	return out, err
}

// === Admin Functions ===

// ChangeBaseRates records new global base rates from now on.
func (p *FlexPool) ChangeBaseRates(auth access.Auth, apr, rate uint64) error {
	if err := validateBaseRates(apr, rate); err != nil {
		return err
	}
	return p.exec(access.OpChangeBaseRates, auth, func(now int64) ([]events.Event, error) {
		return p.appendRates(now, accrual.Rates{Apr: apr, BonusRate: rate})
	})
}

func (p *FlexPool) ChangeBaseApr(auth access.Auth, apr uint64) error {
	if err := validateBaseRates(apr, 0); err != nil {
		return err
	}
	return p.exec(access.OpChangeBaseRates, auth, func(now int64) ([]events.Event, error) {
		next := p.baseRates.Latest().Rates
		next.Apr = apr
		return p.appendRates(now, next)
	})
}

func (p *FlexPool) ChangeBaseRate(auth access.Auth, rate uint64) error {
	if err := validateBaseRates(0, rate); err != nil {
		return err
	}
	return p.exec(access.OpChangeBaseRates, auth, func(now int64) ([]events.Event, error) {
		next := p.baseRates.Latest().Rates
		next.BonusRate = rate
		return p.appendRates(now, next)
	})
}

func (p *FlexPool) appendRates(now int64, next accrual.Rates) ([]events.Event, error) {
	prev := p.baseRates.Latest().Rates
	if err := p.baseRates.Append(now, next); err != nil {
		return nil, err
	}
	var evs []events.Event
	if prev.Apr != next.Apr {
		evs = append(evs, events.ValueChanged(p.name, events.KindBaseAprChanged, now, u64(prev.Apr), u64(next.Apr)))
	}
	if prev.BonusRate != next.BonusRate {
		evs = append(evs, events.ValueChanged(p.name, events.KindBaseRateChanged, now, u64(prev.BonusRate), u64(next.BonusRate)))
	}
	p.logger.Info().Uint64("apr", next.Apr).Uint64("rate", next.BonusRate).Int("checkpoints", p.baseRates.Len()).Msg("Base rates changed")
	return evs, nil
}

// SwitchAprCurve replaces the APR curve for positions opened from now on.
func (p *FlexPool) SwitchAprCurve(auth access.Auth, c curve.RateCurve) error {
	if c == nil {
		return ErrInvalidCurve
	}
	return p.exec(access.OpSwitchCurve, auth, func(now int64) ([]events.Event, error) {
		old := curveName(p.aprCurve)
		p.aprCurve = c
		return []events.Event{events.ValueChanged(p.name, events.KindAprCurveSwitched, now, old, c.Name())}, nil
	})
}

// SwitchRateCurve replaces the bonus-rate curve for positions opened from now on.
func (p *FlexPool) SwitchRateCurve(auth access.Auth, c curve.RateCurve) error {
	if c == nil {
		return ErrInvalidCurve
	}
	return p.exec(access.OpSwitchCurve, auth, func(now int64) ([]events.Event, error) {
		old := curveName(p.rateCurve)
		p.rateCurve = c
		return []events.Event{events.ValueChanged(p.name, events.KindRateCurveSwitched, now, old, c.Name())}, nil
	})
}

func curveName(c curve.RateCurve) string {
	if c == nil {
		return ""
	}
	return c.Name()
}

// ChangeDurationLimit sets the allowed lock range in days.
func (p *FlexPool) ChangeDurationLimit(auth access.Auth, minDays, maxDays uint64) error {
	if err := validateDurationLimit(minDays, maxDays); err != nil {
		return err
	}
	return p.exec(access.OpChangeDurationLimit, auth, func(now int64) ([]events.Event, error) {
		p.minLockDays = minDays
		p.maxLockDays = maxDays
		return []events.Event{events.DurationLimitChanged(p.name, now, minDays, maxDays)}, nil
	})
}

// --- Queries ---

func (p *FlexPool) BaseRates() accrual.Rates {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.baseRates.Latest().Rates
}

func (p *FlexPool) Checkpoints() []accrual.Checkpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.baseRates.Entries()
}

func (p *FlexPool) DurationLimits() (minDays, maxDays uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.minLockDays, p.maxLockDays
}

// Quote previews the rates a locked deposit of lockDays would be opened with.
func (p *FlexPool) Quote(lockDays uint64) (accrual.Rates, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	apr, rate, err := p.quote(lockDays)
	if err != nil {
		return accrual.Rates{}, err
	}
	return accrual.Rates{Apr: apr, BonusRate: rate}, nil
}

func (p *FlexPool) LockedIDs(owner common.Address) []uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.book.LockedIDs(owner)
}

// Position evaluates one locked position at now.
func (p *FlexPool) Position(owner common.Address, id uint64) (types.PositionView, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pos, err := p.locked(owner, id)
	if err != nil {
		return types.PositionView{}, err
	}
	return positionView(id, types.PositionLocked, pos, p.clock.Now(), pos.Rates, p.scales), nil
}

// BaseBonusRewards is the unclaimed bonus of the owner's base position.
func (p *FlexPool) BaseBonusRewards(owner common.Address) sdkmath.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	base := p.book.Base(owner)
	if base == nil {
		return sdkmath.ZeroInt()
	}
	_, bonus := base.Pending(p.clock.Now(), p.baseRates, p.scales)
	return bonus
}

// StableRewards is the stable reward across all of the owner's positions at now.
func (p *FlexPool) StableRewards(owner common.Address) sdkmath.Int {
	return p.Account(owner).StableRewards
}

// BonusRewards is the unclaimed bonus across all of the owner's positions at now.
func (p *FlexPool) BonusRewards(owner common.Address) sdkmath.Int {
	return p.Account(owner).BonusRewards
}

func (p *FlexPool) Account(owner common.Address) types.AccountView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	now := p.clock.Now()

	view := newAccountView(owner)
	acc := p.book.Account(owner)
	if acc == nil {
		return view.AccountView
	}
	if acc.Base != nil {
		v := positionView(0, types.PositionBase, acc.Base, now, p.baseRates, p.scales)
		v.Apr, v.BonusRate = p.baseRates.Latest().Rates.Apr, p.baseRates.Latest().Rates.BonusRate
		view.add(v)
	}
	acc.Locked.Each(func(id uint64, pos *accrual.Position) {
		view.add(positionView(id, types.PositionLocked, pos, now, pos.Rates, p.scales))
	})
	return view.AccountView
}

func (p *FlexPool) Info() types.PoolInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	info := p.commonInfo()
	latest := p.baseRates.Latest().Rates
	info.BaseApr = latest.Apr
	info.BaseRate = latest.BonusRate
	info.MinLockDays = p.minLockDays
	info.MaxLockDays = p.maxLockDays
	return info
}

func (p *FlexPool) String() string {
	return fmt.Sprintf("flexible pool %s (%s)", p.name, p.address.Hex())
}
