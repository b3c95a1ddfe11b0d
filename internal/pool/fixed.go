package pool

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/accrual"
	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
)

// FixedConfig holds the configuration for creating a new FixedPool
type FixedConfig struct {
	CommonConfig
	Apr            uint64 // 1000 is 10.00%
	BonusRate      uint64 // 100 is one bonus token per stable token per year
	StartDate      int64
	DepositEndDate int64
	LockDays       uint64
}

// FixedPool accepts deposits until DepositEndDate and locks all of them until
// StartDate + LockDays. Every deposit is its own position at the pool's rates.
type FixedPool struct {
	*core
	rates          accrual.Rates
	startDate      int64
	depositEndDate int64
	lockDuration   int64
}

func NewFixedPool(cfg FixedConfig) (*FixedPool, error) {
	if err := validateCommon(cfg.CommonConfig); err != nil {
		return nil, err
	}
	now := cfg.Clock.Now()
	if cfg.StartDate <= now {
		return nil, ErrInvalidStartDate
	}
	if cfg.LockDays == 0 {
		return nil, ErrInvalidDuration
	}
	lock := int64(cfg.LockDays) * accrual.Day
	if cfg.DepositEndDate <= now || cfg.DepositEndDate >= cfg.StartDate+lock {
		return nil, ErrInvalidDepositEndDate
	}
	if cfg.BonusRate > accrual.AprDenominator {
		return nil, ErrInvalidBonusRate
	}

	p := &FixedPool{
		core:           newCore(types.PoolKindFixed, cfg.CommonConfig),
		rates:          accrual.Rates{Apr: cfg.Apr, BonusRate: cfg.BonusRate},
		startDate:      cfg.StartDate,
		depositEndDate: cfg.DepositEndDate,
		lockDuration:   lock,
	}
	p.logger.Info().
		Uint64("apr", cfg.Apr).
		Uint64("bonusRate", cfg.BonusRate).
		Int64("startDate", cfg.StartDate).
		Int64("depositEndDate", cfg.DepositEndDate).
		Uint64("lockDays", cfg.LockDays).
		Msg("Fixed-term pool created")
	return p, nil
}

func (p *FixedPool) endDate() int64 { return p.startDate + p.lockDuration }

// Phase reports the lifecycle state at now.
func (p *FixedPool) Phase(now int64) types.PoolPhase {
	switch {
	case now < p.startDate:
		return types.PhaseNotStarted
	case now <= p.depositEndDate:
		return types.PhaseDepositWindowOpen
	case now < p.endDate():
		return types.PhaseLocked
	default:
		return types.PhaseMatured
	}
}

// Deposit opens a new position for the caller.
func (p *FixedPool) Deposit(auth access.Auth, amount sdkmath.Int) error {
	return p.exec(access.OpDeposit, auth, func(now int64) ([]events.Event, error) {
		if now > p.depositEndDate {
			return nil, ErrDepositWindowClosed
		}
		if err := p.checkDeposit(auth.Caller, amount); err != nil {
			return nil, err
		}
		if err := p.collect(auth.Caller, amount); err != nil {
			return nil, err
		}

		pos := accrual.NewPosition(auth.Caller, amount, now, p.startDate, p.endDate(), p.rates)
		id := p.book.AddDeposit(pos)

		p.logger.Info().Str("lender", auth.Caller.Hex()).Str("amount", amount.String()).Uint64("id", id).Msg("Deposited")
		return []events.Event{events.Deposited(p.name, now, auth.Caller, id, amount, p.lockDuration, p.rates.Apr, p.rates.BonusRate)}, nil
	})
}

func (p *FixedPool) pending(owner common.Address, now int64) (stable, bonus sdkmath.Int) {
	stable, bonus = sdkmath.ZeroInt(), sdkmath.ZeroInt()
	for _, pos := range p.book.Deposits(owner) {
		s, b := pos.Pending(now, pos.Rates, p.scales)
		stable = stable.Add(s)
		bonus = bonus.Add(b)
	}
	return stable, bonus
}

// ClaimBonus pays the bonus accrued so far on every deposit of the caller.
func (p *FixedPool) ClaimBonus(auth access.Auth) (sdkmath.Int, error) {
	paid := sdkmath.ZeroInt()
	err := p.exec(access.OpClaimBonus, auth, func(now int64) ([]events.Event, error) {
		deposits := p.book.Deposits(auth.Caller)
		if len(deposits) == 0 {
			return nil, ErrNoDeposit
		}
		if now < p.startDate {
			return nil, ErrNotStarted
		}
		_, bonus := p.pending(auth.Caller, now)
		if err := p.settle(auth.Caller, sdkmath.ZeroInt(), sdkmath.ZeroInt(), sdkmath.ZeroInt(), bonus); err != nil {
			return nil, err
		}
		for _, pos := range deposits {
			pos.MarkBonusClaimed(now, pos.Rates, p.scales)
		}
		paid = bonus

		p.logger.Info().Str("lender", auth.Caller.Hex()).Str("bonus", bonus.String()).Msg("Bonus claimed")
		return []events.Event{events.BonusClaimed(p.name, now, auth.Caller, bonus)}, nil
	})
	return paid, err
}

// Withdraw returns principal plus every remaining reward once the lock has ended.
func (p *FixedPool) Withdraw(auth access.Auth) (types.Payout, error) {
	var out types.Payout
	err := p.exec(access.OpWithdraw, auth, func(now int64) ([]events.Event, error) {
		deposits := p.book.Deposits(auth.Caller)
		if len(deposits) == 0 {
			return nil, ErrNothingToWithdraw
		}
		if now < p.endDate() {
			return nil, ErrNotEnded
		}
		principal := p.book.TotalDeposit(auth.Caller)
		stable, bonus := p.pending(auth.Caller, now)
		zero := sdkmath.ZeroInt()
		if err := p.settle(auth.Caller, principal, zero, stable, bonus); err != nil {
			return nil, err
		}
		if _, err := p.book.CloseDeposits(auth.Caller); err != nil {
			return nil, err
		}
		out = p.payout(principal, zero, stable, bonus)

		p.logger.Info().Str("lender", auth.Caller.Hex()).Str("principal", principal.String()).
			Str("stable", stable.String()).Str("bonus", bonus.String()).Msg("Withdrawn")
		return []events.Event{events.Withdrawn(p.name, now, auth.Caller, principal, stable, bonus)}, nil
	})
	return out, err
}

// EmergencyWithdraw exits every deposit before the lock ends. The penalty is
// kept as a fee and all unpaid rewards are forfeited.
func (p *FixedPool) EmergencyWithdraw(auth access.Auth) (types.Payout, error) {
	var out types.Payout
	err := p.exec(access.OpEmergencyWithdraw, auth, func(now int64) ([]events.Event, error) {
		deposits := p.book.Deposits(auth.Caller)
		if len(deposits) == 0 {
			return nil, ErrNothingToWithdraw
		}
		if now >= p.endDate() {
			return nil, ErrCannotEmergencyWithdraw
		}
		principal := p.book.TotalDeposit(auth.Caller)
		penalty := accrual.Penalty(principal, p.withdrawRate)
		forfeitStable, forfeitBonus := p.pending(auth.Caller, now)
		zero := sdkmath.ZeroInt()
		if err := p.settle(auth.Caller, principal, penalty, zero, zero); err != nil {
			return nil, err
		}
		if _, err := p.book.CloseDeposits(auth.Caller); err != nil {
			return nil, err
		}
		p.totalPenaltyFee = p.totalPenaltyFee.Add(penalty)

		out = p.payout(principal, penalty, zero, zero)
		out.Forfeited = forfeited(p.stable.Info().Denom, forfeitStable, p.bonus.Info().Denom, forfeitBonus)

		p.logger.Warn().Str("lender", auth.Caller.Hex()).Str("principal", principal.String()).
			Str("penalty", penalty.String()).Msg("Emergency withdrawal")
		return []events.Event{events.WithdrawnEmergency(p.name, now, auth.Caller, principal.Sub(penalty), penalty, forfeitStable, forfeitBonus)}, nil
	})
	return out, err
}

// --- Queries ---

func (p *FixedPool) StartDate() int64      { return p.startDate }
func (p *FixedPool) DepositEndDate() int64 { return p.depositEndDate }
func (p *FixedPool) LockDuration() int64   { return p.lockDuration }
func (p *FixedPool) Apr() uint64           { return p.rates.Apr }
func (p *FixedPool) BonusRate() uint64     { return p.rates.BonusRate }

// StableRewards is the stable reward the owner would receive at now.
func (p *FixedPool) StableRewards(owner common.Address) sdkmath.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	stable, _ := p.pending(owner, p.clock.Now())
	return stable
}

// BonusRewards is the unclaimed bonus of owner at now.
func (p *FixedPool) BonusRewards(owner common.Address) sdkmath.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, bonus := p.pending(owner, p.clock.Now())
	return bonus
}

func (p *FixedPool) Account(owner common.Address) types.AccountView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	now := p.clock.Now()

	view := newAccountView(owner)
	for i, pos := range p.book.Deposits(owner) {
		view.add(positionView(uint64(i), types.PositionFixed, pos, now, pos.Rates, p.scales))
	}
	return view.AccountView
}

func (p *FixedPool) Info() types.PoolInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	info := p.commonInfo()
	info.Phase = p.Phase(p.clock.Now()).String()
	info.StartDate = p.startDate
	info.DepositEndDate = p.depositEndDate
	info.LockDuration = p.lockDuration
	info.Apr = p.rates.Apr
	info.BonusRate = p.rates.BonusRate
	return info
}

func (p *FixedPool) String() string {
	return fmt.Sprintf("fixed pool %s (%s)", p.name, p.address.Hex())
}
