package pool

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/eligibility"
	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) fixedConfig() FixedConfig {
	return FixedConfig{
		CommonConfig:   f.common("fixed-90"),
		Apr:            1000,
		BonusRate:      100,
		StartDate:      t0 + day,
		DepositEndDate: t0 + 2*day,
		LockDays:       90,
	}
}

func (f *fixture) fixedPool(t *testing.T, mutate func(*FixedConfig)) *FixedPool {
	t.Helper()
	cfg := f.fixedConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := NewFixedPool(cfg)
	require.NoError(t, err)
	f.authorize(t, f.market, p.Address())
	return p
}

func TestNewFixedPoolValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*FixedConfig)
		err    error
	}{
		{"zero admin", func(c *FixedConfig) { c.Admin = common.Address{} }, ErrInvalidAdmin},
		{"missing stable", func(c *FixedConfig) { c.StableToken = nil }, ErrInvalidStableToken},
		{"same tokens", func(c *FixedConfig) { c.BonusToken = f.usdc }, ErrInvalidBonusToken},
		{"zero min deposit", func(c *FixedConfig) { c.MinDeposit = sdkmath.ZeroInt() }, ErrInvalidMinDeposit},
		{"limit below min deposit", func(c *FixedConfig) { c.MaxLimit = usdc(1) }, ErrInvalidPoolLimit},
		{"full penalty", func(c *FixedConfig) { c.WithdrawRate = 10000 }, ErrInvalidWithdrawRate},
		{"verification without gate", func(c *FixedConfig) { c.VerificationEnabled = true }, ErrInvalidVerification},
		{"start in the past", func(c *FixedConfig) { c.StartDate = t0 }, ErrInvalidStartDate},
		{"zero lock", func(c *FixedConfig) { c.LockDays = 0 }, ErrInvalidDuration},
		{"deposit end in the past", func(c *FixedConfig) { c.DepositEndDate = t0 }, ErrInvalidDepositEndDate},
		{"deposit end after maturity", func(c *FixedConfig) { c.DepositEndDate = t0 + 91*day }, ErrInvalidDepositEndDate},
		{"bonus rate too high", func(c *FixedConfig) { c.BonusRate = 10001 }, ErrInvalidBonusRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := f.fixedConfig()
			tt.mutate(&cfg)
			_, err := NewFixedPool(cfg)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFixedPoolPhases(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, nil)

	assert.Equal(t, types.PhaseNotStarted, p.Phase(t0))
	assert.Equal(t, types.PhaseDepositWindowOpen, p.Phase(t0+day))
	assert.Equal(t, types.PhaseDepositWindowOpen, p.Phase(t0+2*day))
	assert.Equal(t, types.PhaseLocked, p.Phase(t0+2*day+1))
	assert.Equal(t, types.PhaseMatured, p.Phase(t0+91*day))
}

func TestFixedPoolFullPeriodWithdraw(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, nil)
	f.fund(t, alice, p.Address(), usdc(100))

	require.NoError(t, p.Deposit(access.As(alice), usdc(100)))
	assert.Equal(t, usdc(100), p.PoolSize())
	assert.Equal(t, usdc(100), p.TotalDeposit(alice))
	bal, err := p.StrategyBalance()
	require.NoError(t, err)
	assert.Equal(t, usdc(100), bal)

	f.clock.Set(t0 + 2*day)
	_, err = p.Withdraw(access.As(alice))
	assert.ErrorIs(t, err, ErrNotEnded)

	f.clock.Set(t0 + 91*day)
	f.reserve(t, p.Address(), usdc(10), elys(100))
	assert.Equal(t, sdkmath.NewInt(2465753), p.StableRewards(alice))

	out, err := p.Withdraw(access.As(alice))
	require.NoError(t, err)
	assert.Equal(t, usdc(100), out.Principal.Amount)
	assert.Equal(t, sdkmath.NewInt(2465753), out.StableReward.Amount)
	assert.Equal(t, mustInt(t, "24657534246575342465"), out.BonusReward.Amount)
	assert.True(t, out.Penalty.IsZero())

	assert.Equal(t, usdc(100).Add(sdkmath.NewInt(2465753)), f.usdc.BalanceOf(alice))
	assert.Equal(t, mustInt(t, "24657534246575342465"), f.elys.BalanceOf(alice))
	assert.True(t, p.PoolSize().IsZero())
	assert.Empty(t, p.Owners())

	_, err = p.Withdraw(access.As(alice))
	assert.ErrorIs(t, err, ErrNothingToWithdraw)
}

func TestFixedPoolSplitBonusClaims(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, nil)
	f.fund(t, alice, p.Address(), usdc(100))
	f.reserve(t, p.Address(), usdc(10), elys(100))

	_, err := p.ClaimBonus(access.As(alice))
	assert.ErrorIs(t, err, ErrNoDeposit)

	require.NoError(t, p.Deposit(access.As(alice), usdc(100)))
	_, err = p.ClaimBonus(access.As(alice))
	assert.ErrorIs(t, err, ErrNotStarted)

	f.clock.Set(t0 + day + 45*day)
	first, err := p.ClaimBonus(access.As(alice))
	require.NoError(t, err)
	assert.Equal(t, mustInt(t, "12328767123287671232"), first)
	again, err := p.ClaimBonus(access.As(alice))
	require.NoError(t, err)
	assert.True(t, again.IsZero())

	f.clock.Set(t0 + 91*day)
	second, err := p.ClaimBonus(access.As(alice))
	require.NoError(t, err)
	assert.Equal(t, mustInt(t, "24657534246575342465"), first.Add(second))

	out, err := p.Withdraw(access.As(alice))
	require.NoError(t, err)
	assert.True(t, out.BonusReward.IsZero())
	assert.Equal(t, sdkmath.NewInt(2465753), out.StableReward.Amount)
	assert.Len(t, f.recorder.ByKind(events.KindBonusClaimed), 3)
}

func TestFixedPoolDepositWindow(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, nil)
	f.fund(t, alice, p.Address(), usdc(200))

	f.clock.Set(t0 + 2*day)
	require.NoError(t, p.Deposit(access.As(alice), usdc(100)))

	f.clock.Advance(1)
	err := p.Deposit(access.As(alice), usdc(100))
	assert.ErrorIs(t, err, ErrDepositWindowClosed)
	assert.Equal(t, usdc(100), p.PoolSize())
}

func TestFixedPoolDepositChecks(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, func(c *FixedConfig) { c.MaxLimit = usdc(150) })
	f.fund(t, alice, p.Address(), usdc(300))

	assert.ErrorIs(t, p.Deposit(access.As(alice), sdkmath.ZeroInt()), ErrInvalidAmount)
	assert.ErrorIs(t, p.Deposit(access.As(alice), sdkmath.NewInt(999_999)), ErrBelowMinDeposit)
	assert.ErrorIs(t, p.Deposit(access.Auth{}, usdc(10)), access.ErrUnauthorized)

	require.NoError(t, p.Deposit(access.As(alice), usdc(100)))
	err := p.Deposit(access.As(alice), usdc(60))
	assert.ErrorIs(t, err, ErrPoolLimit)
	assert.Equal(t, usdc(100), p.PoolSize())
	assert.Equal(t, usdc(200), f.usdc.BalanceOf(alice))

	require.NoError(t, p.Deposit(access.As(alice), usdc(50)))
	assert.Equal(t, usdc(150), p.PoolSize())
	assert.Len(t, p.Account(alice).Positions, 2)
}

func TestFixedPoolRequiresStrategy(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, func(c *FixedConfig) { c.Strategy = nil })
	f.fund(t, alice, p.Address(), usdc(10))

	err := p.Deposit(access.As(alice), usdc(10))
	assert.ErrorIs(t, err, ErrNoStrategy)
}

func TestFixedPoolEmergencyWithdrawWithoutPenalty(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, nil)
	f.fund(t, alice, p.Address(), usdc(100))
	require.NoError(t, p.Deposit(access.As(alice), usdc(100)))

	f.clock.Set(t0 + 11*day)
	out, err := p.EmergencyWithdraw(access.As(alice))
	require.NoError(t, err)
	assert.Equal(t, usdc(100), out.Principal.Amount)
	assert.True(t, out.StableReward.IsZero())
	assert.True(t, out.BonusReward.IsZero())
	assert.True(t, out.Penalty.IsZero())
	assert.True(t, out.Forfeited.AmountOf("uusdc").IsPositive())
	assert.True(t, out.Forfeited.AmountOf("uelys").IsPositive())

	assert.Equal(t, usdc(100), f.usdc.BalanceOf(alice))
	assert.True(t, p.TotalPenaltyFee().IsZero())
	assert.True(t, p.PoolSize().IsZero())

	_, err = p.WithdrawFees(access.As(admin))
	assert.ErrorIs(t, err, ErrNoFees)
}

func TestFixedPoolEmergencyWithdrawPenalty(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, nil)
	require.NoError(t, p.SetWithdrawRate(access.As(admin), 500))
	f.fund(t, alice, p.Address(), usdc(100))
	require.NoError(t, p.Deposit(access.As(alice), usdc(100)))

	out, err := p.EmergencyWithdraw(access.As(alice))
	require.NoError(t, err)
	assert.Equal(t, usdc(95), out.Principal.Amount)
	assert.Equal(t, usdc(5), out.Penalty.Amount)
	assert.Equal(t, usdc(5), p.TotalPenaltyFee())

	_, err = p.WithdrawFees(access.As(alice))
	assert.ErrorIs(t, err, access.ErrUnauthorized)

	fees, err := p.WithdrawFees(access.As(admin))
	require.NoError(t, err)
	assert.Equal(t, usdc(5), fees)
	assert.Equal(t, usdc(5), f.usdc.BalanceOf(admin))
	assert.True(t, p.TotalPenaltyFee().IsZero())
}

func TestFixedPoolEmergencyWithdrawAfterMaturity(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, nil)
	f.fund(t, alice, p.Address(), usdc(100))
	require.NoError(t, p.Deposit(access.As(alice), usdc(100)))

	f.clock.Set(t0 + 91*day)
	_, err := p.EmergencyWithdraw(access.As(alice))
	assert.ErrorIs(t, err, ErrCannotEmergencyWithdraw)
}

func TestFixedPoolWithdrawRollsBackWithoutRewardFunds(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, nil)
	f.fund(t, alice, p.Address(), usdc(100))
	require.NoError(t, p.Deposit(access.As(alice), usdc(100)))

	f.clock.Set(t0 + 91*day)
	_, err := p.Withdraw(access.As(alice))
	assert.ErrorIs(t, err, ErrInsufficientRewardFunds)

	assert.Equal(t, usdc(100), p.PoolSize())
	assert.True(t, f.usdc.BalanceOf(alice).IsZero())
	bal, err := p.StrategyBalance()
	require.NoError(t, err)
	assert.Equal(t, usdc(100), bal)
	assert.Empty(t, f.recorder.ByKind(events.KindWithdrawn))
}

func TestFixedPoolDirectTransfersDoNotChangePoolSize(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, func(c *FixedConfig) { c.MaxLimit = usdc(100) })
	f.reserve(t, p.Address(), usdc(1_000), sdkmath.ZeroInt())
	f.fund(t, alice, p.Address(), usdc(100))

	assert.True(t, p.PoolSize().IsZero())
	require.NoError(t, p.Deposit(access.As(alice), usdc(100)))
	assert.Equal(t, usdc(100), p.PoolSize())
}

func TestFixedPoolSwitchStrategy(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, nil)
	next := f.adapter(t, "market-b")
	f.authorize(t, next, p.Address())
	f.fund(t, alice, p.Address(), usdc(100))
	require.NoError(t, p.Deposit(access.As(alice), usdc(100)))

	assert.ErrorIs(t, p.SwitchStrategy(access.As(alice), next), access.ErrUnauthorized)
	require.NoError(t, p.SwitchStrategy(access.As(admin), next))
	assert.Equal(t, "market-b", p.Strategy().Name())

	old, err := f.market.Balance(p.Address())
	require.NoError(t, err)
	assert.True(t, old.IsZero())
	moved, err := p.StrategyBalance()
	require.NoError(t, err)
	assert.Equal(t, usdc(100), moved)

	ev, ok := f.recorder.Last(events.KindStrategySwitched)
	require.True(t, ok)
	assert.Equal(t, "market", ev.Attributes["old"])

	f.clock.Set(t0 + 91*day)
	f.reserve(t, p.Address(), usdc(10), elys(100))
	_, err = p.Withdraw(access.As(alice))
	require.NoError(t, err)
}

func TestFixedPoolVerification(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, nil)
	f.fund(t, alice, p.Address(), usdc(10))

	assert.ErrorIs(t, p.ChangeVerificationStatus(access.As(admin), true), ErrInvalidVerification)

	reg := eligibility.NewRegistry("kyc", admin)
	require.NoError(t, p.SwitchVerification(access.As(admin), reg))
	require.NoError(t, p.ChangeVerificationStatus(access.As(admin), true))
	assert.True(t, p.VerificationEnabled())

	assert.ErrorIs(t, p.Deposit(access.As(alice), usdc(10)), ErrNotVerified)
	require.NoError(t, reg.SetStatus(access.As(admin), alice, true))
	require.NoError(t, p.Deposit(access.As(alice), usdc(10)))
}

func TestFixedPoolAdminSetters(t *testing.T) {
	f := newFixture(t)
	p := f.fixedPool(t, nil)
	f.fund(t, alice, p.Address(), usdc(100))
	require.NoError(t, p.Deposit(access.As(alice), usdc(100)))

	assert.ErrorIs(t, p.SetWithdrawRate(access.As(admin), 10000), ErrInvalidWithdrawRate)
	assert.ErrorIs(t, p.SetWithdrawRate(access.As(bob), 10), access.ErrUnauthorized)
	require.NoError(t, p.SetWithdrawRate(access.As(admin), 10))
	assert.Equal(t, uint64(10), p.WithdrawRate())

	assert.ErrorIs(t, p.ChangePoolLimit(access.As(admin), usdc(50)), ErrInvalidPoolLimit)
	require.NoError(t, p.ChangePoolLimit(access.As(admin), usdc(100)))
	assert.Equal(t, usdc(100), p.MaxLimit())

	ev, ok := f.recorder.Last(events.KindPoolLimitChanged)
	require.True(t, ok)
	assert.Equal(t, usdc(100).String(), ev.Attributes["new"])

	info := p.Info()
	assert.Equal(t, "fixed-90", info.Name)
	assert.Equal(t, types.PoolKindFixed, info.Kind)
	assert.Equal(t, types.PhaseNotStarted.String(), info.Phase)
	assert.Equal(t, usdc(100), info.PoolSize)
	assert.Equal(t, "market", info.Strategy)
}
