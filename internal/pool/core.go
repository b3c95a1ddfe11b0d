package pool

import (
	"fmt"
	"strconv"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/accrual"
	"github.com/elys-network/lender/internal/clock"
	"github.com/elys-network/lender/internal/eligibility"
	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/logger"
	"github.com/elys-network/lender/internal/strategy"
	"github.com/elys-network/lender/internal/token"
	"github.com/elys-network/lender/internal/txn"
	"github.com/elys-network/lender/internal/types"
	"github.com/elys-network/lender/internal/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// CommonConfig holds the settings shared by fixed- and flexible-term pools.
type CommonConfig struct {
	Name                string
	Admin               common.Address
	StableToken         token.Token
	BonusToken          token.Token
	MinDeposit          sdkmath.Int
	MaxLimit            sdkmath.Int
	WithdrawRate        uint64
	Strategy            strategy.Adapter // optional, may be set later
	Gate                eligibility.Gate // required when VerificationEnabled
	VerificationEnabled bool
	Clock               clock.Clock
	Emitter             events.Emitter // optional
}

// core is the state and machinery shared by both pool kinds. Every mutating
// operation runs under mu with the time read once.
type core struct {
	mu sync.RWMutex

	name    string
	kind    types.PoolKind
	address common.Address
	admin   common.Address
	policy  *access.Policy
	clock   clock.Clock
	emitter events.Emitter
	logger  zerolog.Logger

	stable token.Token
	bonus  token.Token
	scales accrual.Scales

	minDeposit      sdkmath.Int
	maxLimit        sdkmath.Int
	withdrawRate    uint64
	totalPenaltyFee sdkmath.Int

	strategy            strategy.Adapter
	gate                eligibility.Gate
	verificationEnabled bool

	book *accrual.Book
}

func validateCommon(cfg CommonConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidConfig)
	}
	if cfg.Clock == nil {
		return fmt.Errorf("%w: clock cannot be nil", ErrInvalidConfig)
	}
	if cfg.Admin == (common.Address{}) {
		return ErrInvalidAdmin
	}
	if cfg.StableToken == nil {
		return ErrInvalidStableToken
	}
	if cfg.BonusToken == nil || cfg.BonusToken.Address() == cfg.StableToken.Address() {
		return ErrInvalidBonusToken
	}
	if cfg.MinDeposit.IsNil() || !cfg.MinDeposit.IsPositive() {
		return ErrInvalidMinDeposit
	}
	if cfg.MaxLimit.IsNil() || cfg.MaxLimit.LTE(cfg.MinDeposit) {
		return ErrInvalidPoolLimit
	}
	if cfg.WithdrawRate >= accrual.BasisPoints {
		return ErrInvalidWithdrawRate
	}
	if cfg.VerificationEnabled && cfg.Gate == nil {
		return ErrInvalidVerification
	}
	return nil
}

func newCore(kind types.PoolKind, cfg CommonConfig) *core {
	emitter := cfg.Emitter
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &core{
		name:    cfg.Name,
		kind:    kind,
		address: utils.DeriveAddress("pool", cfg.Name),
		admin:   cfg.Admin,
		policy:  access.NewPolicy(cfg.Admin),
		clock:   cfg.Clock,
		emitter: emitter,
		logger:  logger.GetForComponent("lender_pool").With().Str("pool", cfg.Name).Str("kind", string(kind)).Logger(),
		stable:  cfg.StableToken,
		bonus:   cfg.BonusToken,
		scales: accrual.Scales{
			Stable: cfg.StableToken.Info().Decimals,
			Bonus:  cfg.BonusToken.Info().Decimals,
		},
		minDeposit:          cfg.MinDeposit,
		maxLimit:            cfg.MaxLimit,
		withdrawRate:        cfg.WithdrawRate,
		totalPenaltyFee:     sdkmath.ZeroInt(),
		strategy:            cfg.Strategy,
		gate:                cfg.Gate,
		verificationEnabled: cfg.VerificationEnabled,
		book:                accrual.NewBook(),
	}
}

// exec authorizes, then runs fn under the write lock with the operation time.
// Events are emitted only when fn succeeds, after the lock is released.
func (c *core) exec(op access.Operation, auth access.Auth, fn func(now int64) ([]events.Event, error)) error {
	if err := c.policy.Check(auth, op); err != nil {
		c.logger.Warn().Err(err).Str("op", string(op)).Msg("Rejected unauthorized call")
		return err
	}

	c.mu.Lock()
	now := c.clock.Now()
	evs, err := fn(now)
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug().Err(err).Str("op", string(op)).Str("caller", auth.Caller.Hex()).Msg("Operation failed")
		return err
	}
	for _, ev := range evs {
		c.emitter.Emit(ev)
	}
	return nil
}

// checkDeposit applies the deposit preconditions shared by every deposit path.
func (c *core) checkDeposit(owner common.Address, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if c.strategy == nil {
		return ErrNoStrategy
	}
	if c.verificationEnabled {
		ok, err := c.gate.IsEligible(owner)
		if err != nil {
			return fmt.Errorf("eligibility check via %s: %w", c.gate.Name(), err)
		}
		if !ok {
			return ErrNotVerified
		}
	}
	if amount.LT(c.minDeposit) {
		return ErrBelowMinDeposit
	}
	if c.book.PoolSize().Add(amount).GT(c.maxLimit) {
		return ErrPoolLimit
	}
	return nil
}

// collect pulls amount from owner and deploys it into the strategy as one unit.
func (c *core) collect(owner common.Address, amount sdkmath.Int) error {
	tx := txn.New("deposit")
	err := tx.Do("pull_stable",
		func() error { return c.stable.TransferFrom(c.address, owner, c.address, amount) },
		func() error { return c.stable.Transfer(c.address, owner, amount) },
	)
	if err != nil {
		return tx.Abort(err)
	}
	if err := tx.Do("fund_strategy", func() error {
		return strategy.FundAdapter(c.address, c.stable, c.strategy, amount)
	}, nil); err != nil {
		return tx.Abort(err)
	}
	tx.Commit()
	return nil
}

// stableAvailable is the pool's own stable holding minus fees it owes the admin.
func (c *core) stableAvailable() sdkmath.Int {
	avail := c.stable.BalanceOf(c.address).Sub(c.totalPenaltyFee)
	if avail.IsNegative() {
		return sdkmath.ZeroInt()
	}
	return avail
}

// settle pays owner as one unit: principal comes back from the strategy, the
// penalty stays in the pool, rewards come from the pool's own holdings and
// any shortfall from the strategy's surplus over pool size.
func (c *core) settle(owner common.Address, principal, penalty, stableReward, bonusReward sdkmath.Int) error {
	tx := txn.New("settle")

	pull := principal
	if shortfall := stableReward.Sub(c.stableAvailable()); shortfall.IsPositive() && c.strategy != nil {
		if surplus, err := c.strategySurplus(); err == nil && surplus.GTE(shortfall) {
			pull = pull.Add(shortfall)
		}
	}

	if pull.IsPositive() {
		if c.strategy == nil {
			return ErrNoStrategy
		}
		err := tx.Do("strategy_withdraw",
			func() error { return c.strategy.Withdraw(access.As(c.address), pull) },
			func() error { return strategy.FundAdapter(c.address, c.stable, c.strategy, pull) },
		)
		if err != nil {
			return tx.Abort(err)
		}
	}

	stableOut := principal.Sub(penalty).Add(stableReward)
	if avail := c.stableAvailable().Sub(penalty); avail.LT(stableOut) {
		return tx.Abort(fmt.Errorf("%w: %s %s needed, %s available", ErrInsufficientRewardFunds, stableOut, c.stable.Info().Symbol, avail))
	}
	if bal := c.bonus.BalanceOf(c.address); bal.LT(bonusReward) {
		return tx.Abort(fmt.Errorf("%w: %s %s needed, %s available", ErrInsufficientRewardFunds, bonusReward, c.bonus.Info().Symbol, bal))
	}

	if stableOut.IsPositive() {
		err := tx.Do("pay_stable",
			func() error { return c.stable.Transfer(c.address, owner, stableOut) },
			func() error { return c.stable.Transfer(owner, c.address, stableOut) },
		)
		if err != nil {
			return tx.Abort(err)
		}
	}
	if bonusReward.IsPositive() {
		if err := tx.Do("pay_bonus", func() error { return c.bonus.Transfer(c.address, owner, bonusReward) }, nil); err != nil {
			return tx.Abort(err)
		}
	}

	tx.Commit()
	return nil
}

// strategySurplus is what the strategy holds for the pool beyond the principal it owes.
func (c *core) strategySurplus() (sdkmath.Int, error) {
	bal, err := c.strategy.Balance(c.address)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	surplus := bal.Sub(c.book.PoolSize())
	if surplus.IsNegative() {
		return sdkmath.ZeroInt(), nil
	}
	return surplus, nil
}

func (c *core) payout(principal, penalty, stableReward, bonusReward sdkmath.Int) types.Payout {
	stableDenom := c.stable.Info().Denom
	return types.Payout{
		Principal:    sdkCoin(stableDenom, principal.Sub(penalty)),
		StableReward: sdkCoin(stableDenom, stableReward),
		BonusReward:  sdkCoin(c.bonus.Info().Denom, bonusReward),
		Penalty:      sdkCoin(stableDenom, penalty),
	}
}

// --- Admin operations shared by both pool kinds ---

func (c *core) SwitchStrategy(auth access.Auth, next strategy.Adapter) error {
	if next == nil {
		return ErrInvalidStrategy
	}
	return c.exec(access.OpSwitchStrategy, auth, func(now int64) ([]events.Event, error) {
		prev := c.strategy
		moved, err := strategy.Switch(c.address, c.stable, prev, next, c.totalPenaltyFee)
		if err != nil {
			return nil, fmt.Errorf("switch strategy to %s: %w", next.Name(), err)
		}
		c.strategy = next

		prevName := ""
		if prev != nil {
			prevName = prev.Name()
		}
		c.logger.Info().Str("old", prevName).Str("new", next.Name()).Str("moved", moved.String()).Msg("Strategy switched")
		return []events.Event{events.StrategySwitched(c.name, now, prevName, next.Name(), moved)}, nil
	})
}

// SetWithdrawRate sets the emergency withdrawal penalty in basis points.
func (c *core) SetWithdrawRate(auth access.Auth, rate uint64) error {
	if rate >= accrual.BasisPoints {
		return ErrInvalidWithdrawRate
	}
	return c.exec(access.OpSetWithdrawRate, auth, func(now int64) ([]events.Event, error) {
		old := c.withdrawRate
		c.withdrawRate = rate
		return []events.Event{events.ValueChanged(c.name, events.KindWithdrawRateChanged, now, u64(old), u64(rate))}, nil
	})
}

// WithdrawFees sends every collected penalty to the calling admin.
func (c *core) WithdrawFees(auth access.Auth) (sdkmath.Int, error) {
	var paid sdkmath.Int
	err := c.exec(access.OpWithdrawFees, auth, func(now int64) ([]events.Event, error) {
		if !c.totalPenaltyFee.IsPositive() {
			return nil, ErrNoFees
		}
		fees := c.totalPenaltyFee
		if err := c.stable.Transfer(c.address, auth.Caller, fees); err != nil {
			return nil, err
		}
		c.totalPenaltyFee = sdkmath.ZeroInt()
		paid = fees
		c.logger.Info().Str("to", auth.Caller.Hex()).Str("amount", fees.String()).Msg("Penalty fees withdrawn")
		return []events.Event{events.FeesWithdrawn(c.name, now, auth.Caller, fees)}, nil
	})
	return paid, err
}

// ChangePoolLimit replaces the capacity. It may not drop below the current pool size.
func (c *core) ChangePoolLimit(auth access.Auth, limit sdkmath.Int) error {
	return c.exec(access.OpChangePoolLimit, auth, func(now int64) ([]events.Event, error) {
		if limit.IsNil() || limit.LTE(c.minDeposit) || limit.LT(c.book.PoolSize()) {
			return nil, ErrInvalidPoolLimit
		}
		old := c.maxLimit
		c.maxLimit = limit
		return []events.Event{events.ValueChanged(c.name, events.KindPoolLimitChanged, now, old.String(), limit.String())}, nil
	})
}

func (c *core) SwitchVerification(auth access.Auth, gate eligibility.Gate) error {
	if gate == nil {
		return ErrInvalidVerification
	}
	return c.exec(access.OpSwitchVerification, auth, func(now int64) ([]events.Event, error) {
		old := ""
		if c.gate != nil {
			old = c.gate.Name()
		}
		c.gate = gate
		return []events.Event{events.ValueChanged(c.name, events.KindVerificationSwitched, now, old, gate.Name())}, nil
	})
}

func (c *core) ChangeVerificationStatus(auth access.Auth, enabled bool) error {
	return c.exec(access.OpChangeVerificationStatus, auth, func(now int64) ([]events.Event, error) {
		if enabled && c.gate == nil {
			return nil, ErrInvalidVerification
		}
		old := c.verificationEnabled
		c.verificationEnabled = enabled
		return []events.Event{events.ValueChanged(c.name, events.KindVerificationStatusChanged, now,
			strconv.FormatBool(old), strconv.FormatBool(enabled))}, nil
	})
}

// --- Queries shared by both pool kinds ---

func (c *core) Name() string            { return c.name }
func (c *core) Kind() types.PoolKind    { return c.kind }
func (c *core) Address() common.Address { return c.address }
func (c *core) Admin() common.Address   { return c.admin }

func (c *core) PoolSize() sdkmath.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.book.PoolSize()
}

func (c *core) TotalDeposit(owner common.Address) sdkmath.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.book.TotalDeposit(owner)
}

func (c *core) TotalPenaltyFee() sdkmath.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalPenaltyFee
}

func (c *core) WithdrawRate() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.withdrawRate
}

func (c *core) MinDeposit() sdkmath.Int { return c.minDeposit }

func (c *core) MaxLimit() sdkmath.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxLimit
}

func (c *core) VerificationEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verificationEnabled
}

func (c *core) Owners() []common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.book.Owners()
}

// Strategy returns the active adapter, or nil.
func (c *core) Strategy() strategy.Adapter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.strategy
}

// StrategyBalance is what the active adapter holds for this pool, yield included.
func (c *core) StrategyBalance() (sdkmath.Int, error) {
	s := c.Strategy()
	if s == nil {
		return sdkmath.ZeroInt(), nil
	}
	return s.Balance(c.address)
}

// commonInfo fills the shared part of a snapshot. Caller holds the read lock.
func (c *core) commonInfo() types.PoolInfo {
	info := types.PoolInfo{
		Name:                c.name,
		Kind:                c.kind,
		Address:             c.address.Hex(),
		Admin:               c.admin.Hex(),
		StableToken:         c.stable.Info(),
		BonusToken:          c.bonus.Info(),
		PoolSize:            c.book.PoolSize(),
		MaxLimit:            c.maxLimit,
		MinDeposit:          c.minDeposit,
		WithdrawRate:        c.withdrawRate,
		TotalPenaltyFee:     c.totalPenaltyFee,
		VerificationEnabled: c.verificationEnabled,
	}
	if c.strategy != nil {
		info.Strategy = c.strategy.Name()
	}
	return info
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }
