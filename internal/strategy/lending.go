package strategy

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/accrual"
	"github.com/elys-network/lender/internal/clock"
	"github.com/elys-network/lender/internal/logger"
	"github.com/elys-network/lender/internal/token"
	"github.com/elys-network/lender/internal/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// LendingConfig holds the configuration for creating a new LendingAdapter
type LendingConfig struct {
	Name      string
	Admin     common.Address
	Token     token.Token
	Clock     clock.Clock
	SupplyApy uint64 // basis points per year
}

// LendingAdapter models a money market: caller balances grow at SupplyApy,
// compounded on every touch. Yield is paid out of whatever the adapter's
// account holds beyond principal, so an unfunded market fails withdrawals.
type LendingAdapter struct {
	mu      sync.Mutex
	name    string
	address common.Address
	token   token.Token
	clock   clock.Clock
	apy     uint64
	policy  *access.Policy
	logger  zerolog.Logger

	balances   map[common.Address]sdkmath.Int
	lastAccrue int64
}

var _ Adapter = (*LendingAdapter)(nil)

func NewLendingAdapter(cfg LendingConfig) (*LendingAdapter, error) {
	if err := validateLendingConfig(cfg); err != nil {
		return nil, fmt.Errorf("lending adapter configuration validation failed: %w", err)
	}
	return &LendingAdapter{
		name:       cfg.Name,
		address:    utils.DeriveAddress("strategy", cfg.Name),
		token:      cfg.Token,
		clock:      cfg.Clock,
		apy:        cfg.SupplyApy,
		policy:     access.NewPolicy(cfg.Admin),
		logger:     logger.GetForComponent("strategy").With().Str("strategy", cfg.Name).Logger(),
		balances:   make(map[common.Address]sdkmath.Int),
		lastAccrue: cfg.Clock.Now(),
	}, nil
}

func validateLendingConfig(cfg LendingConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if cfg.Admin == (common.Address{}) {
		return fmt.Errorf("admin cannot be the zero address")
	}
	if cfg.Token == nil {
		return fmt.Errorf("token cannot be nil")
	}
	if cfg.Clock == nil {
		return fmt.Errorf("clock cannot be nil")
	}
	if cfg.SupplyApy > accrual.AprDenominator {
		return fmt.Errorf("supply apy %d exceeds %d", cfg.SupplyApy, accrual.AprDenominator)
	}
	return nil
}

func (a *LendingAdapter) Name() string { return a.name }

func (a *LendingAdapter) Address() common.Address { return a.address }

// Authorize lets a pool call Deposit and Withdraw.
func (a *LendingAdapter) Authorize(auth access.Auth, pool common.Address) error {
	return a.policy.Grant(auth, access.RoleLenderPool, pool)
}

// Deauthorize removes a pool's access. Its balance stays withdrawable by nobody
// until it is authorized again.
func (a *LendingAdapter) Deauthorize(auth access.Auth, pool common.Address) error {
	return a.policy.Revoke(auth, access.RoleLenderPool, pool)
}

func (a *LendingAdapter) yield(balance sdkmath.Int, elapsed int64) sdkmath.Int {
	return accrual.StableReward(balance, elapsed, a.apy)
}

func (a *LendingAdapter) accrue() {
	now := a.clock.Now()
	elapsed := now - a.lastAccrue
	if elapsed <= 0 {
		return
	}
	for owner, bal := range a.balances {
		a.balances[owner] = bal.Add(a.yield(bal, elapsed))
	}
	a.lastAccrue = now
}

func (a *LendingAdapter) balanceOf(owner common.Address) sdkmath.Int {
	if b, ok := a.balances[owner]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}

func (a *LendingAdapter) Deposit(auth access.Auth, amount sdkmath.Int) error {
	if err := a.policy.Check(auth, access.OpStrategyDeposit); err != nil {
		return err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return ErrInvalidAmount
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.accrue()

	if err := a.token.TransferFrom(a.address, auth.Caller, a.address, amount); err != nil {
		return fmt.Errorf("strategy %s deposit: %w", a.name, err)
	}
	a.balances[auth.Caller] = a.balanceOf(auth.Caller).Add(amount)

	a.logger.Debug().Str("pool", auth.Caller.Hex()).Str("amount", amount.String()).Msg("Deposited into strategy")
	return nil
}

func (a *LendingAdapter) Withdraw(auth access.Auth, amount sdkmath.Int) error {
	if err := a.policy.Check(auth, access.OpStrategyWithdraw); err != nil {
		return err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return ErrInvalidAmount
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.accrue()

	bal := a.balanceOf(auth.Caller)
	if bal.LT(amount) {
		return fmt.Errorf("strategy %s: %w (%s < %s)", a.name, ErrInsufficientBalance, bal, amount)
	}
	if err := a.token.Transfer(a.address, auth.Caller, amount); err != nil {
		return fmt.Errorf("strategy %s withdraw: %w", a.name, err)
	}
	remaining := bal.Sub(amount)
	if remaining.IsZero() {
		delete(a.balances, auth.Caller)
	} else {
		a.balances[auth.Caller] = remaining
	}

	a.logger.Debug().Str("pool", auth.Caller.Hex()).Str("amount", amount.String()).Msg("Withdrew from strategy")
	return nil
}

// Balance returns owner's principal plus yield accrued up to now.
func (a *LendingAdapter) Balance(owner common.Address) (sdkmath.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	bal := a.balanceOf(owner)
	if elapsed := a.clock.Now() - a.lastAccrue; elapsed > 0 {
		bal = bal.Add(a.yield(bal, elapsed))
	}
	return bal, nil
}
