// Package pool implements fixed-term and flexible-term lending pools on top of the
// accrual book, a pluggable strategy adapter and the token ledgers.
package pool

import (
	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/eligibility"
	"github.com/elys-network/lender/internal/strategy"
	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
)

// Pool is the surface both pool kinds share: queries plus the common admin setters.
type Pool interface {
	Name() string
	Kind() types.PoolKind
	Address() common.Address
	Admin() common.Address
	Info() types.PoolInfo
	Account(owner common.Address) types.AccountView
	Owners() []common.Address
	PoolSize() sdkmath.Int
	TotalDeposit(owner common.Address) sdkmath.Int
	StableRewards(owner common.Address) sdkmath.Int
	BonusRewards(owner common.Address) sdkmath.Int
	TotalPenaltyFee() sdkmath.Int
	Strategy() strategy.Adapter
	StrategyBalance() (sdkmath.Int, error)

	SwitchStrategy(auth access.Auth, next strategy.Adapter) error
	SetWithdrawRate(auth access.Auth, rate uint64) error
	WithdrawFees(auth access.Auth) (sdkmath.Int, error)
	ChangePoolLimit(auth access.Auth, limit sdkmath.Int) error
	SwitchVerification(auth access.Auth, gate eligibility.Gate) error
	ChangeVerificationStatus(auth access.Auth, enabled bool) error
}

var (
	_ Pool = (*FixedPool)(nil)
	_ Pool = (*FlexPool)(nil)
)
