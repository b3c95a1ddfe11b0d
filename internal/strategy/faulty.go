package strategy

import (
	"errors"
	"sync/atomic"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/ethereum/go-ethereum/common"
)

var ErrInjectedFailure = errors.New("injected strategy failure")

// Faulty wraps an adapter and fails the selected operations on demand.
// Used by the rollback tests.
type Faulty struct {
	Adapter
	failDeposit  atomic.Bool
	failWithdraw atomic.Bool
}

func NewFaulty(inner Adapter) *Faulty {
	return &Faulty{Adapter: inner}
}

func (f *Faulty) FailDeposits(on bool)    { f.failDeposit.Store(on) }
func (f *Faulty) FailWithdrawals(on bool) { f.failWithdraw.Store(on) }

func (f *Faulty) Deposit(auth access.Auth, amount sdkmath.Int) error {
	if f.failDeposit.Load() {
		return ErrInjectedFailure
	}
	return f.Adapter.Deposit(auth, amount)
}

func (f *Faulty) Withdraw(auth access.Auth, amount sdkmath.Int) error {
	if f.failWithdraw.Load() {
		return ErrInjectedFailure
	}
	return f.Adapter.Withdraw(auth, amount)
}

func (f *Faulty) Balance(owner common.Address) (sdkmath.Int, error) {
	return f.Adapter.Balance(owner)
}
