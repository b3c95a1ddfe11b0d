/*

This file defines the pluggable yield source pools deploy idle principal into.

*/

package strategy

import (
	"errors"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/ethereum/go-ethereum/common"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInsufficientBalance = errors.New("withdraw exceeds strategy balance")
	ErrInvalidAmount       = errors.New("invalid strategy amount")
	ErrNilAdapter          = errors.New("strategy adapter is nil")
	ErrSameAdapter         = errors.New("strategy adapter is already active")
)

// Adapter is a yield source. Deposit pulls amount from the caller through a token
// allowance the caller granted to Address(); Withdraw pushes amount back to the
// caller and fails outright when it exceeds Balance. Balance includes yield.
// A single adapter keeps balances per caller and may serve several pools.
type Adapter interface {
	Name() string
	Address() common.Address
	Deposit(auth access.Auth, amount sdkmath.Int) error
	Withdraw(auth access.Auth, amount sdkmath.Int) error
	Balance(owner common.Address) (sdkmath.Int, error)
}
