package pool

import "errors"

// Validation errors
var (
	ErrInvalidAdmin          = errors.New("invalid admin address")
	ErrInvalidStableToken    = errors.New("invalid stable token address")
	ErrInvalidBonusToken     = errors.New("invalid bonus token address")
	ErrInvalidMinDeposit     = errors.New("invalid min. deposit")
	ErrInvalidStartDate      = errors.New("invalid pool start date")
	ErrInvalidDepositEndDate = errors.New("invalid deposit end date")
	ErrInvalidDuration       = errors.New("invalid pool duration")
	ErrInvalidPoolLimit      = errors.New("invalid pool max. limit")
	ErrInvalidApr            = errors.New("invalid apr")
	ErrInvalidBonusRate      = errors.New("invalid bonus rate")
	ErrInvalidWithdrawRate   = errors.New("invalid withdraw rate")
	ErrInvalidCurve          = errors.New("invalid curve address")
	ErrInvalidStrategy       = errors.New("invalid strategy address")
	ErrInvalidVerification   = errors.New("invalid verification address")
	ErrInvalidDurationLimit  = errors.New("invalid duration limit")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidConfig         = errors.New("invalid pool configuration")
)

// Capacity and eligibility errors
var (
	ErrNoStrategy      = errors.New("there is no strategy")
	ErrNotVerified     = errors.New("you are not verified")
	ErrBelowMinDeposit = errors.New("amount is less than min. deposit")
	ErrPoolLimit       = errors.New("pool has reached its limit")
)

// Lifecycle errors
var (
	ErrDepositWindowClosed     = errors.New("deposit end date has passed")
	ErrNoDeposit               = errors.New("you have not deposited anything")
	ErrNotStarted              = errors.New("pool has not started yet")
	ErrNothingToWithdraw       = errors.New("you have nothing to withdraw")
	ErrNotEnded                = errors.New("pool has not ended yet")
	ErrCannotEmergencyWithdraw = errors.New("you can not emergency withdraw")
	ErrNoFees                  = errors.New("nothing to withdraw")
	ErrPositionNotFound        = errors.New("position does not exist")
	ErrNotMatured              = errors.New("locking period has not ended yet")
	ErrNotConfigured           = errors.New("locked deposits are not configured")
	ErrDurationBelowMin        = errors.New("locking duration is < min. limit")
	ErrDurationAboveMax        = errors.New("locking duration is > max. limit")
)

// Dependency errors
var (
	ErrInsufficientRewardFunds = errors.New("pool holds too little to pay rewards")
)
