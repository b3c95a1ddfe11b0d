/*

This file contains the types describing a lending pool as seen from the outside:
its kind, its lifecycle phase and a read-only snapshot of its configuration.

*/

package types

import (
	"cosmossdk.io/math"
)

type PoolKind string

const (
	PoolKindFixed    PoolKind = "fixed"
	PoolKindFlexible PoolKind = "flexible"
)

// PoolPhase is the lifecycle state of a fixed-term pool.
type PoolPhase int

const (
	PhaseNotStarted PoolPhase = iota
	PhaseDepositWindowOpen
	PhaseLocked
	PhaseMatured
)

func (p PoolPhase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseDepositWindowOpen:
		return "deposit_window_open"
	case PhaseLocked:
		return "locked"
	case PhaseMatured:
		return "matured"
	default:
		return "unknown"
	}
}

// PoolInfo is a point-in-time snapshot of a pool's configuration and totals.
type PoolInfo struct {
	Name                string   `json:"name"`
	Kind                PoolKind `json:"kind"`
	Address             string   `json:"address"`
	Admin               string   `json:"admin"`
	StableToken         Token    `json:"stable_token"`
	BonusToken          Token    `json:"bonus_token"`
	PoolSize            math.Int `json:"pool_size"` // Sum of active principal, never includes direct transfers
	MaxLimit            math.Int `json:"max_limit"`
	MinDeposit          math.Int `json:"min_deposit"`
	WithdrawRate        uint64   `json:"withdraw_rate"` // Emergency penalty in basis points
	TotalPenaltyFee     math.Int `json:"total_penalty_fee"`
	Strategy            string   `json:"strategy,omitempty"`
	VerificationEnabled bool     `json:"verification_enabled"`

	// Fixed-term only
	Phase          string `json:"phase,omitempty"`
	StartDate      int64  `json:"start_date,omitempty"`
	DepositEndDate int64  `json:"deposit_end_date,omitempty"`
	LockDuration   int64  `json:"lock_duration,omitempty"` // seconds
	Apr            uint64 `json:"apr,omitempty"`
	BonusRate      uint64 `json:"bonus_rate,omitempty"`

	// Flexible-term only
	BaseApr     uint64 `json:"base_apr,omitempty"`
	BaseRate    uint64 `json:"base_rate,omitempty"`
	MinLockDays uint64 `json:"min_lock_days,omitempty"`
	MaxLockDays uint64 `json:"max_lock_days,omitempty"`
}
