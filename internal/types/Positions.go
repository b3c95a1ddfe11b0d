/*

This file contains the read models for lender positions and the payout produced by a withdrawal.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
)

type PositionKind string

const (
	PositionFixed  PositionKind = "fixed"
	PositionBase   PositionKind = "base"
	PositionLocked PositionKind = "locked"
)

// PositionView is a single position with its rewards evaluated at a given time.
type PositionView struct {
	ID            uint64       `json:"id"`
	Kind          PositionKind `json:"kind"`
	Principal     sdkmath.Int  `json:"principal"`
	StartTime     int64        `json:"start_time"`
	EndTime       int64        `json:"end_time,omitempty"` // Zero for base positions
	Apr           uint64       `json:"apr"`
	BonusRate     uint64       `json:"bonus_rate"`
	PendingStable sdkmath.Int  `json:"pending_stable"`
	PendingBonus  sdkmath.Int  `json:"pending_bonus"`
	Matured       bool         `json:"matured"`
}

// AccountView aggregates every active position of one owner in one pool.
type AccountView struct {
	Owner         string         `json:"owner"`
	TotalDeposit  sdkmath.Int    `json:"total_deposit"`
	StableRewards sdkmath.Int    `json:"stable_rewards"`
	BonusRewards  sdkmath.Int    `json:"bonus_rewards"`
	Positions     []PositionView `json:"positions"`
}

// Payout is what an owner received from a withdrawal or claim.
type Payout struct {
	Principal    sdktypes.Coin  `json:"principal"`
	StableReward sdktypes.Coin  `json:"stable_reward"`
	BonusReward  sdktypes.Coin  `json:"bonus_reward"`
	Penalty      sdktypes.Coin  `json:"penalty"`
	Forfeited    sdktypes.Coins `json:"forfeited,omitempty"` // Rewards given up by an emergency withdrawal
}

// Coins returns everything transferred to the owner, zero entries removed.
func (p Payout) Coins() sdktypes.Coins {
	stable := p.Principal.Add(p.StableReward)
	return sdktypes.NewCoins(stable, p.BonusReward)
}
