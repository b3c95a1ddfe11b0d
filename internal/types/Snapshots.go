/*

This file contains the snapshot the lender monitor records for every pool on each cycle.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// PoolSnapshot is the state of one pool as observed by a monitor cycle.
type PoolSnapshot struct {
	SnapshotID      int64       `json:"snapshot_id,omitempty"`
	CycleNumber     int         `json:"cycle_number"`
	CycleID         string      `json:"cycle_id"`
	PoolName        string      `json:"pool_name"`
	Timestamp       time.Time   `json:"timestamp"`
	PoolSize        sdkmath.Int `json:"pool_size"`
	TotalPenaltyFee sdkmath.Int `json:"total_penalty_fee"`
	StrategyBalance sdkmath.Int `json:"strategy_balance"`
	Owners          []string    `json:"owners"`
	Info            PoolInfo    `json:"info"`
}
