// ./internal/state/snapshot_store.go
package state

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/types"
	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog/log"
)

// SavePoolSnapshot stores one pool's state as observed by a monitor cycle.
func SavePoolSnapshot(snapshot types.PoolSnapshot) (int64, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}

	infoJSON, err := json.Marshal(snapshot.Info)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal info: %w", err)
	}

	query := `
		INSERT INTO pool_snapshots (
			cycle_number, cycle_id, pool_name, snapshot_timestamp,
			pool_size, total_penalty_fee, strategy_balance,
			owners, info
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = DB.QueryRow(
		query,
		snapshot.CycleNumber, snapshot.CycleID, snapshot.PoolName, snapshot.Timestamp,
		numeric(snapshot.PoolSize), numeric(snapshot.TotalPenaltyFee), numeric(snapshot.StrategyBalance),
		pq.Array(snapshot.Owners), infoJSON,
	).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save pool snapshot: %w", err)
	}

	log.Debug().
		Int64("snapshot_id", snapshotID).
		Int("cycle_number", snapshot.CycleNumber).
		Str("pool", snapshot.PoolName).
		Str("pool_size", snapshot.PoolSize.String()).
		Msg("Pool snapshot saved to database")

	return snapshotID, nil
}

func numeric(v sdkmath.Int) string {
	if v.IsNil() {
		return "0"
	}
	return v.String()
}

func parseNumeric(s string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid numeric value %q", s)
	}
	return v, nil
}
