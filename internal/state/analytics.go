package state

import (
	"encoding/json"
	"fmt"

	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/types"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// EventCount is the number of events of one kind a pool has emitted.
type EventCount struct {
	Kind  events.Kind `json:"kind"`
	Count int         `json:"count"`
}

// GetRecentEvents returns a pool's most recent events, newest first.
func GetRecentEvents(poolName string, limit int) ([]events.Event, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := DB.Query(`
		SELECT event_id, pool_name, kind, event_timestamp, attributes
		FROM pool_events
		WHERE pool_name = $1
		ORDER BY event_timestamp DESC, recorded_at DESC
		LIMIT $2`, poolName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	out := []events.Event{}
	for rows.Next() {
		var ev events.Event
		var kind string
		var attrs []byte
		if err := rows.Scan(&ev.ID, &ev.Pool, &kind, &ev.Timestamp, &attrs); err != nil {
			log.Error().Err(err).Msg("Failed to scan event row")
			continue
		}
		ev.Kind = events.Kind(kind)
		if err := json.Unmarshal(attrs, &ev.Attributes); err != nil {
			log.Error().Err(err).Str("id", ev.ID).Msg("Failed to decode event attributes")
			continue
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// GetEventCounts groups a pool's events by kind.
func GetEventCounts(poolName string) ([]EventCount, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	rows, err := DB.Query(`
		SELECT kind, COUNT(*)
		FROM pool_events
		WHERE pool_name = $1
		GROUP BY kind
		ORDER BY kind`, poolName)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts: %w", err)
	}
	defer rows.Close()

	out := []EventCount{}
	for rows.Next() {
		var c EventCount
		var kind string
		if err := rows.Scan(&kind, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		c.Kind = events.Kind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetRecentSnapshots returns a pool's most recent monitor snapshots, newest first.
func GetRecentSnapshots(poolName string, limit int) ([]types.PoolSnapshot, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	rows, err := DB.Query(`
		SELECT snapshot_id, cycle_number, cycle_id, pool_name, snapshot_timestamp,
			pool_size, total_penalty_fee, strategy_balance, owners, info
		FROM pool_snapshots
		WHERE pool_name = $1
		ORDER BY snapshot_timestamp DESC
		LIMIT $2`, poolName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent snapshots: %w", err)
	}
	defer rows.Close()

	out := []types.PoolSnapshot{}
	for rows.Next() {
		var s types.PoolSnapshot
		var poolSize, fees, strategyBalance string
		var info []byte
		err := rows.Scan(&s.SnapshotID, &s.CycleNumber, &s.CycleID, &s.PoolName, &s.Timestamp,
			&poolSize, &fees, &strategyBalance, pq.Array(&s.Owners), &info)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan snapshot row")
			continue
		}
		if s.PoolSize, err = parseNumeric(poolSize); err != nil {
			return nil, err
		}
		if s.TotalPenaltyFee, err = parseNumeric(fees); err != nil {
			return nil, err
		}
		if s.StrategyBalance, err = parseNumeric(strategyBalance); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(info, &s.Info); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot info: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
