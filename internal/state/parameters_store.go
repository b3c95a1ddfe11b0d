// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elys-network/lender/internal/types"
	"github.com/rs/zerolog/log"
)

// SavePoolParameters stores a new version of a pool's parameters. With makeActive
// every earlier version of the same pool is deactivated in the same transaction.
func SavePoolParameters(params types.PoolParameters, version int, makeActive bool) (paramsID int64, err error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}

	body, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal parameters for %s: %w", params.Name, err)
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE pool_parameters SET is_active = FALSE WHERE pool_name = $1 AND is_active = TRUE;`
		if _, err = tx.Exec(stmtDeactivate, params.Name); err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters for %s: %w", params.Name, err)
		}
	}

	stmt := `
        INSERT INTO pool_parameters (pool_name, version, is_active, activated_at, created_at, kind, params)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING params_id;`

	now := time.Now()
	err = tx.QueryRow(stmt, params.Name, version, makeActive, now, now, string(params.Kind), body).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert pool parameters: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Int("version", version).
		Str("pool", params.Name).
		Int64("params_id", paramsID).
		Bool("active", makeActive).
		Msg("Saved pool parameters")
	return paramsID, nil
}

// LoadActivePoolParameters loads the active parameters of one pool.
func LoadActivePoolParameters(poolName string) (*types.PoolParameters, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	query := `
        SELECT params
        FROM pool_parameters
        WHERE pool_name = $1 AND is_active = TRUE
        ORDER BY activated_at DESC
        LIMIT 1;`

	var body []byte
	if err := DB.QueryRow(query, poolName).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no active parameters found for pool '%s'", poolName)
		}
		return nil, fmt.Errorf("failed to scan active parameters for pool '%s': %w", poolName, err)
	}

	p := &types.PoolParameters{}
	if err := json.Unmarshal(body, p); err != nil {
		return nil, fmt.Errorf("failed to decode parameters for pool '%s': %w", poolName, err)
	}
	log.Info().Str("pool", poolName).Msg("Loaded active pool parameters")
	return p, nil
}

// LoadAllActivePoolParameters returns the active version of every stored pool, ordered by name.
func LoadAllActivePoolParameters() ([]types.PoolParameters, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	rows, err := DB.Query(`SELECT params FROM pool_parameters WHERE is_active = TRUE ORDER BY pool_name;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active pool parameters: %w", err)
	}
	defer rows.Close()

	var out []types.PoolParameters
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan pool parameters: %w", err)
		}
		var p types.PoolParameters
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("failed to decode pool parameters: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestPoolParametersVersion returns the highest stored version for a pool, 0 if none.
func LatestPoolParametersVersion(poolName string) (int, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}
	var version int
	err := DB.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM pool_parameters WHERE pool_name = $1;`, poolName).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest parameters version for pool '%s': %w", poolName, err)
	}
	return version, nil
}
