/*

This file manages the persistent cycle counter of the lender monitor.
The counter is stored in the database so cycle numbers continue across restarts.

*/

package state

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// GetCurrentCycleNumber retrieves the last completed monitor cycle.
func GetCurrentCycleNumber() (int, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}

	var currentCycle int
	err := DB.QueryRow(`SELECT current_cycle FROM cycle_counter WHERE id = 1;`).Scan(&currentCycle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().Msg("No cycle counter row found, starting from 0")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current cycle number: %w", err)
	}
	return currentCycle, nil
}

// IncrementCycleNumber increments the cycle counter and returns the new value
func IncrementCycleNumber() (int, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}

	updateQuery := `
		UPDATE cycle_counter
		SET current_cycle = current_cycle + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_cycle;`

	var newCycle int
	if err := DB.QueryRow(updateQuery).Scan(&newCycle); err != nil {
		return 0, fmt.Errorf("failed to increment cycle number: %w", err)
	}

	log.Debug().Int("newCycle", newCycle).Msg("Incremented cycle counter")
	return newCycle, nil
}

// ResetCycleNumber sets the counter to a specific value (maintenance only).
func ResetCycleNumber(cycleNumber int) error {
	if DB == nil {
		return ErrNotInitialized
	}
	if cycleNumber < 0 {
		return fmt.Errorf("cycle number cannot be negative: %d", cycleNumber)
	}

	result, err := DB.Exec(`UPDATE cycle_counter SET current_cycle = $1, updated_at = CURRENT_TIMESTAMP WHERE id = 1;`, cycleNumber)
	if err != nil {
		return fmt.Errorf("failed to reset cycle number to %d: %w", cycleNumber, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows updated when resetting cycle number")
	}

	log.Warn().Int("cycleNumber", cycleNumber).Msg("Reset cycle counter")
	return nil
}
