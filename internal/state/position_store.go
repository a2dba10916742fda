// ./internal/state/position_store.go
package state

import (
	"database/sql"
	"fmt"

	"github.com/emity-labs/emity/internal/types"
)

// SavePosition inserts a new position and returns its ID.
func SavePosition(position types.Position) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	status := position.Status
	if status == "" {
		status = "active"
	}

	var id int64
	err := DB.QueryRow(`
		INSERT INTO positions (pool_address, status, capital_usd, range_lower, range_upper,
			time_in_range, pnl_usd, fees_earned_usd, gas_spent_usd, entry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id;
	`, position.PoolAddress, status, position.CapitalUSD, position.RangeLower, position.RangeUpper,
		position.TimeInRange, position.PnlUSD, position.FeesEarned, position.GasSpentUSD,
		nullableTime(position.EntryDate)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save position: %w", err)
	}

	return id, nil
}

// GetActivePositions returns all open positions.
func GetActivePositions() ([]types.Position, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.Query(`
		SELECT id, pool_address, status, capital_usd, range_lower, range_upper,
			time_in_range, pnl_usd, fees_earned_usd, gas_spent_usd, entry_date, created_at
		FROM positions WHERE status = 'active' ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active positions: %w", err)
	}
	defer rows.Close()

	var positions []types.Position
	for rows.Next() {
		var position types.Position
		var entryDate sql.NullTime
		if err := rows.Scan(&position.ID, &position.PoolAddress, &position.Status,
			&position.CapitalUSD, &position.RangeLower, &position.RangeUpper,
			&position.TimeInRange, &position.PnlUSD, &position.FeesEarned,
			&position.GasSpentUSD, &entryDate, &position.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position row: %w", err)
		}
		if entryDate.Valid {
			position.EntryDate = entryDate.Time
		}
		positions = append(positions, position)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}

	return positions, nil
}

// UpdatePositionPnl refreshes the mark-to-market fields of one position.
func UpdatePositionPnl(id int64, pnlUSD, timeInRange float64) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, err := DB.Exec(
		"UPDATE positions SET pnl_usd = $1, time_in_range = $2 WHERE id = $3",
		pnlUSD, timeInRange, id,
	); err != nil {
		return fmt.Errorf("failed to update position %d: %w", id, err)
	}
	return nil
}

// ClosePosition marks a position closed with its final P&L.
func ClosePosition(id int64, pnlUSD float64) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, err := DB.Exec(
		"UPDATE positions SET status = 'closed', pnl_usd = $1, exit_date = NOW() WHERE id = $2",
		pnlUSD, id,
	); err != nil {
		return fmt.Errorf("failed to close position %d: %w", id, err)
	}
	return nil
}

// CountActivePositions returns the number of open positions.
func CountActivePositions() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	var count int
	if err := DB.QueryRow("SELECT COUNT(*) FROM positions WHERE status = 'active'").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active positions: %w", err)
	}
	return count, nil
}
