// ./internal/state/alert_store.go
package state

import (
	"database/sql"
	"fmt"

	"github.com/emity-labs/emity/internal/types"
)

// SaveAlert persists one alert and returns its ID.
func SaveAlert(alert types.Alert) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	var data interface{}
	if alert.Data != "" {
		data = alert.Data
	}

	var id int64
	err := DB.QueryRow(`
		INSERT INTO alerts (type, pool_address, title, message, data, severity, sent_telegram)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id;
	`, string(alert.Type), nullableString(alert.PoolAddress), alert.Title, alert.Message, data, alert.Severity, alert.SentTG).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save alert: %w", err)
	}

	return id, nil
}

// MarkAlertSent flags an alert as delivered via Telegram.
func MarkAlertSent(id int64) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, err := DB.Exec("UPDATE alerts SET sent_telegram = TRUE WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to mark alert %d sent: %w", id, err)
	}
	return nil
}

// GetRecentAlerts returns the newest alerts first.
func GetRecentAlerts(limit int) ([]types.Alert, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := DB.Query(`
		SELECT id, type, pool_address, title, message, data, severity, sent_telegram, created_at
		FROM alerts ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		var (
			alert       types.Alert
			alertType   string
			poolAddress sql.NullString
			title       sql.NullString
			message     sql.NullString
			data        sql.NullString
		)
		if err := rows.Scan(&alert.ID, &alertType, &poolAddress, &title, &message, &data, &alert.Severity, &alert.SentTG, &alert.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alert.Type = types.AlertType(alertType)
		alert.PoolAddress = poolAddress.String
		alert.Title = title.String
		alert.Message = message.String
		alert.Data = data.String
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

// CountAlertsToday returns how many alerts were created in the last 24 hours.
func CountAlertsToday() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	var count int
	err := DB.QueryRow("SELECT COUNT(*) FROM alerts WHERE created_at >= NOW() - INTERVAL '24 hours'").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return count, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
