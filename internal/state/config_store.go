// ./internal/state/config_store.go
package state

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/emity-labs/emity/internal/config"
	"github.com/emity-labs/emity/internal/types"
	"github.com/rs/zerolog/log"
)

// GetConfigValue loads one configuration key. Returns ("", nil) when the key
// has never been set.
func GetConfigValue(key string) (string, error) {
	if DB == nil {
		return "", fmt.Errorf("database not initialized")
	}

	var value string
	err := DB.QueryRow("SELECT config_value FROM user_config WHERE config_key = $1", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load config key %s: %w", key, err)
	}
	return value, nil
}

// SetConfigValue upserts one configuration key and appends an audit-trail
// entry recording the change. The audit write is best-effort: a history
// failure never rolls back the config update.
func SetConfigValue(key, value string) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	oldValue, err := GetConfigValue(key)
	if err != nil {
		return err
	}

	_, err = DB.Exec(`
		INSERT INTO user_config (config_key, config_value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (config_key) DO UPDATE SET
			config_value = EXCLUDED.config_value,
			updated_at = EXCLUDED.updated_at;
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save config key %s: %w", key, err)
	}

	if oldValue != value {
		if _, err := DB.Exec(
			"INSERT INTO config_history (field, old_value, new_value) VALUES ($1, $2, $3)",
			key, oldValue, value,
		); err != nil {
			log.Error().Err(err).Str("field", key).Msg("Failed to append config audit entry")
		}
	}

	return nil
}

// GetRiskConfig assembles the user risk policy from persisted keys, filling
// unset or unparsable fields from the documented defaults.
func GetRiskConfig() (types.RiskConfig, error) {
	cfg := config.DefaultRiskConfig

	if DB == nil {
		return cfg, fmt.Errorf("database not initialized")
	}

	rows, err := DB.Query("SELECT config_key, config_value FROM user_config")
	if err != nil {
		return cfg, fmt.Errorf("failed to load user config: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return cfg, fmt.Errorf("failed to scan user config row: %w", err)
		}
		applyConfigKey(&cfg, key, value)
	}
	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("failed to iterate user config: %w", err)
	}

	return cfg, nil
}

// SaveRiskConfig persists every field of the risk policy, producing audit
// entries for the ones that changed.
func SaveRiskConfig(cfg types.RiskConfig) error {
	fields := map[string]string{
		"capital_total":     strconv.FormatFloat(cfg.CapitalTotal, 'f', -1, 64),
		"perfil_risco":      cfg.PerfilRisco,
		"max_positions":     strconv.Itoa(cfg.MaxPositions),
		"stop_loss":         strconv.FormatFloat(cfg.StopLoss, 'f', -1, 64),
		"max_position_size": strconv.FormatFloat(cfg.MaxPositionSize, 'f', -1, 64),
		"min_score":         strconv.Itoa(cfg.MinScore),
		"gas_multiplier":    strconv.FormatFloat(cfg.GasMultiplier, 'f', -1, 64),
	}

	for key, value := range fields {
		if err := SetConfigValue(key, value); err != nil {
			return err
		}
	}
	return nil
}

// GetConfigHistory returns the most recent audit entries, newest first.
func GetConfigHistory(limit int) ([]types.ConfigChange, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := DB.Query(
		"SELECT field, old_value, new_value, changed_at FROM config_history ORDER BY changed_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query config history: %w", err)
	}
	defer rows.Close()

	var changes []types.ConfigChange
	for rows.Next() {
		var change types.ConfigChange
		var oldValue, newValue sql.NullString
		if err := rows.Scan(&change.Field, &oldValue, &newValue, &change.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan config history row: %w", err)
		}
		change.OldValue = oldValue.String
		change.NewValue = newValue.String
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate config history: %w", err)
	}

	return changes, nil
}

// applyConfigKey parses one stored key into the config struct. Unknown keys
// and unparsable values are ignored, leaving the default in place.
func applyConfigKey(cfg *types.RiskConfig, key, value string) {
	switch key {
	case "capital_total":
		if v, err := strconv.ParseFloat(value, 64); err == nil && v > 0 {
			cfg.CapitalTotal = v
		}
	case "perfil_risco":
		if value != "" {
			cfg.PerfilRisco = value
		}
	case "max_positions":
		if v, err := strconv.Atoi(value); err == nil && v >= 1 {
			cfg.MaxPositions = v
		}
	case "stop_loss":
		if v, err := strconv.ParseFloat(value, 64); err == nil && v > 0 {
			cfg.StopLoss = v
		}
	case "max_position_size":
		if v, err := strconv.ParseFloat(value, 64); err == nil && v > 0 {
			cfg.MaxPositionSize = v
		}
	case "min_score":
		if v, err := strconv.Atoi(value); err == nil && v >= 0 && v <= 100 {
			cfg.MinScore = v
		}
	case "gas_multiplier":
		if v, err := strconv.ParseFloat(value, 64); err == nil && v >= 1 {
			cfg.GasMultiplier = v
		}
	}
}
