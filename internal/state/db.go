// ./internal/state/db.go
package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS pools (
			address VARCHAR(255) PRIMARY KEY,
			dex VARCHAR(100),
			chain VARCHAR(100),
			token0_symbol VARCHAR(50),
			token1_symbol VARCHAR(50),
			fee_tier DECIMAL(10, 4),
			tvl_usd DECIMAL(20, 2),
			volume_24h DECIMAL(20, 2),
			fees_24h DECIMAL(20, 2),
			current_price DECIMAL(20, 8),
			price_change_24h DECIMAL(10, 4),
			volatility DECIMAL(10, 4),
			il_7d DECIMAL(10, 2),
			fee_apr DECIMAL(10, 2),
			apr_7d DECIMAL(10, 2),
			score INTEGER NOT NULL DEFAULT 0,
			recommendation TEXT,
			explanation TEXT,
			ranges_data JSONB,
			simulations_data JSONB,
			last_analyzed TIMESTAMPTZ,
			last_update TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_pools_score ON pools(score DESC);
		CREATE INDEX IF NOT EXISTS idx_pools_tvl ON pools(tvl_usd DESC);

		CREATE TABLE IF NOT EXISTS positions (
			id SERIAL PRIMARY KEY,
			pool_address VARCHAR(255) NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'active',
			capital_usd DECIMAL(20, 2) NOT NULL,
			range_lower DECIMAL(20, 8),
			range_upper DECIMAL(20, 8),
			time_in_range DECIMAL(5, 2),
			pnl_usd DECIMAL(20, 2) NOT NULL DEFAULT 0,
			fees_earned_usd DECIMAL(20, 2) NOT NULL DEFAULT 0,
			gas_spent_usd DECIMAL(10, 2) NOT NULL DEFAULT 0,
			entry_date TIMESTAMPTZ,
			exit_date TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);

		CREATE TABLE IF NOT EXISTS alerts (
			id SERIAL PRIMARY KEY,
			type VARCHAR(50) NOT NULL,
			pool_address VARCHAR(255),
			title TEXT,
			message TEXT,
			data JSONB,
			severity VARCHAR(20) NOT NULL DEFAULT 'info',
			sent_telegram BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created_at DESC);

		CREATE TABLE IF NOT EXISTS user_config (
			config_key VARCHAR(100) PRIMARY KEY,
			config_value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS config_history (
			id SERIAL PRIMARY KEY,
			field VARCHAR(100) NOT NULL,
			old_value TEXT,
			new_value TEXT,
			changed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_config_history_changed ON config_history(changed_at DESC);
	`

	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to apply database schema: %w", err)
	}

	log.Info().Msg("Database schema verified/applied successfully.")
	return nil
}

// TestDBConnection performs a simple query to verify the connection is alive.
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	var one int
	if err := DB.QueryRow("SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database connectivity check failed: %w", err)
	}
	return nil
}
