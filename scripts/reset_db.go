package main

import (
	"github.com/emity-labs/emity/internal/config"
	"github.com/emity-labs/emity/internal/logger"
	"github.com/emity-labs/emity/internal/state"
	"github.com/rs/zerolog/log"
)

// Drops every EMITY table and recreates the schema from scratch. Destroys all
// analyzed pools, positions, alerts, and user configuration.
func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Initialize(config.LogLevel)
	log.Info().Msg("Starting database reset script...")

	dbCfg := state.DBConfig{
		Host: config.DBHost, Port: config.DBPort,
		User: config.DBUser, Password: config.DBPassword,
		DBName: config.DBName, SSLMode: config.DBSSLMode,
	}

	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("dbname", dbCfg.DBName).
		Msg("Connecting to database")

	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database connection")
	}
	defer state.CloseDB()

	log.Info().Msg("Connected to database. Attempting to drop all tables...")

	dropTablesQuery := `
		DROP TABLE IF EXISTS config_history CASCADE;
		DROP TABLE IF EXISTS user_config CASCADE;
		DROP TABLE IF EXISTS alerts CASCADE;
		DROP TABLE IF EXISTS positions CASCADE;
		DROP TABLE IF EXISTS pools CASCADE;
	`

	if _, err := state.DB.Exec(dropTablesQuery); err != nil {
		log.Fatal().Err(err).Msg("Failed to drop tables")
	}
	log.Info().Msg("Successfully dropped all tables")

	log.Info().Msg("Recreating database schema...")
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to recreate database schema")
	}

	if err := state.SaveRiskConfig(config.DefaultRiskConfig); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed default risk config")
	}

	log.Info().Msg("Database reset complete!")
}
