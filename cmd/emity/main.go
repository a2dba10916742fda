package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/emity-labs/emity/internal/config"
	"github.com/emity-labs/emity/internal/logger"
	"github.com/emity-labs/emity/internal/notifier"
	"github.com/emity-labs/emity/internal/scanner"
	"github.com/emity-labs/emity/internal/state"
	"github.com/emity-labs/emity/internal/web"
	"github.com/emity-labs/emity/internal/worker"

	"github.com/rs/zerolog/log"
)

// main is the entry point for the EMITY pool intelligence service.
func main() {
	// --- 1. Initialization Phase ---
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(config.LogLevel)
	log.Info().Msg("EMITY - Liquidity Pool Intelligence starting...")

	// Initialize database connection
	dbCfg := state.DBConfig{
		Host: config.DBHost, Port: config.DBPort,
		User: config.DBUser, Password: config.DBPassword,
		DBName: config.DBName, SSLMode: config.DBSSLMode,
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Persist the defaults on first boot so the config API has rows to edit
	if existing, err := state.GetConfigValue("capital_total"); err == nil && existing == "" {
		if err := state.SaveRiskConfig(config.DefaultRiskConfig); err != nil {
			log.Warn().Err(err).Msg("Failed to seed default risk config")
		}
	}

	// --- 2. Collaborators ---
	telegram, err := notifier.NewTelegram(config.TelegramToken, config.TelegramChatID, config.DashboardURL, config.TelegramEnabled)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize telegram notifier")
	}

	poolScanner := scanner.New(config.PairsAPIURL, config.ScannerTimeout)

	// --- 3. Web API ---
	webServer := web.NewWebServer(config.ListenAddr)
	go func() {
		log.Info().Str("addr", config.ListenAddr).Msg("Starting web API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed")
		}
	}()

	// --- 4. Worker Loop ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	worker.New(poolScanner, telegram).RunLoop(ctx)

	log.Info().Msg("EMITY stopped.")
}
