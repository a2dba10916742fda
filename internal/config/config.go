package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// LogLevel controls global log verbosity ("debug", "info", "warn", "error").
	LogLevel string

	// ListenAddr is the address the web API binds to, e.g. ":8000".
	ListenAddr string

	// PairsAPIURL is the base URL of the pool snapshot provider.
	PairsAPIURL string
	// ScannerTimeout bounds each provider HTTP call.
	ScannerTimeout time.Duration

	// ScanInterval is the delay between automated scan cycles.
	ScanInterval time.Duration
	// AlertInterval is the delay between opportunity/risk checks.
	AlertInterval time.Duration
	// MarketCheckInterval is the delay between market condition checks.
	MarketCheckInterval time.Duration

	// TelegramEnabled toggles alert delivery.
	TelegramEnabled bool
	// TelegramToken is the bot API token.
	TelegramToken string
	// TelegramChatID is the destination chat.
	TelegramChatID string
	// DashboardURL is linked at the bottom of every alert.
	DashboardURL string

	// Database connection parameters.
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
)

// LoadConfig loads configuration from the environment, reading a .env file
// first if one is present. Database credentials are required; everything else
// falls back to documented defaults.
func LoadConfig() error {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on process environment")
	}

	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	LogLevel = getEnvOr("LOG_LEVEL", "info")
	ListenAddr = getEnvOr("LISTEN_ADDR", ":8000")

	PairsAPIURL = getEnvOr("PAIRS_API_URL", "https://api.dexscreener.com/latest/dex")
	ScannerTimeout, err = getEnvAsDurationOr("SCANNER_TIMEOUT_SECONDS", 30*time.Second)
	if err != nil {
		return err
	}

	ScanInterval, err = getEnvAsDurationOr("SCAN_INTERVAL", 300*time.Second)
	if err != nil {
		return err
	}
	AlertInterval, err = getEnvAsDurationOr("ALERT_INTERVAL", 600*time.Second)
	if err != nil {
		return err
	}
	MarketCheckInterval, err = getEnvAsDurationOr("MARKET_CHECK_INTERVAL", 1800*time.Second)
	if err != nil {
		return err
	}

	TelegramEnabled = getEnvOr("TELEGRAM_ENABLED", "true") == "true"
	TelegramToken = getEnvOr("TELEGRAM_BOT_TOKEN", "")
	TelegramChatID = getEnvOr("TELEGRAM_CHAT_ID", "")
	DashboardURL = getEnvOr("DASHBOARD_URL", "https://emity-system.onrender.com")
	if TelegramEnabled && TelegramToken == "" {
		log.Warn().Msg("TELEGRAM_ENABLED is set but TELEGRAM_BOT_TOKEN is empty, alerts will be logged only")
		TelegramEnabled = false
	}

	DBHost, err = getEnv("DB_HOST")
	if err != nil {
		return err
	}
	DBPort, err = getEnvAsIntOr("DB_PORT", 5432)
	if err != nil {
		return err
	}
	DBUser, err = getEnv("DB_USER")
	if err != nil {
		return err
	}
	DBPassword, err = getEnv("DB_PASSWORD")
	if err != nil {
		return err
	}
	DBName, err = getEnv("DB_NAME")
	if err != nil {
		return err
	}
	DBSSLMode = getEnvOr("DB_SSLMODE", "disable")

	log.Debug().
		Str("ListenAddr", ListenAddr).
		Str("PairsAPIURL", PairsAPIURL).
		Dur("ScanInterval", ScanInterval).
		Bool("TelegramEnabled", TelegramEnabled).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOr retrieves a string environment variable with a fallback default.
func getEnvOr(key, def string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return def
}

// getEnvAsIntOr retrieves an integer environment variable with a fallback default.
func getEnvAsIntOr(key string, def int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be an integer, got: " + value)
	}
	return parsed, nil
}

// getEnvAsDurationOr retrieves a whole-seconds environment variable with a
// fallback default.
func getEnvAsDurationOr(key string, def time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return def, nil
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0, errors.New("environment variable " + key + " must be a positive number of seconds, got: " + value)
	}
	return time.Duration(seconds) * time.Second, nil
}
