package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// Mode is "live" for a persistent deployment or "sim" for an in-memory run.
	Mode string
	// LogLevel is passed to logger.Initialize.
	LogLevel string
	// WebPort is the port the HTTP API listens on.
	WebPort string

	// AdminAddress owns every pool built from definitions that do not name an admin.
	AdminAddress common.Address
	// PoolsFile is an optional pool definitions file read through viper.
	PoolsFile string
	// MonitorInterval is the period between monitor cycles.
	MonitorInterval time.Duration

	// Database connection settings. DBHost empty disables persistence.
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
)

const (
	ModeLive = "live"
	ModeSim  = "sim"
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// Only LENDER_ADMIN is required; everything else has a default.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	admin, err := getEnv("LENDER_ADMIN")
	if err != nil {
		return err
	}
	if !common.IsHexAddress(admin) {
		return errors.New("environment variable LENDER_ADMIN must be a hex address, got: " + admin)
	}
	AdminAddress = common.HexToAddress(admin)

	Mode = getEnvOrDefault("LENDER_MODE", ModeSim)
	if Mode != ModeLive && Mode != ModeSim {
		return errors.New("environment variable LENDER_MODE must be 'live' or 'sim', got: " + Mode)
	}
	LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	WebPort = getEnvOrDefault("WEB_PORT", "8080")
	PoolsFile = getEnvOrDefault("LENDER_POOLS_FILE", "")

	MonitorInterval, err = getEnvAsDuration("MONITOR_INTERVAL", 10*time.Minute)
	if err != nil {
		return err
	}

	DBHost = getEnvOrDefault("DB_HOST", "")
	DBPort, err = getEnvAsInt("DB_PORT", 5432)
	if err != nil {
		return err
	}
	DBUser = getEnvOrDefault("DB_USER", "")
	DBPassword = getEnvOrDefault("DB_PASSWORD", "")
	DBName = getEnvOrDefault("DB_NAME", "lender")
	DBSSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	if Mode == ModeLive && DBHost == "" {
		return errors.New("environment variable DB_HOST is required in live mode")
	}

	log.Debug().
		Str("Mode", Mode).
		Str("Admin", AdminAddress.Hex()).
		Str("PoolsFile", PoolsFile).
		Dur("MonitorInterval", MonitorInterval).
		Msg("Configuration loaded successfully.")

	return nil
}

// PersistenceEnabled reports whether a database was configured.
func PersistenceEnabled() bool { return DBHost != "" }

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

func getEnvOrDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an int, or fallback when unset.
func getEnvAsInt(key string, fallback int) (int, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsDuration accepts Go duration syntax such as "30s" or "10m".
func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil || value <= 0 {
		return 0, errors.New("environment variable " + key + " must be a positive duration, got: " + valueStr)
	}
	return value, nil
}
