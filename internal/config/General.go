package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// OwnerID identifies the balance owner on the settlement service.
	OwnerID string

	// RiskTolerance caps per-trade notional and gas. One of LOW, MEDIUM, HIGH, VERY_HIGH.
	RiskTolerance string

	// SelectedRoute pins the agent to a single route, or "AUTO" for discovery.
	SelectedRoute string

	// MinProfitPercent is the minimum net margin (percent) a trade must clear.
	MinProfitPercent float64

	// InvestedAmountUSD, when > 0, switches the agent to fixed-amount mode and
	// every trade uses exactly this notional. Zero means automatic scaling.
	InvestedAmountUSD float64

	// LogLevel controls zerolog verbosity.
	LogLevel string
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	OwnerID, err = getEnv("OWNER_ID")
	if err != nil {
		return err
	}

	RiskTolerance = strings.ToUpper(getEnvOrDefault("RISK_TOLERANCE", "MEDIUM"))

	SelectedRoute = strings.ToUpper(getEnvOrDefault("SELECTED_ROUTE", "AUTO"))

	MinProfitPercent, err = getEnvAsFloat64OrDefault("MIN_PROFIT_PERCENT", 0.1)
	if err != nil {
		return err
	}

	InvestedAmountUSD, err = getEnvAsFloat64OrDefault("INVESTED_AMOUNT_USD", 0)
	if err != nil {
		return err
	}
	if InvestedAmountUSD < 0 {
		return errors.New("INVESTED_AMOUNT_USD must not be negative")
	}

	LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("OwnerID", OwnerID).
		Str("RiskTolerance", RiskTolerance).
		Str("SelectedRoute", SelectedRoute).
		Float64("MinProfitPercent", MinProfitPercent).
		Float64("InvestedAmountUSD", InvestedAmountUSD).
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

// getEnvOrDefault retrieves a string environment variable, falling back to def when unset.
func getEnvOrDefault(key, def string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return def
}

// getEnvAsFloat64OrDefault retrieves an environment variable as a float64,
// falling back to def when unset. Returns error if set but invalid.
func getEnvAsFloat64OrDefault(key string, def float64) (float64, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid float64, got: " + valueStr)
	}
	return value, nil
}
