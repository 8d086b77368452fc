package config

import (
	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// OracleAPI is the base URL of the pricing oracle service.
	OracleAPI string
	// LedgerAPI is the base URL of the balance settlement service.
	LedgerAPI string
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	OracleAPI, err = getEnv("ORACLE_API")
	if err != nil {
		return err
	}

	LedgerAPI, err = getEnv("LEDGER_API")
	if err != nil {
		return err
	}

	log.Debug().
		Str("OracleAPI", OracleAPI).
		Str("LedgerAPI", LedgerAPI).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}
