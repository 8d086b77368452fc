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
		CREATE TABLE IF NOT EXISTS trade_receipts (
			receipt_id SERIAL PRIMARY KEY,
			session_number INTEGER NOT NULL,
			executed_at TIMESTAMPTZ NOT NULL,
			route_name VARCHAR(32) NOT NULL,
			from_asset VARCHAR(16) NOT NULL,
			to_asset VARCHAR(16) NOT NULL,
			notional_usd DECIMAL(20, 8) NOT NULL,
			net_profit_usd DECIMAL(20, 8) NOT NULL,
			gas_fee_usd DECIMAL(20, 8) NOT NULL,
			slippage_usd DECIMAL(20, 8) NOT NULL,
			total_costs_usd DECIMAL(20, 8) NOT NULL,
			amount_spent DECIMAL(30, 18) NOT NULL,
			amount_received DECIMAL(30, 18) NOT NULL,
			withdraw_ref VARCHAR(64) NOT NULL,
			deposit_ref VARCHAR(64) NOT NULL,
			withdraw_ok BOOLEAN NOT NULL DEFAULT TRUE,
			deposit_ok BOOLEAN NOT NULL DEFAULT TRUE
		);
		CREATE INDEX IF NOT EXISTS idx_trade_receipts_session ON trade_receipts(session_number, executed_at DESC);

		CREATE TABLE IF NOT EXISTS session_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			session_number INTEGER NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			stopped_at TIMESTAMPTZ NOT NULL,
			stop_reason TEXT NOT NULL,
			total_profit_usd DECIMAL(20, 8) NOT NULL,
			trades_executed INTEGER NOT NULL,
			trades_skipped INTEGER NOT NULL,
			total_gas_fees_usd DECIMAL(20, 8) NOT NULL,
			total_slippage_usd DECIMAL(20, 8) NOT NULL,
			total_costs_usd DECIMAL(20, 8) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_session_snapshots_number ON session_snapshots(session_number DESC);
	`
	if _, err := DB.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := ensureSessionCounterTable(); err != nil {
		return err
	}

	log.Info().Msg("Database schema ensured successfully")
	return nil
}

// TestDBConnection verifies that the database is reachable.
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return DB.Ping()
}
