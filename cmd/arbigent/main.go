package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Subho4531/arbigent06-sub000/internal/config"
	"github.com/Subho4531/arbigent06-sub000/internal/datafeed"
	"github.com/Subho4531/arbigent06-sub000/internal/engine"
	"github.com/Subho4531/arbigent06-sub000/internal/ledger"
	"github.com/Subho4531/arbigent06-sub000/internal/logger"
	"github.com/Subho4531/arbigent06-sub000/internal/oracle"
	"github.com/Subho4531/arbigent06-sub000/internal/state"
	"github.com/Subho4531/arbigent06-sub000/internal/types"
	"github.com/Subho4531/arbigent06-sub000/internal/web"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// main is the entry point for the arbitrage agent.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(config.LogLevel)
	log.Info().Msg("Arbitrage agent starting...")

	// Initialize database connection. Local persistence is advisory: without
	// it the agent still trades, it just numbers sessions locally and keeps
	// no receipt history.
	var recorder engine.Recorder
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Warn().Err(err).Msg("Database unavailable, continuing without local persistence")
	} else {
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			log.Warn().Err(err).Msg("Schema setup failed, continuing without local persistence")
		} else {
			recorder = state.NewRecorder()
		}
	}

	// --- 2. Collaborator Clients ---
	tolerance := types.RiskTolerance(config.RiskTolerance)
	limits := config.RiskLimitsFor(tolerance)

	oracleClient := oracle.NewClient(config.OracleAPI)
	ledgerClient := ledger.NewLiveLedger(config.LedgerAPI, config.OwnerID, limits.GasLimit)

	// --- 3. Create Agent Instance with Dependency Injection ---
	agentConfig := types.AgentConfig{
		MinProfitThreshold: config.MinProfitPercent,
		RiskTolerance:      tolerance,
		SelectedRoute:      config.SelectedRoute,
		InvestedAmountUSD:  config.InvestedAmountUSD,
	}

	agent, err := engine.NewAgent(engine.Config{
		Oracle:       oracleClient,
		Ledger:       ledgerClient,
		Recorder:     recorder,
		AgentConfig:  agentConfig,
		PolicyParams: config.DefaultPolicyParameters,
		RiskLimits:   limits,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create agent instance")
	}

	// --- 4. Background Services ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := datafeed.NewFeed(oracleClient, ledgerClient, agent)
	go feed.Run(ctx)

	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}
	webServer := web.NewWebServer(webPort, agent)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting web dashboard")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 5. Trading Session ---
	if err := agent.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start trading session")
	}

	// Block until an interrupt, then wind the session down cleanly.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	cancel()
	if err := agent.Stop(); err != nil && err != engine.ErrNotRunning {
		log.Error().Err(err).Msg("Error stopping agent")
	}
	log.Info().Msg("Arbitrage agent stopped")
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
