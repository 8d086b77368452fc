package web

import (
	"embed"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Subho4531/arbigent06-sub000/internal/engine"
	"github.com/Subho4531/arbigent06-sub000/internal/logger"
	"github.com/Subho4531/arbigent06-sub000/internal/state"
)

var webLogger = logger.GetForComponent("web_server")

//go:embed static/*
var staticFiles embed.FS

//go:embed static/index.html
var dashboardHTML []byte

// WebServer handles HTTP requests for session data visualization
type WebServer struct {
	router *mux.Router
	port   string
	agent  *engine.Agent
}

// NewWebServer creates a new web server instance bound to an agent
func NewWebServer(port string, agent *engine.Agent) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		agent:  agent,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Static files
	staticHandler := http.FileServer(http.FS(staticFiles))
	ws.router.PathPrefix("/static/").Handler(http.StripPrefix("/", staticHandler))

	// Dashboard routes
	ws.router.HandleFunc("/", ws.handleDashboard).Methods("GET")
	ws.router.HandleFunc("/dashboard", ws.handleDashboard).Methods("GET")

	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/session", ws.handleGetSession).Methods("GET")
	api.HandleFunc("/activity", ws.handleGetActivity).Methods("GET")
	api.HandleFunc("/trades", ws.handleGetTrades).Methods("GET")
	api.HandleFunc("/sessions", ws.handleGetSessions).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleDashboard serves the embedded dashboard page
func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(dashboardHTML)
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	overallStatus := "OK"
	if !dbHealthy {
		overallStatus = "DEGRADED"
	}

	snapshot := ws.agent.Snapshot()

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"agent": map[string]interface{}{
			"running":         snapshot.Stats.Running,
			"session_number":  snapshot.SessionNumber,
			"trades_executed": snapshot.Stats.TradesExecuted,
			"trades_skipped":  snapshot.Stats.TradesSkipped,
		},
		"database": map[string]interface{}{
			"healthy": dbHealthy,
		},
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"heap_alloc_bytes": memStats.HeapAlloc,
		},
	}

	ws.writeJSON(w, http.StatusOK, response)
}

// handleGetSession returns the live session snapshot
func (ws *WebServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, ws.agent.Snapshot())
}

// handleGetActivity returns the in-memory activity feed, newest first
func (ws *WebServer) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"activity": ws.agent.Activity(),
	})
}

// handleGetTrades returns recent trade receipts from the database
func (ws *WebServer) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	receipts, err := state.GetTradeReceipts(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to fetch trade receipts")
		ws.writeError(w, http.StatusInternalServerError, "failed to fetch trade receipts")
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"trades": receipts,
		"count":  len(receipts),
	})
}

// handleGetSessions returns recent session snapshots from the database
func (ws *WebServer) handleGetSessions(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 20)
	snapshots, err := state.GetSessionSnapshots(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to fetch session snapshots")
		ws.writeError(w, http.StatusInternalServerError, "failed to fetch session snapshots")
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": snapshots,
		"count":    len(snapshots),
	})
}

func parseLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return def
	}
	return limit
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (ws *WebServer) writeError(w http.ResponseWriter, status int, message string) {
	ws.writeJSON(w, status, map[string]string{"error": message})
}

// corsMiddleware allows the dashboard to be served from another origin
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs every request with its duration
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
