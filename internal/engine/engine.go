/*

This file contains the core arbitrage agent: a session-scoped state machine
that drives the cycle loop. One Agent owns one owner's balances and stats; the
datafeed pushes prices and balances in, the web server reads snapshots out.

*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Subho4531/arbigent06-sub000/internal/allocation"
	"github.com/Subho4531/arbigent06-sub000/internal/ledger"
	"github.com/Subho4531/arbigent06-sub000/internal/logger"
	"github.com/Subho4531/arbigent06-sub000/internal/market"
	"github.com/Subho4531/arbigent06-sub000/internal/oracle"
	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

// DEX_FEE_PERCENT is the per-venue swap fee forwarded to the oracle.
const DEX_FEE_PERCENT = 0.3

// defaultDexFees names the venues every quote and discovery request runs
// against. The oracle only enumerates routes across venues it is told about,
// so this map must carry real venue names rather than a bare fee rate.
var defaultDexFees = map[string]float64{
	"liquidswap":  DEX_FEE_PERCENT,
	"pancakeswap": DEX_FEE_PERCENT,
}

var (
	ErrAlreadyRunning = errors.New("agent is already running")
	ErrNotRunning     = errors.New("agent is not running")
)

// Oracle is the slice of the pricing oracle the engine needs.
type Oracle interface {
	CheckProfitability(ctx context.Context, route types.Route, notionalUSD float64, prices map[string]float64, dexFees map[string]float64) (oracle.Quote, error)
	FindOpportunities(ctx context.Context, notionalUSD float64, dexFees map[string]float64) ([]oracle.Opportunity, error)
}

// Recorder persists trade receipts and session snapshots. A nil Recorder is
// valid; the agent then numbers sessions locally and persists nothing.
type Recorder interface {
	BeginSession() (int, error)
	RecordTrade(receipt types.TradeReceipt) error
	RecordSession(snapshot types.SessionSnapshot) error
}

// Agent runs the arbitrage cycle loop for one owner.
type Agent struct {
	logger   zerolog.Logger
	oracle   Oracle
	ledger   ledger.Service
	recorder Recorder

	cfg    types.AgentConfig
	params types.PolicyParameters
	limits types.RiskLimits

	mu            sync.Mutex
	running       bool
	sessionNumber int
	stats         types.SessionStats
	cursor        types.ReconciliationCursor
	policy        *allocation.Policy
	balances      map[string]float64
	prices        map[string]float64
	lastRoute     string
	stopReason    string

	feed    *activityFeed
	onState StateListener

	cancel context.CancelFunc
	done   chan struct{}
}

// StateListener is notified on every Running/Stopped transition. The reason
// is empty on start and names the trigger on stop.
type StateListener func(running bool, reason string)

// Config holds the dependencies for creating a new Agent.
type Config struct {
	Oracle       Oracle
	Ledger       ledger.Service
	Recorder     Recorder
	AgentConfig  types.AgentConfig
	PolicyParams types.PolicyParameters
	RiskLimits   types.RiskLimits
}

// NewAgent creates an Agent with dependency injection.
func NewAgent(cfg Config) (*Agent, error) {
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("oracle client cannot be nil")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("ledger service cannot be nil")
	}
	if len(cfg.PolicyParams.AllocationLadder) == 0 {
		return nil, fmt.Errorf("allocation ladder cannot be empty")
	}
	if cfg.AgentConfig.SelectedRoute != market.RouteAuto {
		if _, err := market.ResolveRoute(cfg.AgentConfig.SelectedRoute); err != nil {
			return nil, fmt.Errorf("selected route %q: %w", cfg.AgentConfig.SelectedRoute, err)
		}
	}

	agent := &Agent{
		logger:   logger.GetForComponent("engine"),
		oracle:   cfg.Oracle,
		ledger:   cfg.Ledger,
		recorder: cfg.Recorder,
		cfg:      cfg.AgentConfig,
		params:   cfg.PolicyParams,
		limits:   cfg.RiskLimits,
		balances: map[string]float64{},
		prices:   map[string]float64{},
		feed:     newActivityFeed(cfg.PolicyParams.ActivityFeedCap),
	}

	agent.logger.Info().
		Str("selected_route", cfg.AgentConfig.SelectedRoute).
		Float64("min_profit_percent", cfg.AgentConfig.MinProfitThreshold).
		Bool("fixed_mode", cfg.AgentConfig.FixedMode()).
		Msg("Agent instance created")

	return agent, nil
}

// Reconfigure replaces the agent configuration. Only permitted while the
// agent is stopped; the new configuration takes effect on the next Start.
func (a *Agent) Reconfigure(cfg types.AgentConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return ErrAlreadyRunning
	}
	if cfg.SelectedRoute != market.RouteAuto {
		if _, err := market.ResolveRoute(cfg.SelectedRoute); err != nil {
			return fmt.Errorf("selected route %q: %w", cfg.SelectedRoute, err)
		}
	}
	if cfg.InvestedAmountUSD < 0 {
		return fmt.Errorf("invested amount cannot be negative: %f", cfg.InvestedAmountUSD)
	}

	a.cfg = cfg
	a.logger.Info().
		Str("selected_route", cfg.SelectedRoute).
		Float64("min_profit_percent", cfg.MinProfitThreshold).
		Bool("fixed_mode", cfg.FixedMode()).
		Msg("Agent reconfigured")
	return nil
}

// SetStateListener registers a transition callback. Call before Start.
func (a *Agent) SetStateListener(fn StateListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onState = fn
}

// Start begins a new trading session. Session stats and the reconciliation
// cursor are zeroed so nothing from a previous session leaks in.
func (a *Agent) Start() error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}

	sessionNumber := a.sessionNumber + 1
	if a.recorder != nil {
		n, err := a.recorder.BeginSession()
		if err != nil {
			a.mu.Unlock()
			return fmt.Errorf("beginning session: %w", err)
		}
		sessionNumber = n
	}

	a.sessionNumber = sessionNumber
	a.stats = types.SessionStats{
		Running:   true,
		StartTime: time.Now().UTC(),
	}
	a.cursor = types.ReconciliationCursor{}
	a.policy = allocation.NewPolicy(a.params, a.limits, a.cfg.InvestedAmountUSD)
	a.lastRoute = ""
	a.stopReason = ""
	a.running = true

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	onState := a.onState
	a.mu.Unlock()

	a.feed.record("info", "Session started", fmt.Sprintf("session %d", sessionNumber))
	a.logger.Info().Int("session", sessionNumber).Msg("--- Starting trading session ---")
	if onState != nil {
		onState(true, "")
	}

	go a.loop(ctx)
	return nil
}

// Stop cancels the running session, flushes unreconciled stats once, and
// blocks until the cycle loop has fully wound down.
func (a *Agent) Stop() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return ErrNotRunning
	}
	cancel := a.cancel
	done := a.done
	a.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Running reports whether a session is active.
func (a *Agent) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// SetBalances replaces the agent's view of owner balances, in display units.
func (a *Agent) SetBalances(balances map[string]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances = make(map[string]float64, len(balances))
	for asset, amount := range balances {
		a.balances[asset] = amount
	}
}

// SetPrices replaces the agent's view of spot prices, keyed by asset symbol.
func (a *Agent) SetPrices(prices map[string]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prices = make(map[string]float64, len(prices))
	for asset, price := range prices {
		a.prices[asset] = price
	}
}

// Snapshot is a point-in-time view of the session for the dashboard.
type Snapshot struct {
	SessionNumber       int                `json:"session_number"`
	Stats               types.SessionStats `json:"stats"`
	StopReason          string             `json:"stop_reason,omitempty"`
	AllocationPercent   float64            `json:"allocation_percent"`
	ConsecutiveFailures int                `json:"consecutive_failures"`
	Balances            map[string]float64 `json:"balances"`
}

// Snapshot returns the current session state.
func (a *Agent) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		SessionNumber: a.sessionNumber,
		Stats:         a.stats,
		StopReason:    a.stopReason,
		Balances:      make(map[string]float64, len(a.balances)),
	}
	if a.policy != nil {
		snap.AllocationPercent = a.policy.CurrentPercent()
		snap.ConsecutiveFailures = a.policy.ConsecutiveFailures()
	}
	for asset, amount := range a.balances {
		snap.Balances[asset] = amount
	}
	return snap
}

// Activity returns the recent activity feed, newest first.
func (a *Agent) Activity() []types.LogEntry {
	return a.feed.entries()
}
