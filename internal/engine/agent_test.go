package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subho4531/arbigent06-sub000/internal/allocation"
	"github.com/Subho4531/arbigent06-sub000/internal/oracle"
	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

type stubOracle struct {
	mu sync.Mutex

	quote    oracle.Quote
	quoteErr error

	opportunities []oracle.Opportunity
	oppErr        error

	quoteCalls   int
	lastRoute    types.Route
	lastNotional float64
}

func (s *stubOracle) CheckProfitability(ctx context.Context, route types.Route, notionalUSD float64, prices map[string]float64, dexFees map[string]float64) (oracle.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quoteCalls++
	s.lastRoute = route
	s.lastNotional = notionalUSD
	return s.quote, s.quoteErr
}

func (s *stubOracle) FindOpportunities(ctx context.Context, notionalUSD float64, dexFees map[string]float64) ([]oracle.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opportunities, s.oppErr
}

type stubLedger struct {
	mu sync.Mutex

	statsErr    error
	transferErr error
	onTransfer  func()

	withdrawals []string
	deposits    []string
	deltas      []types.StatsDelta
}

func (s *stubLedger) GetBalances(ctx context.Context) (map[string]float64, error) {
	return nil, nil
}

func (s *stubLedger) Withdraw(ctx context.Context, asset string, amount sdkmath.Int, ref string) error {
	if s.onTransfer != nil {
		s.onTransfer()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawals = append(s.withdrawals, asset+":"+amount.String())
	return s.transferErr
}

func (s *stubLedger) Deposit(ctx context.Context, asset string, amount sdkmath.Int, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposits = append(s.deposits, asset+":"+amount.String())
	return s.transferErr
}

func (s *stubLedger) UpdateStats(ctx context.Context, delta types.StatsDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statsErr != nil {
		return s.statsErr
	}
	s.deltas = append(s.deltas, delta)
	return nil
}

func testAgent(t *testing.T, or *stubOracle, led *stubLedger, agentCfg types.AgentConfig) *Agent {
	t.Helper()

	params := types.PolicyParameters{
		AllocationLadder:            []float64{10, 50, 80, 100},
		MinActionableUSD:            0.01,
		DustThresholdUSD:            1.0,
		MaxConsecutiveFailuresAuto:  10,
		MaxConsecutiveFailuresFixed: 25,
		CycleDelayMin:               time.Millisecond,
		CycleDelayMax:               2 * time.Millisecond,
		CandidateNotionalUSD:        1000,
		ActivityFeedCap:             100,
	}
	agent, err := NewAgent(Config{
		Oracle:       or,
		Ledger:       led,
		AgentConfig:  agentCfg,
		PolicyParams: params,
		RiskLimits:   types.RiskLimits{MaxTradeUSD: 5_000, GasLimit: 4_000},
	})
	require.NoError(t, err)

	// Prime a session without launching the loop so cycles can be driven
	// one at a time.
	agent.mu.Lock()
	agent.running = true
	agent.sessionNumber = 1
	agent.stats = types.SessionStats{Running: true, StartTime: time.Now().UTC()}
	agent.policy = allocation.NewPolicy(params, agent.limits, agentCfg.InvestedAmountUSD)
	agent.mu.Unlock()

	return agent
}

func pinnedConfig() types.AgentConfig {
	return types.AgentConfig{
		MinProfitThreshold: 0.1,
		RiskTolerance:      types.RiskMedium,
		SelectedRoute:      "USDC_USDT",
	}
}

func TestProfitableCycleExecutesTrade(t *testing.T) {
	or := &stubOracle{quote: oracle.Quote{
		IsProfitable:        true,
		ProfitMarginPercent: 0.5,
		NetProfitUSD:        4.0,
		GasFeeUSD:           1.0,
		SlippageUSD:         0.5,
		TotalCostsUSD:       1.5,
	}}
	led := &stubLedger{}
	agent := testAgent(t, or, led, pinnedConfig())
	agent.SetBalances(map[string]float64{"USDC": 1000, "USDT": 0})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	halt, _ := agent.runCycle(context.Background())
	require.False(t, halt)

	// 10% base rung of $1000.
	assert.InDelta(t, 100, or.lastNotional, 1e-9)
	assert.Equal(t, "USDC_USDT", or.lastRoute.Name)

	snap := agent.Snapshot()
	assert.Equal(t, 1, snap.Stats.TradesExecuted)
	assert.InDelta(t, 4.0, snap.Stats.TotalProfitUSD, 1e-9)
	assert.InDelta(t, 1.0, snap.Stats.TotalGasFeesUSD, 1e-9)
	assert.InDelta(t, 900, snap.Balances["USDC"], 1e-6)
	assert.InDelta(t, 104, snap.Balances["USDT"], 1e-6)

	require.Len(t, led.withdrawals, 1)
	require.Len(t, led.deposits, 1)
	assert.Equal(t, "USDC:100000000", led.withdrawals[0])
	assert.Equal(t, "USDT:104000000", led.deposits[0])

	require.Len(t, led.deltas, 1)
	assert.InDelta(t, 4.0, led.deltas[0].ProfitUSD, 1e-9)
	assert.Equal(t, 1, led.deltas[0].Trades)
	assert.InDelta(t, 6.0, led.deltas[0].BestTradeUSD, 1e-9)
	assert.InDelta(t, 2.0, led.deltas[0].WorstTradeUSD, 1e-9)
}

func TestBalancesAdjustBeforeSettlement(t *testing.T) {
	or := &stubOracle{quote: oracle.Quote{
		IsProfitable:        true,
		ProfitMarginPercent: 0.5,
		NetProfitUSD:        4.0,
	}}
	led := &stubLedger{}
	agent := testAgent(t, or, led, pinnedConfig())
	agent.SetBalances(map[string]float64{"USDC": 1000})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	var seen map[string]float64
	led.onTransfer = func() {
		if seen == nil {
			seen = agent.Snapshot().Balances
		}
	}

	halt, _ := agent.runCycle(context.Background())
	require.False(t, halt)

	// The withdraw leg already observes the post-trade local view.
	require.NotNil(t, seen)
	assert.InDelta(t, 900, seen["USDC"], 1e-9)
	assert.InDelta(t, 104, seen["USDT"], 1e-9)
}

func TestLadderExhaustionCountsSkip(t *testing.T) {
	or := &stubOracle{quote: oracle.Quote{IsProfitable: false}}
	led := &stubLedger{}
	agent := testAgent(t, or, led, pinnedConfig())
	agent.SetBalances(map[string]float64{"USDC": 1000})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	for i := 0; i < 4; i++ {
		halt, _ := agent.runCycle(context.Background())
		require.False(t, halt, "cycle %d", i+1)
	}

	snap := agent.Snapshot()
	assert.Equal(t, 1, snap.Stats.TradesSkipped)
	assert.Equal(t, 0, snap.Stats.TradesExecuted)
	// Ladder reset to the base rung after exhaustion.
	assert.InDelta(t, 10, snap.AllocationPercent, 1e-9)
	assert.Equal(t, 4, snap.ConsecutiveFailures)
}

func TestZeroBalanceStopsSession(t *testing.T) {
	or := &stubOracle{}
	led := &stubLedger{}
	agent := testAgent(t, or, led, pinnedConfig())
	agent.SetBalances(map[string]float64{"USDC": 0})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	halt, reason := agent.runCycle(context.Background())
	assert.True(t, halt)
	assert.Contains(t, reason, "zero balance")
	assert.Equal(t, 0, or.quoteCalls)
}

func TestOracleErrorMutatesNothing(t *testing.T) {
	or := &stubOracle{quoteErr: errors.New("connection refused")}
	led := &stubLedger{}
	agent := testAgent(t, or, led, pinnedConfig())
	agent.SetBalances(map[string]float64{"USDC": 1000})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	halt, _ := agent.runCycle(context.Background())
	require.False(t, halt)

	snap := agent.Snapshot()
	assert.Equal(t, 0, snap.Stats.TradesExecuted)
	assert.Equal(t, 0, snap.Stats.TradesSkipped)
	assert.Equal(t, 0, snap.ConsecutiveFailures)
	assert.InDelta(t, 10, snap.AllocationPercent, 1e-9)
	assert.Empty(t, led.deltas)
}

func TestFixedModeSizesEveryTrade(t *testing.T) {
	or := &stubOracle{quote: oracle.Quote{IsProfitable: true, ProfitMarginPercent: 0.5, NetProfitUSD: 2}}
	led := &stubLedger{}
	cfg := pinnedConfig()
	cfg.InvestedAmountUSD = 500
	agent := testAgent(t, or, led, cfg)
	agent.SetBalances(map[string]float64{"USDC": 10_000})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	halt, _ := agent.runCycle(context.Background())
	require.False(t, halt)
	assert.InDelta(t, 500, or.lastNotional, 1e-9)
}

func TestFixedModeStopsBelowInvestedAmount(t *testing.T) {
	or := &stubOracle{}
	led := &stubLedger{}
	cfg := pinnedConfig()
	cfg.InvestedAmountUSD = 500
	agent := testAgent(t, or, led, cfg)
	agent.SetBalances(map[string]float64{"USDC": 400})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	halt, reason := agent.runCycle(context.Background())
	assert.True(t, halt)
	assert.Contains(t, reason, "below invested amount")
}

func TestAutoModePicksBestOpportunity(t *testing.T) {
	or := &stubOracle{
		quote: oracle.Quote{IsProfitable: false},
		opportunities: []oracle.Opportunity{
			{RouteKey: "APT_USDT", IsProfitable: true, NetProfitUSD: 1.2, ProfitMarginPercent: 0.12},
			{RouteKey: "USDT_USDC", IsProfitable: true, NetProfitUSD: 3.4, ProfitMarginPercent: 0.34},
			{RouteKey: "USDC_USDT", IsProfitable: false, NetProfitUSD: -0.5, ProfitMarginPercent: -0.05},
		},
	}
	led := &stubLedger{}
	cfg := pinnedConfig()
	cfg.SelectedRoute = "AUTO"
	agent := testAgent(t, or, led, cfg)
	agent.SetBalances(map[string]float64{"USDC": 1000, "USDT": 1000})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	halt, _ := agent.runCycle(context.Background())
	require.False(t, halt)
	assert.Equal(t, "USDT_USDC", or.lastRoute.Name)
}

func TestAutoModeFallsBackToRotation(t *testing.T) {
	or := &stubOracle{
		quote:  oracle.Quote{IsProfitable: false},
		oppErr: errors.New("discovery down"),
	}
	led := &stubLedger{}
	cfg := pinnedConfig()
	cfg.SelectedRoute = "AUTO"
	agent := testAgent(t, or, led, cfg)
	agent.SetBalances(map[string]float64{"USDC": 1000, "USDT": 1000, "APT": 100})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	halt, _ := agent.runCycle(context.Background())
	require.False(t, halt)
	first := or.lastRoute.Name
	assert.Equal(t, "USDC_USDT", first)

	halt, _ = agent.runCycle(context.Background())
	require.False(t, halt)
	assert.Equal(t, "USDT_USDC", or.lastRoute.Name)
}

func TestFlushRetriesAfterFailure(t *testing.T) {
	or := &stubOracle{quote: oracle.Quote{
		IsProfitable:        true,
		ProfitMarginPercent: 0.5,
		NetProfitUSD:        4.0,
		GasFeeUSD:           1.0,
	}}
	led := &stubLedger{statsErr: errors.New("ledger down")}
	agent := testAgent(t, or, led, pinnedConfig())
	agent.SetBalances(map[string]float64{"USDC": 1000})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	// First trade flush fails; the cursor must not advance.
	halt, _ := agent.runCycle(context.Background())
	require.False(t, halt)
	require.Empty(t, led.deltas)

	// Second trade flushes both trades in one delta.
	led.mu.Lock()
	led.statsErr = nil
	led.mu.Unlock()

	halt, _ = agent.runCycle(context.Background())
	require.False(t, halt)
	require.Len(t, led.deltas, 1)
	assert.InDelta(t, 8.0, led.deltas[0].ProfitUSD, 1e-9)
	assert.Equal(t, 2, led.deltas[0].Trades)
	assert.InDelta(t, 2.0, led.deltas[0].GasUSD, 1e-9)
}

func TestHardStopAfterConsecutiveFailures(t *testing.T) {
	or := &stubOracle{quote: oracle.Quote{IsProfitable: false}}
	led := &stubLedger{}
	agent := testAgent(t, or, led, pinnedConfig())
	agent.SetBalances(map[string]float64{"USDC": 1000})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	var halt bool
	var reason string
	for i := 0; i < 10; i++ {
		halt, reason = agent.runCycle(context.Background())
		if halt {
			break
		}
	}
	assert.True(t, halt)
	assert.Contains(t, reason, "consecutive unprofitable cycles")
}

func TestStartStopLifecycle(t *testing.T) {
	or := &stubOracle{quoteErr: errors.New("oracle offline")}
	led := &stubLedger{}
	params := types.PolicyParameters{
		AllocationLadder:            []float64{10, 50, 80, 100},
		MinActionableUSD:            0.01,
		DustThresholdUSD:            1.0,
		MaxConsecutiveFailuresAuto:  10,
		MaxConsecutiveFailuresFixed: 25,
		CycleDelayMin:               time.Millisecond,
		CycleDelayMax:               2 * time.Millisecond,
		CandidateNotionalUSD:        1000,
		ActivityFeedCap:             100,
	}
	agent, err := NewAgent(Config{
		Oracle:       or,
		Ledger:       led,
		AgentConfig:  pinnedConfig(),
		PolicyParams: params,
		RiskLimits:   types.RiskLimits{MaxTradeUSD: 5_000, GasLimit: 4_000},
	})
	require.NoError(t, err)
	agent.SetBalances(map[string]float64{"USDC": 1000})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	require.NoError(t, agent.Start())
	require.ErrorIs(t, agent.Start(), ErrAlreadyRunning)
	assert.True(t, agent.Running())

	require.NoError(t, agent.Stop())
	assert.False(t, agent.Running())
	require.ErrorIs(t, agent.Stop(), ErrNotRunning)

	// Session state is zeroed after stop.
	snap := agent.Snapshot()
	assert.Equal(t, 0, snap.Stats.TradesExecuted)
	assert.False(t, snap.Stats.Running)

	// A fresh session can start again.
	require.NoError(t, agent.Start())
	require.NoError(t, agent.Stop())
}

func TestReconfigureOnlyWhileStopped(t *testing.T) {
	or := &stubOracle{quoteErr: errors.New("oracle offline")}
	led := &stubLedger{}
	agent := testAgent(t, or, led, pinnedConfig())

	next := types.AgentConfig{
		MinProfitThreshold: 0.25,
		RiskTolerance:      types.RiskLow,
		SelectedRoute:      "APT_USDT",
		InvestedAmountUSD:  500,
	}
	require.ErrorIs(t, agent.Reconfigure(next), ErrAlreadyRunning)

	agent.mu.Lock()
	agent.running = false
	agent.mu.Unlock()

	require.Error(t, agent.Reconfigure(types.AgentConfig{SelectedRoute: "APT_ETH"}))
	require.NoError(t, agent.Reconfigure(next))

	// The new configuration drives the next session: fixed mode pins the
	// allocation at 100%.
	agent.SetBalances(map[string]float64{"APT": 200})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})
	require.NoError(t, agent.Start())
	snap := agent.Snapshot()
	assert.InDelta(t, 100, snap.AllocationPercent, 1e-9)
	require.NoError(t, agent.Stop())
}

func TestActivityFeedCapsEntries(t *testing.T) {
	feed := newActivityFeed(3)
	for i := 0; i < 5; i++ {
		feed.record("info", "event", string(rune('a'+i)))
	}
	entries := feed.entries()
	require.Len(t, entries, 3)
	// Newest first.
	assert.Equal(t, "e", entries[0].Detail)
	assert.Equal(t, "c", entries[2].Detail)
}

func TestStateListenerObservesTransitions(t *testing.T) {
	or := &stubOracle{quoteErr: errors.New("oracle offline")}
	led := &stubLedger{}
	params := types.PolicyParameters{
		AllocationLadder:            []float64{10, 50, 80, 100},
		MinActionableUSD:            0.01,
		DustThresholdUSD:            1.0,
		MaxConsecutiveFailuresAuto:  10,
		MaxConsecutiveFailuresFixed: 25,
		CycleDelayMin:               time.Millisecond,
		CycleDelayMax:               2 * time.Millisecond,
		CandidateNotionalUSD:        1000,
		ActivityFeedCap:             100,
	}
	agent, err := NewAgent(Config{
		Oracle:       or,
		Ledger:       led,
		AgentConfig:  pinnedConfig(),
		PolicyParams: params,
		RiskLimits:   types.RiskLimits{MaxTradeUSD: 5_000, GasLimit: 4_000},
	})
	require.NoError(t, err)
	agent.SetBalances(map[string]float64{"USDC": 1000})
	agent.SetPrices(map[string]float64{"USDC": 1, "USDT": 1, "APT": 8.5})

	var mu sync.Mutex
	var transitions []bool
	var lastReason string
	agent.SetStateListener(func(running bool, reason string) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, running)
		lastReason = reason
	})

	require.NoError(t, agent.Start())
	require.NoError(t, agent.Stop())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []bool{true, false}, transitions)
	assert.Equal(t, "stopped by operator", lastReason)
}
