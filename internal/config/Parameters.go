/*

This file contains the default policy parameters for the arbitrage agent.

These parameters govern how aggressively the agent scales trade sizes, when it
gives up on a route, and when it stops a session outright. Each value has been
chosen to keep a fully autonomous agent from grinding a balance down during
sustained unprofitable market conditions.

*/

package config

import (
	"time"

	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

// DefaultPolicyParameters provides the baseline policy for the agent's cycle loop.
var DefaultPolicyParameters = types.PolicyParameters{
	AllocationLadder: []float64{10, 50, 80, 100}, // Percent of balance committed per trade, in automatic mode.
	// Rationale: the agent probes with 10% first. Only after an unprofitable
	// probe does it escalate, on the theory that a bigger notional can absorb
	// fixed gas costs that make small trades unviable. After 100% fails the
	// ladder resets and the cycle is recorded as skipped.

	MinActionableUSD: 0.01, // Trades below one cent are never sent to the oracle.
	// Rationale: below this the quote costs more than the trade could return.

	DustThresholdUSD: 1.0, // Balances under $1 trigger a warning but keep trading.
	// Rationale: dust balances still produce valid quotes, but the operator
	// should know the session is effectively idle.

	MaxConsecutiveFailuresAuto:  10, // Hard stop after 10 straight unprofitable cycles in automatic mode.
	MaxConsecutiveFailuresFixed: 25, // Fixed-amount mode tolerates more, the operator chose the size.
	// Rationale: in automatic mode the ladder has already escalated through
	// every rung several times by failure 10; continuing wastes oracle calls.
	// In fixed mode the operator pinned the notional deliberately, so the
	// agent waits longer for conditions to turn.

	CycleDelayMin: 3 * time.Second,
	CycleDelayMax: 6 * time.Second,
	// Rationale: a jittered delay keeps the agent from hammering the oracle in
	// lockstep with other instances. The first cycle runs immediately.

	CandidateNotionalUSD: 1000, // Notional used when ranking candidate routes in AUTO mode.
	// Rationale: discovery quotes need a common notional to be comparable.
	// $1000 is large enough that gas does not dominate the margin.

	ActivityFeedCap: 100, // In-memory activity entries retained for the dashboard.
}

// RiskLimitsFor maps a risk tolerance to its per-trade caps.
// Unknown tolerances fall back to MEDIUM.
func RiskLimitsFor(tolerance types.RiskTolerance) types.RiskLimits {
	if limits, ok := riskLimits[tolerance]; ok {
		return limits
	}
	return riskLimits[types.RiskMedium]
}

var riskLimits = map[types.RiskTolerance]types.RiskLimits{
	types.RiskLow:      {MaxTradeUSD: 1_000, GasLimit: 2_000},
	types.RiskMedium:   {MaxTradeUSD: 5_000, GasLimit: 4_000},
	types.RiskHigh:     {MaxTradeUSD: 20_000, GasLimit: 6_000},
	types.RiskVeryHigh: {MaxTradeUSD: 100_000, GasLimit: 10_000},
}
