/*

This file contains the operator-facing agent configuration and the risk
tolerance table it references.

*/

package types

import "time"

// RiskTolerance is the operator's risk appetite. Each level maps to a hard
// cap on per-trade notional and a gas limit passed through to the ledger.
type RiskTolerance string

const (
	RiskLow      RiskTolerance = "LOW"
	RiskMedium   RiskTolerance = "MEDIUM"
	RiskHigh     RiskTolerance = "HIGH"
	RiskVeryHigh RiskTolerance = "VERY_HIGH"
)

// RiskLimits holds the concrete limits a RiskTolerance level resolves to.
type RiskLimits struct {
	MaxTradeUSD float64 `json:"max_trade_usd"`
	GasLimit    uint64  `json:"gas_limit"`
}

// AgentConfig is the configuration for a single agent run. It is immutable
// while the engine is running; Reconfigure is only permitted while Stopped.
type AgentConfig struct {
	// MinProfitThreshold is the minimum profit margin (percent) a quote must
	// clear before the agent executes.
	MinProfitThreshold float64 `json:"min_profit_threshold"`

	// RiskTolerance selects the max-trade-notional / gas-limit pair.
	RiskTolerance RiskTolerance `json:"risk_tolerance"`

	// SelectedRoute is a route key from the catalog, or RouteAuto to let the
	// agent pick routes itself.
	SelectedRoute string `json:"selected_route"`

	// InvestedAmountUSD, when positive, switches sizing to fixed mode: every
	// trade is min(InvestedAmountUSD, MaxTradeUSD) regardless of balance.
	InvestedAmountUSD float64 `json:"invested_amount_usd,omitempty"`
}

// FixedMode reports whether the operator pinned a fixed trade notional.
func (c AgentConfig) FixedMode() bool {
	return c.InvestedAmountUSD > 0
}

// PolicyParameters holds the tunable constants of the allocation and
// scheduling policy. Different sets can exist for different deployments;
// config.DefaultPolicyParameters is the production baseline.
type PolicyParameters struct {
	// AllocationLadder is the discrete escalation sequence (percent of the
	// source-asset balance) automatic mode walks through. The first entry is
	// the base rung.
	AllocationLadder []float64 `json:"allocation_ladder"`

	// MinActionableUSD is the smallest notional worth quoting at all.
	MinActionableUSD float64 `json:"min_actionable_usd"`

	// DustThresholdUSD triggers a warning (not a stop) when the source
	// balance falls below it in automatic mode.
	DustThresholdUSD float64 `json:"dust_threshold_usd"`

	// MaxConsecutiveFailuresAuto / MaxConsecutiveFailuresFixed are the
	// hard-stop thresholds for unprofitable attempts per sizing mode.
	MaxConsecutiveFailuresAuto  int `json:"max_consecutive_failures_auto"`
	MaxConsecutiveFailuresFixed int `json:"max_consecutive_failures_fixed"`

	// CycleDelayMin / CycleDelayMax bound the randomized delay between
	// cycles.
	CycleDelayMin time.Duration `json:"cycle_delay_min"`
	CycleDelayMax time.Duration `json:"cycle_delay_max"`

	// CandidateNotionalUSD is the probe amount used for the ranked
	// opportunities query in AUTO mode.
	CandidateNotionalUSD float64 `json:"candidate_notional_usd"`

	// ActivityFeedCap caps the engine's retained in-memory log history.
	ActivityFeedCap int `json:"activity_feed_cap"`
}
