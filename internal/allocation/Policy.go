/*

This file contains the allocation scaling policy for the arbitrage agent.

In automatic mode the policy commits an escalating fraction of the available
balance to each trade, moving up a ladder of percentages after every
unprofitable quote and resetting to the base rung once the ladder is
exhausted. In fixed-amount mode the operator pins the notional and the policy
only enforces the risk cap.

*/

package allocation

import (
	"math"

	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

// Outcome reports what the policy decided after an unprofitable quote.
type Outcome int

const (
	// OutcomeContinue means try the next ladder rung on the following cycle.
	OutcomeContinue Outcome = iota
	// OutcomeRouteExhausted means the ladder was fully climbed without a
	// profitable quote; the cycle counts as a skipped trade and the ladder
	// resets to the base rung.
	OutcomeRouteExhausted
	// OutcomeHardStop means consecutive failures crossed the session limit
	// and the agent must stop.
	OutcomeHardStop
)

// Policy tracks ladder position and failure streaks for one session.
// It is not safe for concurrent use; the cycle loop owns it.
type Policy struct {
	params types.PolicyParameters
	limits types.RiskLimits

	fixedAmountUSD float64 // > 0 pins the notional and disables the ladder
	maxFailures    int

	rung                int
	consecutiveFailures int
}

// NewPolicy builds a policy for a session. fixedAmountUSD of zero selects
// automatic scaling mode.
func NewPolicy(params types.PolicyParameters, limits types.RiskLimits, fixedAmountUSD float64) *Policy {
	maxFailures := params.MaxConsecutiveFailuresAuto
	if fixedAmountUSD > 0 {
		maxFailures = params.MaxConsecutiveFailuresFixed
	}
	return &Policy{
		params:         params,
		limits:         limits,
		fixedAmountUSD: fixedAmountUSD,
		maxFailures:    maxFailures,
	}
}

// FixedMode reports whether the operator pinned the trade notional.
func (p *Policy) FixedMode() bool {
	return p.fixedAmountUSD > 0
}

// CurrentPercent returns the ladder rung in effect, as a percentage of the
// available balance. Fixed mode always reports 100.
func (p *Policy) CurrentPercent() float64 {
	if p.FixedMode() {
		return 100
	}
	return p.params.AllocationLadder[p.rung]
}

// ConsecutiveFailures returns the current unprofitable streak.
func (p *Policy) ConsecutiveFailures() int {
	return p.consecutiveFailures
}

// Size returns the USD notional for the next trade given the available
// balance value, after applying the risk cap.
func (p *Policy) Size(availableUSD float64) float64 {
	var notional float64
	if p.FixedMode() {
		notional = p.fixedAmountUSD
	} else {
		notional = availableUSD * p.params.AllocationLadder[p.rung] / 100
	}
	return math.Min(notional, p.limits.MaxTradeUSD)
}

// RecordUnprofitable advances the policy after an unprofitable quote and
// returns what the cycle loop should do next.
func (p *Policy) RecordUnprofitable() Outcome {
	p.consecutiveFailures++
	if p.consecutiveFailures >= p.maxFailures {
		return OutcomeHardStop
	}

	if p.FixedMode() {
		return OutcomeContinue
	}

	if p.rung == len(p.params.AllocationLadder)-1 {
		p.rung = 0
		return OutcomeRouteExhausted
	}
	p.rung++
	return OutcomeContinue
}

// RecordProfitable resets the failure streak after an executed trade.
// A success at the base rung steps up once, so the agent commits more on the
// next cycle while conditions hold.
func (p *Policy) RecordProfitable() {
	p.consecutiveFailures = 0
	if !p.FixedMode() && p.rung == 0 {
		p.rung = 1
	}
}
