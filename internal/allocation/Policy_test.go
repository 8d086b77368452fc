package allocation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

func testParams() types.PolicyParameters {
	return types.PolicyParameters{
		AllocationLadder:            []float64{10, 50, 80, 100},
		MinActionableUSD:            0.01,
		DustThresholdUSD:            1.0,
		MaxConsecutiveFailuresAuto:  10,
		MaxConsecutiveFailuresFixed: 25,
		CycleDelayMin:               3 * time.Second,
		CycleDelayMax:               6 * time.Second,
		CandidateNotionalUSD:        1000,
		ActivityFeedCap:             100,
	}
}

func testLimits() types.RiskLimits {
	return types.RiskLimits{MaxTradeUSD: 5_000, GasLimit: 4_000}
}

func TestAutoModeLadderEscalation(t *testing.T) {
	policy := NewPolicy(testParams(), testLimits(), 0)

	assert.InDelta(t, 100, policy.Size(1000), 1e-9) // 10% of $1000

	require.Equal(t, OutcomeContinue, policy.RecordUnprofitable())
	assert.InDelta(t, 500, policy.Size(1000), 1e-9) // 50%

	require.Equal(t, OutcomeContinue, policy.RecordUnprofitable())
	assert.InDelta(t, 800, policy.Size(1000), 1e-9) // 80%

	require.Equal(t, OutcomeContinue, policy.RecordUnprofitable())
	assert.InDelta(t, 1000, policy.Size(1000), 1e-9) // 100%

	// Fourth failure exhausts the ladder and resets to the base rung.
	require.Equal(t, OutcomeRouteExhausted, policy.RecordUnprofitable())
	assert.InDelta(t, 100, policy.Size(1000), 1e-9)
	assert.Equal(t, 4, policy.ConsecutiveFailures())
}

func TestAutoModeSuccessAtBaseRungStepsUp(t *testing.T) {
	policy := NewPolicy(testParams(), testLimits(), 0)

	policy.RecordProfitable()
	assert.Equal(t, 0, policy.ConsecutiveFailures())
	assert.InDelta(t, 50, policy.CurrentPercent(), 1e-9)

	// A second success holds the rung instead of escalating further.
	policy.RecordProfitable()
	assert.InDelta(t, 50, policy.CurrentPercent(), 1e-9)
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	policy := NewPolicy(testParams(), testLimits(), 0)

	for i := 0; i < 3; i++ {
		policy.RecordUnprofitable()
	}
	require.Equal(t, 3, policy.ConsecutiveFailures())

	policy.RecordProfitable()
	assert.Equal(t, 0, policy.ConsecutiveFailures())
}

func TestRiskCapBoundsSize(t *testing.T) {
	policy := NewPolicy(testParams(), testLimits(), 0)
	for i := 0; i < 3; i++ {
		policy.RecordUnprofitable()
	}
	// 100% of $50,000 would be $50,000; the MEDIUM cap holds it at $5,000.
	assert.InDelta(t, 5_000, policy.Size(50_000), 1e-9)
}

func TestFixedModeSizing(t *testing.T) {
	policy := NewPolicy(testParams(), testLimits(), 500)

	assert.True(t, policy.FixedMode())
	assert.InDelta(t, 100, policy.CurrentPercent(), 1e-9)
	assert.InDelta(t, 500, policy.Size(10_000), 1e-9)
	// Balance value does not change the notional in fixed mode.
	assert.InDelta(t, 500, policy.Size(700), 1e-9)
}

func TestFixedModeNeverExhaustsRoute(t *testing.T) {
	policy := NewPolicy(testParams(), testLimits(), 500)
	for i := 0; i < 24; i++ {
		require.Equal(t, OutcomeContinue, policy.RecordUnprofitable(), "failure %d", i+1)
	}
	assert.Equal(t, OutcomeHardStop, policy.RecordUnprofitable())
}

func TestAutoModeHardStop(t *testing.T) {
	policy := NewPolicy(testParams(), testLimits(), 0)
	var outcome Outcome
	for i := 0; i < 10; i++ {
		outcome = policy.RecordUnprofitable()
	}
	assert.Equal(t, OutcomeHardStop, outcome)
}
