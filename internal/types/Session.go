/*

This file contains the per-run session accumulators and the reconciliation
cursor that tracks how much of them has already been flushed to the remote
stats store.

*/

package types

import "time"

// SessionStats accumulates outcomes for the current run only. All monetary
// fields are USD. The engine zeroes the whole struct at Start and again
// right after the final flush at Stop.
type SessionStats struct {
	Running       bool      `json:"running"`
	StartTime     time.Time `json:"start_time,omitempty"`
	LastTradeTime time.Time `json:"last_trade_time,omitempty"`

	TotalProfitUSD   float64 `json:"total_profit_usd"`
	TradesExecuted   int     `json:"trades_executed"`
	TradesSkipped    int     `json:"trades_skipped"`
	TotalGasFeesUSD  float64 `json:"total_gas_fees_usd"`
	TotalSlippageUSD float64 `json:"total_slippage_usd"`
	TotalCostsUSD    float64 `json:"total_costs_usd"`
}

// ReconciliationCursor marks the last session values successfully flushed to
// the remote stats store. Deltas are computed against it so a flush retry
// resubmits the same numbers instead of double-reporting or losing them.
type ReconciliationCursor struct {
	ProfitUSD   float64 `json:"profit_usd"`
	Trades      int     `json:"trades"`
	GasUSD      float64 `json:"gas_usd"`
	SlippageUSD float64 `json:"slippage_usd"`
}

// StatsDelta is the payload of one stats flush. Only deltas are sent; the
// remote store accumulates them itself.
type StatsDelta struct {
	ProfitUSD   float64 `json:"profit_delta"`
	Trades      int     `json:"trades_delta"`
	GasUSD      float64 `json:"gas_delta"`
	SlippageUSD float64 `json:"slippage_delta"`

	// BestTradeUSD / WorstTradeUSD are coarse estimates derived from the
	// average profit per trade in this delta, not per-trade attribution.
	BestTradeUSD  float64 `json:"best_trade"`
	WorstTradeUSD float64 `json:"worst_trade"`
}

// IsZero reports whether there is anything worth flushing.
func (d StatsDelta) IsZero() bool {
	return d.ProfitUSD == 0 && d.Trades == 0 && d.GasUSD == 0 && d.SlippageUSD == 0
}
