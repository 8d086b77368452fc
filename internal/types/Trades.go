/*

This file contains the local persistence records: one receipt per executed
trade and one snapshot per Start->Stop session. Both are advisory data for
the dashboard; the remote ledger remains the source of truth.

*/

package types

import "time"

// TradeReceipt records one executed trade and the outcome of the two
// best-effort ledger transfers it triggered.
type TradeReceipt struct {
	ReceiptID     int64     `json:"receipt_id,omitempty"` // auto-incremented by DB
	SessionNumber int       `json:"session_number"`
	Timestamp     time.Time `json:"timestamp"`

	RouteName string `json:"route_name"`
	FromAsset string `json:"from_asset"`
	ToAsset   string `json:"to_asset"`

	NotionalUSD   float64 `json:"notional_usd"`
	NetProfitUSD  float64 `json:"net_profit_usd"`
	GasFeeUSD     float64 `json:"gas_fee_usd"`
	SlippageUSD   float64 `json:"slippage_usd"`
	TotalCostsUSD float64 `json:"total_costs_usd"`

	AmountSpent    float64 `json:"amount_spent"`    // source asset units
	AmountReceived float64 `json:"amount_received"` // destination asset units

	WithdrawRef string `json:"withdraw_ref"`
	DepositRef  string `json:"deposit_ref"`
	WithdrawOK  bool   `json:"withdraw_ok"`
	DepositOK   bool   `json:"deposit_ok"`
}

// SessionSnapshot is the final state of one session, written at Stop.
type SessionSnapshot struct {
	SnapshotID    int64     `json:"snapshot_id,omitempty"`
	SessionNumber int       `json:"session_number"`
	StartedAt     time.Time `json:"started_at"`
	StoppedAt     time.Time `json:"stopped_at"`
	StopReason    string    `json:"stop_reason"`

	TotalProfitUSD   float64 `json:"total_profit_usd"`
	TradesExecuted   int     `json:"trades_executed"`
	TradesSkipped    int     `json:"trades_skipped"`
	TotalGasFeesUSD  float64 `json:"total_gas_fees_usd"`
	TotalSlippageUSD float64 `json:"total_slippage_usd"`
	TotalCostsUSD    float64 `json:"total_costs_usd"`
}
