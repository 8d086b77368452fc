// ./internal/state/trade_store.go
package state

import (
	"fmt"

	"github.com/Subho4531/arbigent06-sub000/internal/types"
	"github.com/rs/zerolog/log"
)

// SaveTradeReceipt persists a single trade receipt.
func SaveTradeReceipt(receipt types.TradeReceipt) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO trade_receipts (
			session_number, executed_at,
			route_name, from_asset, to_asset,
			notional_usd, net_profit_usd, gas_fee_usd, slippage_usd, total_costs_usd,
			amount_spent, amount_received,
			withdraw_ref, deposit_ref, withdraw_ok, deposit_ok
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`

	_, err := DB.Exec(
		query,
		receipt.SessionNumber, receipt.Timestamp,
		receipt.RouteName, receipt.FromAsset, receipt.ToAsset,
		receipt.NotionalUSD, receipt.NetProfitUSD, receipt.GasFeeUSD, receipt.SlippageUSD, receipt.TotalCostsUSD,
		receipt.AmountSpent, receipt.AmountReceived,
		receipt.WithdrawRef, receipt.DepositRef, receipt.WithdrawOK, receipt.DepositOK,
	)
	if err != nil {
		return fmt.Errorf("failed to save trade receipt: %w", err)
	}

	log.Debug().
		Int("session", receipt.SessionNumber).
		Str("route", receipt.RouteName).
		Msg("Saved trade receipt")

	return nil
}

// GetTradeReceipts returns the most recent trade receipts, newest first.
func GetTradeReceipts(limit int) ([]types.TradeReceipt, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT receipt_id, session_number, executed_at,
		       route_name, from_asset, to_asset,
		       notional_usd, net_profit_usd, gas_fee_usd, slippage_usd, total_costs_usd,
		       amount_spent, amount_received,
		       withdraw_ref, deposit_ref, withdraw_ok, deposit_ok
		FROM trade_receipts
		ORDER BY executed_at DESC
		LIMIT $1;
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade receipts: %w", err)
	}
	defer rows.Close()

	var receipts []types.TradeReceipt
	for rows.Next() {
		var r types.TradeReceipt
		err := rows.Scan(
			&r.ReceiptID, &r.SessionNumber, &r.Timestamp,
			&r.RouteName, &r.FromAsset, &r.ToAsset,
			&r.NotionalUSD, &r.NetProfitUSD, &r.GasFeeUSD, &r.SlippageUSD, &r.TotalCostsUSD,
			&r.AmountSpent, &r.AmountReceived,
			&r.WithdrawRef, &r.DepositRef, &r.WithdrawOK, &r.DepositOK,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade receipts: %w", err)
	}

	return receipts, nil
}
