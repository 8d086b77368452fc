// ./internal/state/session_store.go
package state

import (
	"fmt"

	"github.com/Subho4531/arbigent06-sub000/internal/types"
	"github.com/rs/zerolog/log"
)

// SaveSessionSnapshot persists a completed session's final accounting.
func SaveSessionSnapshot(snapshot types.SessionSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO session_snapshots (
			session_number, started_at, stopped_at, stop_reason,
			total_profit_usd, trades_executed, trades_skipped,
			total_gas_fees_usd, total_slippage_usd, total_costs_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err := DB.QueryRow(
		query,
		snapshot.SessionNumber, snapshot.StartedAt, snapshot.StoppedAt, snapshot.StopReason,
		snapshot.TotalProfitUSD, snapshot.TradesExecuted, snapshot.TradesSkipped,
		snapshot.TotalGasFeesUSD, snapshot.TotalSlippageUSD, snapshot.TotalCostsUSD,
	).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save session snapshot: %w", err)
	}

	log.Info().
		Int64("snapshotId", snapshotID).
		Int("session", snapshot.SessionNumber).
		Str("stopReason", snapshot.StopReason).
		Msg("Saved session snapshot")

	return snapshotID, nil
}

// GetSessionSnapshots returns the most recent session snapshots, newest first.
func GetSessionSnapshots(limit int) ([]types.SessionSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT snapshot_id, session_number, started_at, stopped_at, stop_reason,
		       total_profit_usd, trades_executed, trades_skipped,
		       total_gas_fees_usd, total_slippage_usd, total_costs_usd
		FROM session_snapshots
		ORDER BY session_number DESC
		LIMIT $1;
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []types.SessionSnapshot
	for rows.Next() {
		var s types.SessionSnapshot
		err := rows.Scan(
			&s.SnapshotID, &s.SessionNumber, &s.StartedAt, &s.StoppedAt, &s.StopReason,
			&s.TotalProfitUSD, &s.TradesExecuted, &s.TradesSkipped,
			&s.TotalGasFeesUSD, &s.TotalSlippageUSD, &s.TotalCostsUSD,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session snapshots: %w", err)
	}

	return snapshots, nil
}
