package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Subho4531/arbigent06-sub000/internal/allocation"
	"github.com/Subho4531/arbigent06-sub000/internal/market"
	"github.com/Subho4531/arbigent06-sub000/internal/oracle"
	"github.com/Subho4531/arbigent06-sub000/internal/types"
	"github.com/Subho4531/arbigent06-sub000/internal/utils"
)

// loop drives cycles until the context is canceled or a cycle demands a halt.
// The first cycle runs immediately, later ones wait a jittered delay so
// multiple agents never hammer the oracle in lockstep.
func (a *Agent) loop(ctx context.Context) {
	defer close(a.done)

	for {
		halt, reason := a.runCycle(ctx)
		if halt {
			a.finalize(reason)
			return
		}

		select {
		case <-ctx.Done():
			a.finalize("stopped by operator")
			return
		case <-time.After(a.nextDelay()):
		}
	}
}

func (a *Agent) nextDelay() time.Duration {
	spread := a.params.CycleDelayMax - a.params.CycleDelayMin
	if spread <= 0 {
		return a.params.CycleDelayMin
	}
	return a.params.CycleDelayMin + time.Duration(rand.Int63n(int64(spread)))
}

// runCycle executes one trading cycle. It returns halt=true with a reason
// when the session must end. Transient collaborator errors never mutate
// session state; the cycle simply ends and the next one retries.
func (a *Agent) runCycle(ctx context.Context) (bool, string) {
	cycleID := uuid.New().String()
	cycleLogger := a.logger.With().Str("cycle_id", cycleID).Logger()

	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return false, ""
	}
	prices := make(map[string]float64, len(a.prices))
	for asset, price := range a.prices {
		prices[asset] = price
	}
	balances := make(map[string]float64, len(a.balances))
	for asset, amount := range a.balances {
		balances[asset] = amount
	}
	lastRoute := a.lastRoute
	a.mu.Unlock()

	cycleLogger.Info().Msg("--- Starting cycle ---")

	route, err := a.selectRoute(ctx, cycleLogger, lastRoute)
	if err != nil {
		// A bad route key is recoverable; a later cycle may select a
		// valid one.
		cycleLogger.Error().Err(err).Msg("Route resolution failed, aborting cycle")
		a.feed.record("error", "Route resolution failed", err.Error())
		return false, ""
	}

	a.mu.Lock()
	a.lastRoute = route.Name
	a.mu.Unlock()

	price := prices[route.FromAsset]
	if price <= 0 {
		cycleLogger.Warn().
			Str("asset", route.FromAsset).
			Msg("No spot price yet, skipping cycle")
		return false, ""
	}

	balance := balances[route.FromAsset]
	if balance <= 0 {
		cycleLogger.Error().
			Str("asset", route.FromAsset).
			Msg("Balance is zero, stopping session")
		a.feed.record("error", "Session stopped", "zero balance for "+route.FromAsset)
		return true, "zero balance for " + route.FromAsset
	}

	availableUSD := balance * price
	if a.cfg.FixedMode() && availableUSD < a.cfg.InvestedAmountUSD {
		cycleLogger.Error().
			Float64("available_usd", availableUSD).
			Float64("invested_usd", a.cfg.InvestedAmountUSD).
			Msg("Balance fell below invested amount, stopping session")
		return true, "balance below invested amount"
	}
	if availableUSD < a.params.DustThresholdUSD {
		cycleLogger.Warn().
			Float64("available_usd", availableUSD).
			Msg("Balance is dust, trades will be negligible")
		a.feed.record("warn", "Dust balance", fmt.Sprintf("%.4f USD on %s", availableUSD, route.FromAsset))
	}

	a.mu.Lock()
	notionalUSD := a.policy.Size(availableUSD)
	a.mu.Unlock()

	if notionalUSD < a.params.MinActionableUSD {
		// Not worth a quote. Counts as an unprofitable cycle so the
		// ladder and failure streak still advance.
		cycleLogger.Info().
			Float64("notional_usd", notionalUSD).
			Msg("Notional below actionable minimum, treating as unprofitable")
		return a.handleUnprofitable(ctx, cycleLogger, route, "notional below minimum")
	}

	quote, err := a.oracle.CheckProfitability(ctx, route, notionalUSD, prices, defaultDexFees)
	if err != nil {
		cycleLogger.Warn().Err(err).Msg("Profitability check failed, no state change")
		a.feed.record("warn", "Oracle unavailable", err.Error())
		return false, ""
	}
	if ctx.Err() != nil {
		return false, ""
	}

	profitable := quote.IsProfitable && quote.ProfitMarginPercent >= a.cfg.MinProfitThreshold
	if !profitable {
		cycleLogger.Info().
			Str("route", route.Name).
			Float64("margin_percent", quote.ProfitMarginPercent).
			Msg("Quote not profitable")
		return a.handleUnprofitable(ctx, cycleLogger, route, fmt.Sprintf("margin %.4f%% on %s", quote.ProfitMarginPercent, route.Name))
	}

	a.executeTrade(ctx, cycleLogger, route, notionalUSD, quote, prices)
	cycleLogger.Info().Msg("--- Cycle completed ---")
	return false, ""
}

// selectRoute resolves the pinned route, or in AUTO mode asks the oracle to
// rank candidates and falls back to simple rotation when discovery yields
// nothing usable.
func (a *Agent) selectRoute(ctx context.Context, cycleLogger zerolog.Logger, lastRoute string) (types.Route, error) {
	if a.cfg.SelectedRoute != market.RouteAuto {
		return market.ResolveRoute(a.cfg.SelectedRoute)
	}

	opportunities, err := a.oracle.FindOpportunities(ctx, a.params.CandidateNotionalUSD, defaultDexFees)
	if err != nil {
		cycleLogger.Warn().Err(err).Msg("Opportunity discovery failed, falling back to rotation")
		return market.NextRoute(lastRoute), nil
	}

	var best *oracle.Opportunity
	for i := range opportunities {
		if !opportunities[i].IsProfitable || opportunities[i].ProfitMarginPercent < a.cfg.MinProfitThreshold {
			continue
		}
		if best == nil || opportunities[i].NetProfitUSD > best.NetProfitUSD {
			best = &opportunities[i]
		}
	}
	if best == nil {
		cycleLogger.Debug().Msg("No opportunities clear the profit threshold, falling back to rotation")
		return market.NextRoute(lastRoute), nil
	}

	route, err := market.ResolveRoute(best.RouteKey)
	if err != nil {
		cycleLogger.Warn().Str("route_key", best.RouteKey).Msg("Discovered route missing from catalog, falling back to rotation")
		return market.NextRoute(lastRoute), nil
	}

	cycleLogger.Info().
		Str("route", route.Name).
		Float64("net_profit_usd", best.NetProfitUSD).
		Msg("Route selected from discovery")
	return route, nil
}

// handleUnprofitable advances the allocation policy after a losing quote and
// maps its outcome to cycle-loop behavior.
func (a *Agent) handleUnprofitable(ctx context.Context, cycleLogger zerolog.Logger, route types.Route, detail string) (bool, string) {
	a.mu.Lock()
	outcome := a.policy.RecordUnprofitable()
	failures := a.policy.ConsecutiveFailures()
	if outcome == allocation.OutcomeRouteExhausted {
		a.stats.TradesSkipped++
	}
	a.mu.Unlock()

	switch outcome {
	case allocation.OutcomeHardStop:
		cycleLogger.Error().
			Int("consecutive_failures", failures).
			Msg("Consecutive failure limit reached, stopping session")
		a.feed.record("error", "Session stopped", fmt.Sprintf("%d consecutive unprofitable cycles", failures))
		return true, fmt.Sprintf("%d consecutive unprofitable cycles", failures)

	case allocation.OutcomeRouteExhausted:
		cycleLogger.Info().
			Str("route", route.Name).
			Msg("Allocation ladder exhausted, trade skipped")
		a.feed.record("info", "Trade skipped", detail)
		a.flushStats(ctx)

	default:
		a.feed.record("info", "Scaling up allocation", detail)
	}
	return false, ""
}

// executeTrade settles a profitable quote: debit the start asset, credit the
// end asset, book the stats, and persist a receipt. Ledger failures on either
// leg are recorded on the receipt but do not abort the trade; reconciliation
// catches the imbalance later.
func (a *Agent) executeTrade(ctx context.Context, cycleLogger zerolog.Logger, route types.Route, notionalUSD float64, quote oracle.Quote, prices map[string]float64) {
	amountSpent := notionalUSD / prices[route.FromAsset]
	toPrice := prices[route.ToAsset]
	if toPrice <= 0 {
		cycleLogger.Warn().
			Str("asset", route.ToAsset).
			Msg("No spot price for receiving asset, aborting trade")
		return
	}
	amountReceived := (notionalUSD + quote.NetProfitUSD) / toPrice

	withdrawRef := newOperationRef()
	depositRef := newOperationRef()

	// Adjust local balances optimistically before settlement so the next
	// cycle sizes against the post-trade view even if the ledger lags. The
	// datafeed overwrites these with the ledger's truth on its next poll.
	a.mu.Lock()
	a.balances[route.FromAsset] -= amountSpent
	if a.balances[route.FromAsset] < 0 {
		a.balances[route.FromAsset] = 0
	}
	a.balances[route.ToAsset] += amountReceived
	a.mu.Unlock()

	withdrawOK := a.settle(ctx, cycleLogger, "withdraw", route.FromAsset, amountSpent, withdrawRef)
	depositOK := a.settle(ctx, cycleLogger, "deposit", route.ToAsset, amountReceived, depositRef)

	now := time.Now().UTC()

	a.mu.Lock()
	a.stats.TotalProfitUSD += quote.NetProfitUSD
	a.stats.TradesExecuted++
	a.stats.TotalGasFeesUSD += quote.GasFeeUSD
	a.stats.TotalSlippageUSD += quote.SlippageUSD
	a.stats.TotalCostsUSD += quote.TotalCostsUSD
	a.stats.LastTradeTime = now
	a.policy.RecordProfitable()
	sessionNumber := a.sessionNumber
	a.mu.Unlock()

	cycleLogger.Info().
		Str("route", route.Name).
		Float64("notional_usd", notionalUSD).
		Float64("net_profit_usd", quote.NetProfitUSD).
		Bool("withdraw_ok", withdrawOK).
		Bool("deposit_ok", depositOK).
		Msg("Trade executed")
	a.feed.record("info", "Trade executed",
		fmt.Sprintf("%s: +%.4f USD on %.2f USD notional", route.Name, quote.NetProfitUSD, notionalUSD))

	receipt := types.TradeReceipt{
		SessionNumber:  sessionNumber,
		Timestamp:      now,
		RouteName:      route.Name,
		FromAsset:      route.FromAsset,
		ToAsset:        route.ToAsset,
		NotionalUSD:    notionalUSD,
		NetProfitUSD:   quote.NetProfitUSD,
		GasFeeUSD:      quote.GasFeeUSD,
		SlippageUSD:    quote.SlippageUSD,
		TotalCostsUSD:  quote.TotalCostsUSD,
		AmountSpent:    amountSpent,
		AmountReceived: amountReceived,
		WithdrawRef:    withdrawRef,
		DepositRef:     depositRef,
		WithdrawOK:     withdrawOK,
		DepositOK:      depositOK,
	}
	if a.recorder != nil {
		if err := a.recorder.RecordTrade(receipt); err != nil {
			cycleLogger.Error().Err(err).Msg("Failed to persist trade receipt")
		}
	}

	a.flushStats(ctx)
}

// settle posts one balance mutation to the ledger, converting the display
// amount to smallest units first. Returns false on any failure.
func (a *Agent) settle(ctx context.Context, cycleLogger zerolog.Logger, op, asset string, amount float64, ref string) bool {
	units, err := utils.ToSmallestUnit(amount, asset)
	if err != nil {
		cycleLogger.Error().Err(err).Str("asset", asset).Msgf("Cannot convert %s amount", op)
		return false
	}
	if units.IsZero() {
		return true
	}

	if op == "withdraw" {
		err = a.ledger.Withdraw(ctx, asset, units, ref)
	} else {
		err = a.ledger.Deposit(ctx, asset, units, ref)
	}
	if err != nil {
		cycleLogger.Error().Err(err).
			Str("asset", asset).
			Str("ref", ref).
			Msgf("Ledger %s failed", op)
		a.feed.record("error", "Settlement leg failed", op+" "+asset+" ref "+ref)
		return false
	}
	return true
}

// newOperationRef produces an idempotent settlement reference of the form
// arb-<unix-millis>-<8 uuid chars>.
func newOperationRef() string {
	return fmt.Sprintf("arb-%d-%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}
