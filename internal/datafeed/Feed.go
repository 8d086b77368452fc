/*
This file contains the background feed that keeps the engine's view of spot
prices and owner balances fresh. The engine never fetches these itself; it
only reads whatever the feed last pushed, so a slow collaborator can delay
data but never stall a trading cycle.
*/

package datafeed

import (
	"context"
	"time"

	"github.com/Subho4531/arbigent06-sub000/internal/ledger"
	"github.com/Subho4531/arbigent06-sub000/internal/logger"
)

var feedLogger = logger.GetForComponent("datafeed")

const POLL_INTERVAL_SECONDS = 10

// PriceSource provides current spot prices keyed by asset symbol.
type PriceSource interface {
	MarketOverview(ctx context.Context) (map[string]float64, error)
}

// Sink receives fresh market data. The engine implements this.
type Sink interface {
	SetPrices(prices map[string]float64)
	SetBalances(balances map[string]float64)
}

// Feed polls the oracle and ledger on a fixed interval and pushes results
// into the sink.
type Feed struct {
	prices   PriceSource
	balances ledger.Service
	sink     Sink
	interval time.Duration
}

// NewFeed builds a feed with the default poll interval.
func NewFeed(prices PriceSource, balances ledger.Service, sink Sink) *Feed {
	return &Feed{
		prices:   prices,
		balances: balances,
		sink:     sink,
		interval: POLL_INTERVAL_SECONDS * time.Second,
	}
}

// Run polls until the context is canceled. The first poll happens
// immediately so the engine has data before its first cycle.
func (f *Feed) Run(ctx context.Context) {
	feedLogger.Info().Dur("interval", f.interval).Msg("Starting data feed")

	f.poll(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			feedLogger.Info().Msg("Data feed stopped")
			return
		case <-ticker.C:
			f.poll(ctx)
		}
	}
}

// poll fetches both sources independently; a failure on one never blocks the
// other, and stale data is simply kept until the next successful poll.
func (f *Feed) poll(ctx context.Context) {
	prices, err := f.prices.MarketOverview(ctx)
	if err != nil {
		feedLogger.Warn().Err(err).Msg("Price poll failed, keeping last prices")
	} else if len(prices) > 0 {
		f.sink.SetPrices(prices)
	}

	balances, err := f.balances.GetBalances(ctx)
	if err != nil {
		feedLogger.Warn().Err(err).Msg("Balance poll failed, keeping last balances")
	} else {
		f.sink.SetBalances(balances)
	}
}
