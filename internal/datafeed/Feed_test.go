package datafeed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

type stubPrices struct {
	prices map[string]float64
	err    error
}

func (s *stubPrices) MarketOverview(ctx context.Context) (map[string]float64, error) {
	return s.prices, s.err
}

type stubBalances struct {
	balances map[string]float64
	err      error
}

func (s *stubBalances) GetBalances(ctx context.Context) (map[string]float64, error) {
	return s.balances, s.err
}

func (s *stubBalances) Withdraw(ctx context.Context, asset string, amount sdkmath.Int, ref string) error {
	return nil
}

func (s *stubBalances) Deposit(ctx context.Context, asset string, amount sdkmath.Int, ref string) error {
	return nil
}

func (s *stubBalances) UpdateStats(ctx context.Context, delta types.StatsDelta) error {
	return nil
}

type recordingSink struct {
	mu       sync.Mutex
	prices   map[string]float64
	balances map[string]float64
	priceSet int
}

func (s *recordingSink) SetPrices(prices map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = prices
	s.priceSet++
}

func (s *recordingSink) SetBalances(balances map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = balances
}

func TestPollPushesBothSources(t *testing.T) {
	sink := &recordingSink{}
	feed := NewFeed(
		&stubPrices{prices: map[string]float64{"APT": 8.5}},
		&stubBalances{balances: map[string]float64{"USDC": 100}},
		sink,
	)

	feed.poll(context.Background())

	assert.InDelta(t, 8.5, sink.prices["APT"], 1e-9)
	assert.InDelta(t, 100, sink.balances["USDC"], 1e-9)
}

func TestPollKeepsLastOnFailure(t *testing.T) {
	sink := &recordingSink{}
	feed := NewFeed(
		&stubPrices{err: errors.New("oracle down")},
		&stubBalances{balances: map[string]float64{"USDC": 100}},
		sink,
	)

	feed.poll(context.Background())

	// Price push skipped, balance push still happens.
	assert.Nil(t, sink.prices)
	assert.InDelta(t, 100, sink.balances["USDC"], 1e-9)
	assert.Equal(t, 0, sink.priceSet)
}

func TestRunStopsOnCancel(t *testing.T) {
	sink := &recordingSink{}
	feed := NewFeed(
		&stubPrices{prices: map[string]float64{"APT": 8.5}},
		&stubBalances{balances: map[string]float64{"USDC": 100}},
		sink,
	)
	feed.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		feed.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("feed did not stop after cancel")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.GreaterOrEqual(t, sink.priceSet, 1)
}
