package oracle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

var testDexFees = map[string]float64{"liquidswap": 0.3, "pancakeswap": 0.3}

var testRoute = types.Route{
	Name:       "USDC_USDT",
	FromAsset:  "USDC",
	MidAsset:   "APT",
	ToAsset:    "USDT",
	OracleFrom: "usdc",
	OracleTo:   "usdt",
}

func TestCheckProfitability(t *testing.T) {
	var captured profitabilityRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/arbitrage/isprofitable", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"profitability": {
				"is_profitable": true,
				"profit_margin_percent": 0.42,
				"net_profit_usd": 4.2,
				"gross_profit_usd": 6.0,
				"total_costs_usd": 1.8
			},
			"charges": {
				"gas_fees": {"total_gas_cost_usd": 1.1},
				"slippage": {"estimated_slippage_percent": 0.05, "estimated_slippage_cost_usd": 0.5},
				"total_costs": {"total_fees_usd": 1.8}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	quote, err := client.CheckProfitability(context.Background(), testRoute, 1000, map[string]float64{"apt": 8.5}, testDexFees)
	require.NoError(t, err)

	assert.Equal(t, "usdc", captured.FromToken)
	assert.Equal(t, "usdt", captured.ToToken)
	assert.InDelta(t, 1000, captured.TradeAmount, 1e-9)
	require.Len(t, captured.CurrentPrices, 1)
	assert.Equal(t, "8.5", captured.CurrentPrices[0]["apt"])
	assert.Equal(t, testDexFees, captured.DexFees)

	assert.True(t, quote.IsProfitable)
	assert.InDelta(t, 4.2, quote.NetProfitUSD, 1e-9)
	assert.InDelta(t, 1.1, quote.GasFeeUSD, 1e-9)
	assert.InDelta(t, 0.5, quote.SlippageUSD, 1e-9)
	assert.InDelta(t, 1.8, quote.TotalCostsUSD, 1e-9)
}

func TestCheckProfitabilityErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CheckProfitability(context.Background(), testRoute, 1000, nil, testDexFees)
	require.ErrorIs(t, err, ErrOracleStatus)
}

func TestCheckProfitabilityHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CheckProfitability(context.Background(), testRoute, 1000, nil, testDexFees)
	require.ErrorIs(t, err, ErrOracleUnavailable)
}

func TestFindOpportunities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/arbitrage/possibilities", r.URL.Path)
		w.Write([]byte(`{
			"status": "success",
			"opportunities": {
				"top_opportunities": [
					{
						"route": {"from_pair": "usdt_apt", "to_pair": "usdc_apt"},
						"profitability": {"net_profit_usd": 3.1, "profit_margin_percent": 0.31}
					},
					{
						"route": {"from_pair": "eth_apt", "to_pair": "usdc_apt"},
						"profitability": {"net_profit_usd": 9.9, "profit_margin_percent": 0.99}
					},
					{
						"route": {"from_pair": "apt_usdc", "to_pair": "apt_usdt"},
						"profitability": {"net_profit_usd": 1.2, "profit_margin_percent": 0.12}
					}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	opportunities, err := client.FindOpportunities(context.Background(), 1000, testDexFees)
	require.NoError(t, err)

	// The unknown eth_apt combination is dropped, order is preserved.
	require.Len(t, opportunities, 2)
	assert.Equal(t, "USDT_USDC", opportunities[0].RouteKey)
	assert.InDelta(t, 3.1, opportunities[0].NetProfitUSD, 1e-9)
	assert.Equal(t, "APT_USDT", opportunities[1].RouteKey)
}

func TestDexFeesSerializeAsVenueMap(t *testing.T) {
	// The oracle models dex_fees as a dict keyed by venue name and rejects a
	// bare rate, so the wire shape is load-bearing for every quote.
	var rawBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		rawBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.Write([]byte(`{"status": "success", "opportunities": {"top_opportunities": []}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FindOpportunities(context.Background(), 1000, testDexFees)
	require.NoError(t, err)

	var wire struct {
		DexFees map[string]float64 `json:"dex_fees"`
	}
	require.NoError(t, json.Unmarshal(rawBody, &wire))
	assert.Equal(t, testDexFees, wire.DexFees)
}

func TestMarketOverview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/market/overview", r.URL.Path)
		w.Write([]byte(`{
			"status": "success",
			"chains": [
				{"chain": "aptos", "current_price": "8.52"},
				{"chain": "usdc", "current_price": "1.0001"},
				{"chain": "usdt", "current_price": "not-a-number"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	prices, err := client.MarketOverview(context.Background())
	require.NoError(t, err)

	require.Len(t, prices, 2)
	assert.InDelta(t, 8.52, prices["APT"], 1e-9)
	assert.InDelta(t, 1.0001, prices["USDC"], 1e-9)
	_, ok := prices["USDT"]
	assert.False(t, ok)
}
