/*
This file contains the HTTP client for the pricing oracle service.

The oracle quotes triangular routes by their outer pair and needs the current
spot prices forwarded with every profitability request, so the client carries
whatever price snapshot the caller last observed.
*/

package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Subho4531/arbigent06-sub000/internal/logger"
	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

var oracleLogger = logger.GetForComponent("oracle_client")

var (
	ErrOracleUnavailable = errors.New("oracle request failed")
	ErrOracleStatus      = errors.New("oracle returned non-success status")
)

const TIMEOUT_SECONDS = 15

// Client talks to the pricing oracle over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an oracle client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: TIMEOUT_SECONDS * time.Second,
		},
	}
}

type profitabilityRequest struct {
	FromToken     string              `json:"from_token"`
	ToToken       string              `json:"to_token"`
	TradeAmount   float64             `json:"trade_amount"`
	CurrentPrices []map[string]string `json:"current_prices"`
	DexFees       map[string]float64  `json:"dex_fees"`
}

type profitabilityResponse struct {
	Status        string `json:"status"`
	Profitability struct {
		IsProfitable        bool    `json:"is_profitable"`
		ProfitMarginPercent float64 `json:"profit_margin_percent"`
		NetProfitUSD        float64 `json:"net_profit_usd"`
		GrossProfitUSD      float64 `json:"gross_profit_usd"`
		TotalCostsUSD       float64 `json:"total_costs_usd"`
	} `json:"profitability"`
	Charges struct {
		GasFees struct {
			TotalGasCostUSD float64 `json:"total_gas_cost_usd"`
		} `json:"gas_fees"`
		Slippage struct {
			EstimatedSlippagePercent float64 `json:"estimated_slippage_percent"`
			EstimatedSlippageCostUSD float64 `json:"estimated_slippage_cost_usd"`
		} `json:"slippage"`
		TotalCosts struct {
			TotalFeesUSD float64 `json:"total_fees_usd"`
		} `json:"total_costs"`
	} `json:"charges"`
}

// Quote is the distilled result of a profitability check.
type Quote struct {
	IsProfitable        bool
	ProfitMarginPercent float64
	NetProfitUSD        float64
	GrossProfitUSD      float64
	GasFeeUSD           float64
	SlippagePercent     float64
	SlippageUSD         float64
	TotalCostsUSD       float64
}

// CheckProfitability asks the oracle whether a trade of notionalUSD along the
// route would clear costs, forwarding the latest observed spot prices. The
// dexFees map names each venue and its swap fee in percent; the oracle treats
// a missing map as zero fees and quotes nothing across unnamed venues.
func (c *Client) CheckProfitability(ctx context.Context, route types.Route, notionalUSD float64, prices map[string]float64, dexFees map[string]float64) (Quote, error) {
	reqBody := profitabilityRequest{
		FromToken:   route.OracleFrom,
		ToToken:     route.OracleTo,
		TradeAmount: notionalUSD,
		DexFees:     dexFees,
	}
	for token, price := range prices {
		reqBody.CurrentPrices = append(reqBody.CurrentPrices, map[string]string{
			token: strconv.FormatFloat(price, 'f', -1, 64),
		})
	}

	var resp profitabilityResponse
	if err := c.post(ctx, "/arbitrage/isprofitable", reqBody, &resp); err != nil {
		return Quote{}, err
	}
	if resp.Status != "success" {
		return Quote{}, fmt.Errorf("%w: %s", ErrOracleStatus, resp.Status)
	}

	quote := Quote{
		IsProfitable:        resp.Profitability.IsProfitable,
		ProfitMarginPercent: resp.Profitability.ProfitMarginPercent,
		NetProfitUSD:        resp.Profitability.NetProfitUSD,
		GrossProfitUSD:      resp.Profitability.GrossProfitUSD,
		GasFeeUSD:           resp.Charges.GasFees.TotalGasCostUSD,
		SlippagePercent:     resp.Charges.Slippage.EstimatedSlippagePercent,
		SlippageUSD:         resp.Charges.Slippage.EstimatedSlippageCostUSD,
		TotalCostsUSD:       resp.Profitability.TotalCostsUSD,
	}

	oracleLogger.Debug().
		Str("route", route.Name).
		Float64("notional_usd", notionalUSD).
		Bool("profitable", quote.IsProfitable).
		Float64("net_profit_usd", quote.NetProfitUSD).
		Msg("Profitability quote received")

	return quote, nil
}

type possibilitiesRequest struct {
	TradeAmount float64            `json:"trade_amount"`
	DexFees     map[string]float64 `json:"dex_fees"`
}

type possibilitiesResponse struct {
	Status        string `json:"status"`
	Opportunities struct {
		TopOpportunities []struct {
			Route struct {
				FromPair string `json:"from_pair"`
				ToPair   string `json:"to_pair"`
			} `json:"route"`
			Profitability struct {
				IsProfitable        bool    `json:"is_profitable"`
				NetProfitUSD        float64 `json:"net_profit_usd"`
				ProfitMarginPercent float64 `json:"profit_margin_percent"`
			} `json:"profitability"`
		} `json:"top_opportunities"`
	} `json:"opportunities"`
}

// Opportunity is a discovered route candidate ranked by the oracle.
type Opportunity struct {
	RouteKey            string
	IsProfitable        bool
	NetProfitUSD        float64
	ProfitMarginPercent float64
}

// pairComboToRoute maps the oracle's (from_pair, to_pair) combinations onto
// catalog route keys. The oracle names pairs base-first, the catalog names
// routes by their start and end assets.
var pairComboToRoute = map[[2]string]string{
	{"usdc_apt", "usdt_apt"}: "USDC_USDT",
	{"usdt_apt", "usdc_apt"}: "USDT_USDC",
	{"apt_usdc", "apt_usdt"}: "APT_USDT",
	{"apt_usdt", "apt_usdc"}: "APT_USDC",
}

// FindOpportunities asks the oracle to rank every viable route at the given
// notional. The dexFees map must name the venues to search across; the oracle
// enumerates nothing without them. Opportunities whose pair combination has no
// catalog route are dropped with a warning rather than failing the whole
// discovery.
func (c *Client) FindOpportunities(ctx context.Context, notionalUSD float64, dexFees map[string]float64) ([]Opportunity, error) {
	reqBody := possibilitiesRequest{
		TradeAmount: notionalUSD,
		DexFees:     dexFees,
	}

	var resp possibilitiesResponse
	if err := c.post(ctx, "/arbitrage/possibilities", reqBody, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrOracleStatus, resp.Status)
	}

	var opportunities []Opportunity
	for _, raw := range resp.Opportunities.TopOpportunities {
		routeKey, ok := pairComboToRoute[[2]string{raw.Route.FromPair, raw.Route.ToPair}]
		if !ok {
			oracleLogger.Warn().
				Str("from_pair", raw.Route.FromPair).
				Str("to_pair", raw.Route.ToPair).
				Msg("Skipping opportunity with unknown pair combination")
			continue
		}
		opportunities = append(opportunities, Opportunity{
			RouteKey:            routeKey,
			IsProfitable:        raw.Profitability.IsProfitable,
			NetProfitUSD:        raw.Profitability.NetProfitUSD,
			ProfitMarginPercent: raw.Profitability.ProfitMarginPercent,
		})
	}

	oracleLogger.Debug().
		Int("count", len(opportunities)).
		Msg("Opportunity discovery completed")

	return opportunities, nil
}

type marketOverviewResponse struct {
	Status string `json:"status"`
	Chains []struct {
		Chain        string `json:"chain"`
		CurrentPrice string `json:"current_price"`
	} `json:"chains"`
}

// MarketOverview fetches current spot prices for every chain the oracle
// tracks, keyed by uppercase asset symbol. Chains with unparseable prices are
// skipped with a warning.
func (c *Client) MarketOverview(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/market/overview", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}

	var resp marketOverviewResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrOracleStatus, resp.Status)
	}

	prices := make(map[string]float64, len(resp.Chains))
	for _, chain := range resp.Chains {
		price, err := strconv.ParseFloat(chain.CurrentPrice, 64)
		if err != nil || price <= 0 {
			oracleLogger.Warn().
				Str("chain", chain.Chain).
				Str("current_price", chain.CurrentPrice).
				Msg("Skipping chain with invalid price")
			continue
		}
		prices[normalizeSymbol(chain.Chain)] = price
	}

	return prices, nil
}

func normalizeSymbol(chain string) string {
	switch chain {
	case "aptos", "APT", "apt":
		return "APT"
	case "usdc", "USDC":
		return "USDC"
	case "usdt", "USDT":
		return "USDT"
	}
	return chain
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response body: %w", ErrOracleUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d: %s", ErrOracleUnavailable, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrOracleUnavailable, err)
	}
	return nil
}
