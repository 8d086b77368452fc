package ledger

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

	sdkmath "cosmossdk.io/math"

	"github.com/Subho4531/arbigent06-sub000/internal/logger"
	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrLedgerUnavailable = errors.New("ledger request failed")
	ErrLedgerRejected    = errors.New("ledger rejected operation")
	ErrInvalidAmount     = errors.New("amount is invalid")
	ErrInvalidReference  = errors.New("operation reference is empty")
)

var ledgerLogger = logger.GetForComponent("ledger_client")

const TIMEOUT_SECONDS = 15

// LiveLedger implements Service against the HTTP settlement API.
type LiveLedger struct {
	baseURL    string
	ownerID    string
	gasLimit   uint64
	httpClient *http.Client
}

// NewLiveLedger builds a settlement client for one owner. The gas limit is
// forwarded on every balance mutation so the backend can enforce it.
func NewLiveLedger(baseURL, ownerID string, gasLimit uint64) *LiveLedger {
	return &LiveLedger{
		baseURL:  baseURL,
		ownerID:  ownerID,
		gasLimit: gasLimit,
		httpClient: &http.Client{
			Timeout: TIMEOUT_SECONDS * time.Second,
		},
	}
}

type balancesResponse struct {
	Status   string            `json:"status"`
	Balances map[string]string `json:"balances"`
}

// GetBalances fetches the owner's balances in display units.
func (l *LiveLedger) GetBalances(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/balances/"+l.ownerID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}

	var resp balancesResponse
	if err := l.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrLedgerRejected, resp.Status)
	}

	balances := make(map[string]float64, len(resp.Balances))
	for asset, raw := range resp.Balances {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			ledgerLogger.Warn().
				Str("asset", asset).
				Str("balance", raw).
				Msg("Skipping asset with invalid balance")
			continue
		}
		balances[asset] = value
	}

	return balances, nil
}

type transferRequest struct {
	OwnerID  string `json:"owner_id"`
	Asset    string `json:"asset"`
	Amount   string `json:"amount"` // smallest units
	Ref      string `json:"ref"`
	GasLimit uint64 `json:"gas_limit"`
}

type transferResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Withdraw debits the owner's balance of an asset.
func (l *LiveLedger) Withdraw(ctx context.Context, asset string, amount sdkmath.Int, ref string) error {
	return l.transfer(ctx, "/withdraw", asset, amount, ref)
}

// Deposit credits the owner's balance of an asset.
func (l *LiveLedger) Deposit(ctx context.Context, asset string, amount sdkmath.Int, ref string) error {
	return l.transfer(ctx, "/deposit", asset, amount, ref)
}

func (l *LiveLedger) transfer(ctx context.Context, path, asset string, amount sdkmath.Int, ref string) error {
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}
	if ref == "" {
		return ErrInvalidReference
	}

	reqBody := transferRequest{
		OwnerID:  l.ownerID,
		Asset:    asset,
		Amount:   amount.String(),
		Ref:      ref,
		GasLimit: l.gasLimit,
	}

	var resp transferResponse
	if err := l.post(ctx, path, reqBody, &resp); err != nil {
		return err
	}
	if resp.Status != "success" {
		return fmt.Errorf("%w: %s: %s", ErrLedgerRejected, resp.Status, resp.Message)
	}

	ledgerLogger.Debug().
		Str("path", path).
		Str("asset", asset).
		Str("amount", amount.String()).
		Str("ref", ref).
		Msg("Transfer acknowledged")

	return nil
}

type statsRequest struct {
	OwnerID       string  `json:"owner_id"`
	ProfitUSD     float64 `json:"profit_usd"`
	Trades        int     `json:"trades"`
	GasUSD        float64 `json:"gas_usd"`
	SlippageUSD   float64 `json:"slippage_usd"`
	BestTradeUSD  float64 `json:"best_trade_usd"`
	WorstTradeUSD float64 `json:"worst_trade_usd"`
}

// UpdateStats posts a stats delta to the backend.
func (l *LiveLedger) UpdateStats(ctx context.Context, delta types.StatsDelta) error {
	reqBody := statsRequest{
		OwnerID:       l.ownerID,
		ProfitUSD:     delta.ProfitUSD,
		Trades:        delta.Trades,
		GasUSD:        delta.GasUSD,
		SlippageUSD:   delta.SlippageUSD,
		BestTradeUSD:  delta.BestTradeUSD,
		WorstTradeUSD: delta.WorstTradeUSD,
	}

	var resp transferResponse
	if err := l.post(ctx, "/stats/update", reqBody, &resp); err != nil {
		return err
	}
	if resp.Status != "success" {
		return fmt.Errorf("%w: %s: %s", ErrLedgerRejected, resp.Status, resp.Message)
	}
	return nil
}

func (l *LiveLedger) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return l.do(req, out)
}

func (l *LiveLedger) do(req *http.Request, out any) error {
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response body: %w", ErrLedgerUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d: %s", ErrLedgerUnavailable, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrLedgerUnavailable, err)
	}
	return nil
}
