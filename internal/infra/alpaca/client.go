package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"tradingbot_go/internal/domain"
	"tradingbot_go/internal/infra"
)

// Client is the Alpaca Trading REST API client (Boundary Layer)
type Client struct {
	baseURL    string
	keyID      string
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.Brokerage = (*Client)(nil)

// NewClient creates a new Alpaca API client.
func NewClient(cfg *infra.Config) *Client {
	return &Client{
		baseURL:   cfg.Alpaca.BaseURL,
		keyID:     cfg.Alpaca.KeyID,
		secretKey: cfg.Alpaca.SecretKey,
		httpClient: &http.Client{
			// Bounds the single outbound call per webhook request; a timeout
			// surfaces as a broker error, never a hung request.
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: slog.Default().With("module", "alpaca_client"),
	}
}

// SubmitMarketOrder places a market order via POST /v2/orders.
func (c *Client) SubmitMarketOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderAck, error) {
	reqBody := createOrderRequest{
		Symbol:        req.Symbol,
		Qty:           req.Qty.String(),
		Side:          string(req.Side),
		Type:          "market",
		TimeInForce:   req.TimeInForce,
		ClientOrderID: req.ClientOrderID,
	}

	resp, err := c.doRequest(ctx, "POST", "/v2/orders", reqBody)
	if err != nil {
		return nil, fmt.Errorf("alpaca submit order failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiErrorFrom(resp.StatusCode, bodyBytes)
	}

	var order orderResponse
	if err := json.Unmarshal(bodyBytes, &order); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}

	c.logger.Info("Order submitted",
		"order_id", order.ID, "symbol", order.Symbol, "status", order.Status)

	return &domain.OrderAck{
		OrderID:       order.ID,
		ClientOrderID: order.ClientOrderID,
		Status:        order.Status,
	}, nil
}

// ClosePosition liquidates the entire position via DELETE /v2/positions/{symbol}.
func (c *Client) ClosePosition(ctx context.Context, symbol string) error {
	path := "/v2/positions/" + url.PathEscape(symbol)

	resp, err := c.doRequest(ctx, "DELETE", path, nil)
	if err != nil {
		return fmt.Errorf("alpaca close position failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	// 207 Multi-Status: Alpaca returns per-order results for a bulk close.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiErrorFrom(resp.StatusCode, bodyBytes)
	}

	c.logger.Info("Position closed", "symbol", symbol)
	return nil
}

// GetAccount fetches the trading account. Used as a startup credential probe
// and never on the webhook hotpath.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	resp, err := c.doRequest(ctx, "GET", "/v2/account", nil)
	if err != nil {
		return nil, fmt.Errorf("alpaca account fetch failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, apiErrorFrom(resp.StatusCode, bodyBytes)
	}

	var acct Account
	if err := json.Unmarshal(bodyBytes, &acct); err != nil {
		return nil, fmt.Errorf("failed to parse account response: %w", err)
	}
	return &acct, nil
}

// apiErrorFrom converts a non-2xx Alpaca response into an error carrying the
// brokerage's own message text (surfaced verbatim to operators).
func apiErrorFrom(status int, body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("alpaca api error: status=%d message=%s", status, apiErr.Message)
	}
	return fmt.Errorf("alpaca api error: status=%d body=%s", status, string(body))
}

// doRequest handles auth headers and serialization
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader

	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("APCA-API-KEY-ID", c.keyID)
	req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}
