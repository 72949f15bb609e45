// Package marketdata fetches OHLCV candle history from an external
// market data service and optionally caches it in Redis.
package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/models"
)

// Provider supplies candle history for a symbol and timeframe,
// oldest candle first.
type Provider interface {
	GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
}

// candlesResponse is the wire format of the data service.
type candlesResponse struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Candles   []struct {
		Timestamp int64   `json:"timestamp"`
		Open      float64 `json:"open"`
		High      float64 `json:"high"`
		Low       float64 `json:"low"`
		Close     float64 `json:"close"`
		Volume    float64 `json:"volume"`
	} `json:"candles"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to the market data HTTP service.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

// NewClient creates a provider from config. Timeout falls back to 30s
// when the configured value does not parse.
func NewClient(cfg config.MarketDataConfig) *Client {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		BaseURL: strings.TrimSuffix(cfg.ServiceURL, "/"),
	}
}

// GetCandles fetches up to limit candles and validates the series is in
// ascending time order before returning it.
func (c *Client) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	path := fmt.Sprintf("/api/candles/%s", url.PathEscape(symbol))
	params := url.Values{}
	params.Set("timeframe", timeframe)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path += "?" + params.Encode()

	var response candlesResponse
	if err := c.makeRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(response.Candles))
	for _, raw := range response.Candles {
		candles = append(candles, models.Candle{
			Time:   time.UnixMilli(raw.Timestamp).UTC(),
			Open:   raw.Open,
			High:   raw.High,
			Low:    raw.Low,
			Close:  raw.Close,
			Volume: raw.Volume,
		})
	}

	if !sort.SliceIsSorted(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	}) {
		return nil, fmt.Errorf("market data service returned candles out of time order for %s %s", symbol, timeframe)
	}

	return candles, nil
}

// HealthCheck verifies the data service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.makeRequest(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	reqURL := c.BaseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("market data service error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("market data service error (%d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
