package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"countryatlas/pkg/platform/sentinel"
)

// RatesClient retrieves the USD exchange-rate table from an
// ER-API-compatible source.
type RatesClient struct {
	baseURL string
	client  *http.Client
}

// NewRatesClient builds a client for the given base URL (no trailing slash)
// with the given request timeout.
func NewRatesClient(baseURL string, timeout time.Duration) *RatesClient {
	return &RatesClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type ratesResponse struct {
	Result string                     `json:"result"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

// Latest returns the current currency-code to USD-rate table.
func (c *RatesClient) Latest(ctx context.Context) (map[string]decimal.Decimal, error) {
	url := c.baseURL + "/latest/USD"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: %w: source returned %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("fetch rates: %w: decode: %w", sentinel.ErrUnavailable, err)
	}
	if body.Result != "success" {
		return nil, fmt.Errorf("fetch rates: %w: source result %q", sentinel.ErrUnavailable, body.Result)
	}
	return body.Rates, nil
}
