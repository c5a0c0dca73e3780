// Package fetch implements the two external-source clients. Both carry an
// explicit timeout; a slow source fails the fetch rather than hanging a
// refresh. Failures wrap sentinel.ErrUnavailable so the orchestrator can
// classify them without inspecting transport details.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"countryatlas/internal/country"
	"countryatlas/pkg/platform/sentinel"
)

const countriesFields = "name,capital,region,population,currencies,flag"

// CountriesClient retrieves the full raw country list from a
// REST-Countries-compatible source.
type CountriesClient struct {
	baseURL string
	client  *http.Client
}

// NewCountriesClient builds a client for the given base URL (no trailing
// slash) with the given request timeout.
func NewCountriesClient(baseURL string, timeout time.Duration) *CountriesClient {
	return &CountriesClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchAll returns every country the source knows about, in source order.
func (c *CountriesClient) FetchAll(ctx context.Context) ([]country.RawCountry, error) {
	url := fmt.Sprintf("%s/all?fields=%s", c.baseURL, countriesFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch countries: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch countries: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch countries: %w: source returned %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var raw []country.RawCountry
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("fetch countries: %w: decode: %w", sentinel.ErrUnavailable, err)
	}
	return raw, nil
}
