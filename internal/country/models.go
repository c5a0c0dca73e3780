// Package country defines the domain model shared by fetchers, the
// reconciler, stores, and the HTTP surface.
package country

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// exchange_rate and estimated_gdp go over the wire as JSON numbers,
	// not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// RawCurrency is one currency descriptor as delivered by the countries
// source. Only the code participates in reconciliation.
type RawCurrency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// RawCountry is the unreconciled shape from the countries source. Missing
// optional fields decode to zero values and are defaulted during
// reconciliation. Never persisted as-is.
type RawCountry struct {
	Name       string        `json:"name"`
	Capital    string        `json:"capital"`
	Region     string        `json:"region"`
	Population int64         `json:"population"`
	Currencies []RawCurrency `json:"currencies"`
	Flag       string        `json:"flag"`
}

// CountryRecord is the persisted entity, keyed by case-insensitive name.
//
// Null/zero policy for the derived fields:
//   - no currencies at the source: CurrencyCode nil, ExchangeRate nil,
//     EstimatedGDP exactly 0 (defined zero economy, not missing data)
//   - code unknown to the rate table: ExchangeRate nil AND EstimatedGDP nil
//   - otherwise both set, EstimatedGDP rounded to 2 decimal places
type CountryRecord struct {
	Name            string           `json:"name"`
	Capital         *string          `json:"capital"`
	Region          *string          `json:"region"`
	Population      int64            `json:"population"`
	CurrencyCode    *string          `json:"currency_code"`
	ExchangeRate    *decimal.Decimal `json:"exchange_rate"`
	EstimatedGDP    *decimal.Decimal `json:"estimated_gdp"`
	FlagURL         *string          `json:"flag_url"`
	LastRefreshedAt time.Time        `json:"last_refreshed_at"`
	CreatedAt       time.Time        `json:"created_at"`
}

// RefreshMetadata is the singleton describing the last successful refresh.
// LastRefreshedAt is nil until the first refresh commits.
type RefreshMetadata struct {
	TotalCountries  int64      `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

// Filter narrows FindAll results. Nil fields match everything; matching is
// case-insensitive.
type Filter struct {
	Region       *string
	CurrencyCode *string
}

// SortOrder enumerates the supported orderings for FindAll.
type SortOrder string

const (
	SortNameAsc        SortOrder = "name_asc"
	SortNameDesc       SortOrder = "name_desc"
	SortGDPAsc         SortOrder = "gdp_asc"
	SortGDPDesc        SortOrder = "gdp_desc"
	SortPopulationAsc  SortOrder = "population_asc"
	SortPopulationDesc SortOrder = "population_desc"
)

// ParseSort maps a query-string token to a SortOrder. Unrecognized tokens
// fall back to name_asc rather than erroring.
func ParseSort(raw string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case SortNameDesc:
		return SortNameDesc
	case SortGDPAsc:
		return SortGDPAsc
	case SortGDPDesc:
		return SortGDPDesc
	case SortPopulationAsc:
		return SortPopulationAsc
	case SortPopulationDesc:
		return SortPopulationDesc
	default:
		return SortNameAsc
	}
}
