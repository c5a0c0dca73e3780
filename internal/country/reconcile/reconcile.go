// Package reconcile merges raw country records with an exchange-rate table
// into persistable drafts. It is pure apart from the multiplier draw, which
// is injectable so tests can pin it.
package reconcile

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"countryatlas/internal/country"
)

// MultiplierFunc yields one GDP multiplier per call, in [1000, 2000).
// It must be re-drawn per record per refresh, never memoized.
type MultiplierFunc func() decimal.Decimal

// UniformMultiplier is the default multiplier source.
func UniformMultiplier() decimal.Decimal {
	return decimal.NewFromFloat(1000 + rand.Float64()*1000)
}

// Reconciler produces CountryRecord drafts from raw source data.
type Reconciler struct {
	multiplier MultiplierFunc
}

// New builds a Reconciler. A nil multiplier selects UniformMultiplier.
func New(multiplier MultiplierFunc) *Reconciler {
	if multiplier == nil {
		multiplier = UniformMultiplier
	}
	return &Reconciler{multiplier: multiplier}
}

// Reconcile merges each raw record with the rate table, preserving input
// order. Malformed records degrade to defaults instead of failing the batch;
// records without a name cannot be keyed and are skipped.
//
// Derivation per record:
//   - no currency code: exchange_rate null, estimated_gdp exactly 0
//   - code missing from the table: exchange_rate null, estimated_gdp null
//   - otherwise: estimated_gdp = round(population × multiplier / rate, 2)
func (r *Reconciler) Reconcile(raw []country.RawCountry, rates map[string]decimal.Decimal, now time.Time) []country.CountryRecord {
	records := make([]country.CountryRecord, 0, len(raw))
	for _, rc := range raw {
		name := strings.TrimSpace(rc.Name)
		if name == "" {
			continue
		}

		rec := country.CountryRecord{
			Name:            name,
			Capital:         optional(rc.Capital),
			Region:          optional(rc.Region),
			Population:      max(rc.Population, 0),
			FlagURL:         optional(rc.Flag),
			LastRefreshedAt: now,
		}

		code := firstCurrencyCode(rc.Currencies)
		if code == "" {
			// No currency means a defined zero economy, not missing data.
			zero := decimal.Zero
			rec.EstimatedGDP = &zero
			records = append(records, rec)
			continue
		}
		rec.CurrencyCode = &code

		rate, ok := rates[code]
		if !ok || !rate.IsPositive() {
			// Unknown rate: both derived fields stay null, together.
			records = append(records, rec)
			continue
		}

		rec.ExchangeRate = &rate
		gdp := decimal.NewFromInt(rec.Population).Mul(r.multiplier()).Div(rate).Round(2)
		rec.EstimatedGDP = &gdp
		records = append(records, rec)
	}
	return records
}

// firstCurrencyCode returns the upper-cased code of the first currency
// entry. Later entries are deliberately ignored.
func firstCurrencyCode(currencies []country.RawCurrency) string {
	if len(currencies) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(currencies[0].Code))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
