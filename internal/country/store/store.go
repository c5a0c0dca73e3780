// Package store provides the snapshot store implementations: an in-memory
// store for development and tests, and the Postgres store for production.
// Both enforce case-insensitive name uniqueness as an explicit invariant
// (normalized key / expression index), not via collation, and both commit a
// bulk upsert all-or-nothing.
package store

import (
	"fmt"
	"strings"

	"countryatlas/internal/country"
)

// validateBatch rejects records a store must never accept. Checked upfront
// so a bad record fails the batch before anything is written.
func validateBatch(records []country.CountryRecord) error {
	for i, rec := range records {
		if strings.TrimSpace(rec.Name) == "" {
			return fmt.Errorf("bulk upsert: record %d: name is required", i)
		}
		if rec.Population < 0 {
			return fmt.Errorf("bulk upsert: record %d (%s): population must be non-negative", i, rec.Name)
		}
	}
	return nil
}
