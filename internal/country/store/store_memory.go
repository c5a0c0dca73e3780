package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"countryatlas/internal/country"
	"countryatlas/pkg/platform/sentinel"
)

// Memory is a mutex-guarded in-memory snapshot store. Records are keyed by
// lower-cased name; the stored record preserves the source's casing.
type Memory struct {
	mu      sync.RWMutex
	records map[string]country.CountryRecord
	meta    country.RefreshMetadata
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]country.CountryRecord)}
}

// BulkUpsert inserts or replaces the batch atomically. Validation runs
// before any mutation so a bad record leaves the store untouched.
func (s *Memory) BulkUpsert(_ context.Context, records []country.CountryRecord) (int, error) {
	if err := validateBatch(records); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		key := strings.ToLower(rec.Name)
		if existing, ok := s.records[key]; ok {
			rec.CreatedAt = existing.CreatedAt
		} else {
			rec.CreatedAt = rec.LastRefreshedAt
		}
		s.records[key] = rec
	}
	return len(records), nil
}

// FindAll returns records matching the filter in the requested order.
func (s *Memory) FindAll(_ context.Context, filter country.Filter, order country.SortOrder) ([]country.CountryRecord, error) {
	s.mu.RLock()
	out := make([]country.CountryRecord, 0, len(s.records))
	for _, rec := range s.records {
		if matches(rec, filter) {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	sortRecords(out, order)
	return out, nil
}

// FindByName looks a record up case-insensitively.
func (s *Memory) FindByName(_ context.Context, name string) (country.CountryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[strings.ToLower(name)]
	if !ok {
		return country.CountryRecord{}, sentinel.ErrNotFound
	}
	return rec, nil
}

// DeleteByName removes a record case-insensitively. A missing name is a
// false result, not an error.
func (s *Memory) DeleteByName(_ context.Context, name string) (bool, error) {
	key := strings.ToLower(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return false, nil
	}
	delete(s.records, key)
	return true, nil
}

// Count returns the total number of stored records.
func (s *Memory) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// Metadata returns the refresh metadata singleton; a zero value before the
// first refresh.
func (s *Memory) Metadata(_ context.Context) (country.RefreshMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta, nil
}

// SetMetadata replaces the refresh metadata singleton.
func (s *Memory) SetMetadata(_ context.Context, total int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = country.RefreshMetadata{TotalCountries: total, LastRefreshedAt: &at}
	return nil
}

func matches(rec country.CountryRecord, filter country.Filter) bool {
	if filter.Region != nil {
		if rec.Region == nil || !strings.EqualFold(*rec.Region, *filter.Region) {
			return false
		}
	}
	if filter.CurrencyCode != nil {
		if rec.CurrencyCode == nil || !strings.EqualFold(*rec.CurrencyCode, *filter.CurrencyCode) {
			return false
		}
	}
	return true
}

// sortRecords orders records per the SortOrder. For gdp orderings, records
// with a null estimated_gdp sort last, then by name ascending; name is also
// the tie-break for equal values.
func sortRecords(records []country.CountryRecord, order country.SortOrder) {
	nameAsc := func(a, b country.CountryRecord) bool {
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch order {
		case country.SortNameDesc:
			return nameAsc(b, a)
		case country.SortPopulationAsc:
			if a.Population != b.Population {
				return a.Population < b.Population
			}
		case country.SortPopulationDesc:
			if a.Population != b.Population {
				return a.Population > b.Population
			}
		case country.SortGDPAsc, country.SortGDPDesc:
			if a.EstimatedGDP == nil && b.EstimatedGDP == nil {
				return nameAsc(a, b)
			}
			if a.EstimatedGDP == nil {
				return false
			}
			if b.EstimatedGDP == nil {
				return true
			}
			if cmp := a.EstimatedGDP.Cmp(*b.EstimatedGDP); cmp != 0 {
				if order == country.SortGDPAsc {
					return cmp < 0
				}
				return cmp > 0
			}
		}
		return nameAsc(a, b)
	})
}
