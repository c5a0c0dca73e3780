package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"countryatlas/internal/country"
	"countryatlas/pkg/platform/sentinel"
)

var storeNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func record(name string, population int64, gdp *string) country.CountryRecord {
	rec := country.CountryRecord{
		Name:            name,
		Population:      population,
		LastRefreshedAt: storeNow,
	}
	if gdp != nil {
		d := decimal.RequireFromString(*gdp)
		rec.EstimatedGDP = &d
	}
	return rec
}

func str(s string) *string { return &s }

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) TestUpsertCreateThenUpdate() {
	first := record("Nigeria", 200, str("100.00"))
	_, err := s.store.BulkUpsert(s.ctx, []country.CountryRecord{first})
	require.NoError(s.T(), err)

	created, err := s.store.FindByName(s.ctx, "Nigeria")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), storeNow, created.CreatedAt)

	later := storeNow.Add(time.Hour)
	update := record("nigeria", 210, str("250.00"))
	update.LastRefreshedAt = later
	n, err := s.store.BulkUpsert(s.ctx, []country.CountryRecord{update})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, n)

	got, err := s.store.FindByName(s.ctx, "NIGERIA")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(210), got.Population)
	assert.Equal(s.T(), later, got.LastRefreshedAt)
	assert.Equal(s.T(), storeNow, got.CreatedAt, "created_at survives updates")

	total, err := s.store.Count(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total, "case-variant upsert must not create a second row")
}

func (s *MemoryStoreSuite) TestFindByNameCaseInsensitive() {
	_, err := s.store.BulkUpsert(s.ctx, []country.CountryRecord{record("Nigeria", 200, nil)})
	require.NoError(s.T(), err)

	lower, err := s.store.FindByName(s.ctx, "nigeria")
	require.NoError(s.T(), err)
	upper, err := s.store.FindByName(s.ctx, "NIGERIA")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), lower, upper)
	assert.Equal(s.T(), "Nigeria", lower.Name, "stored casing preserved")
}

func (s *MemoryStoreSuite) TestFindByNameMissing() {
	_, err := s.store.FindByName(s.ctx, "Atlantis")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDelete() {
	_, err := s.store.BulkUpsert(s.ctx, []country.CountryRecord{record("Nigeria", 200, nil)})
	require.NoError(s.T(), err)

	deleted, err := s.store.DeleteByName(s.ctx, "NIGERIA")
	require.NoError(s.T(), err)
	assert.True(s.T(), deleted)

	_, err = s.store.FindByName(s.ctx, "Nigeria")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)

	deleted, err = s.store.DeleteByName(s.ctx, "Nigeria")
	require.NoError(s.T(), err, "deleting an absent name is not an error")
	assert.False(s.T(), deleted)
}

func (s *MemoryStoreSuite) TestBulkUpsertAllOrNothing() {
	_, err := s.store.BulkUpsert(s.ctx, []country.CountryRecord{record("Kenya", 53, nil)})
	require.NoError(s.T(), err)

	batch := []country.CountryRecord{
		record("Ghana", 31, nil),
		record("Broken", -1, nil),
	}
	_, err = s.store.BulkUpsert(s.ctx, batch)
	require.Error(s.T(), err)

	all, err := s.store.FindAll(s.ctx, country.Filter{}, country.SortNameAsc)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 1, "failed batch must leave the pre-refresh state exactly")
	assert.Equal(s.T(), "Kenya", all[0].Name)
}

func (s *MemoryStoreSuite) TestFindAllFilters() {
	africa := str("Africa")
	europe := str("Europe")
	ngn := str("NGN")

	records := []country.CountryRecord{
		{Name: "Nigeria", Region: africa, CurrencyCode: ngn, LastRefreshedAt: storeNow},
		{Name: "Kenya", Region: africa, CurrencyCode: str("KES"), LastRefreshedAt: storeNow},
		{Name: "France", Region: europe, CurrencyCode: str("EUR"), LastRefreshedAt: storeNow},
		{Name: "Atlantis", LastRefreshedAt: storeNow},
	}
	_, err := s.store.BulkUpsert(s.ctx, records)
	require.NoError(s.T(), err)

	byRegion, err := s.store.FindAll(s.ctx, country.Filter{Region: str("africa")}, country.SortNameAsc)
	require.NoError(s.T(), err)
	require.Len(s.T(), byRegion, 2)
	assert.Equal(s.T(), "Kenya", byRegion[0].Name)
	assert.Equal(s.T(), "Nigeria", byRegion[1].Name)

	byCurrency, err := s.store.FindAll(s.ctx, country.Filter{CurrencyCode: str("ngn")}, country.SortNameAsc)
	require.NoError(s.T(), err)
	require.Len(s.T(), byCurrency, 1)
	assert.Equal(s.T(), "Nigeria", byCurrency[0].Name)

	both, err := s.store.FindAll(s.ctx, country.Filter{Region: europe, CurrencyCode: ngn}, country.SortNameAsc)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), both)
}

func (s *MemoryStoreSuite) TestSortOrders() {
	records := []country.CountryRecord{
		record("Beta", 30, str("50.00")),
		record("Alpha", 10, nil),
		record("Delta", 20, str("200.00")),
		record("Gamma", 40, nil),
	}
	_, err := s.store.BulkUpsert(s.ctx, records)
	require.NoError(s.T(), err)

	names := func(recs []country.CountryRecord) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = r.Name
		}
		return out
	}

	gdpDesc, err := s.store.FindAll(s.ctx, country.Filter{}, country.SortGDPDesc)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"Delta", "Beta", "Alpha", "Gamma"}, names(gdpDesc),
		"null GDPs sort last and never interleave")

	gdpAsc, err := s.store.FindAll(s.ctx, country.Filter{}, country.SortGDPAsc)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"Beta", "Delta", "Alpha", "Gamma"}, names(gdpAsc))

	popDesc, err := s.store.FindAll(s.ctx, country.Filter{}, country.SortPopulationDesc)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"Gamma", "Beta", "Delta", "Alpha"}, names(popDesc))

	nameDesc, err := s.store.FindAll(s.ctx, country.Filter{}, country.SortNameDesc)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"Gamma", "Delta", "Beta", "Alpha"}, names(nameDesc))
}

func (s *MemoryStoreSuite) TestMetadata() {
	meta, err := s.store.Metadata(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), meta.TotalCountries)
	assert.Nil(s.T(), meta.LastRefreshedAt, "no refresh has run yet")

	require.NoError(s.T(), s.store.SetMetadata(s.ctx, 250, storeNow))

	meta, err = s.store.Metadata(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(250), meta.TotalCountries)
	require.NotNil(s.T(), meta.LastRefreshedAt)
	assert.Equal(s.T(), storeNow, *meta.LastRefreshedAt)
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}
