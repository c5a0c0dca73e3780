package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countryatlas/internal/audit"
	"countryatlas/internal/country"
	"countryatlas/internal/country/reconcile"
	"countryatlas/internal/country/store"
	"countryatlas/internal/platform/metrics"
	dErrors "countryatlas/pkg/domain-errors"
	"countryatlas/pkg/platform/sentinel"
	"countryatlas/pkg/requestcontext"
)

var serviceNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

type stubCountries struct {
	raw []country.RawCountry
	err error
}

func (s *stubCountries) FetchAll(context.Context) ([]country.RawCountry, error) {
	return s.raw, s.err
}

type stubRates struct {
	rates map[string]decimal.Decimal
	err   error
}

func (s *stubRates) Latest(context.Context) (map[string]decimal.Decimal, error) {
	return s.rates, s.err
}

type failingArtifacts struct{}

func (failingArtifacts) Save(context.Context, []byte) error { return errors.New("disk full") }
func (failingArtifacts) Latest(context.Context) ([]byte, error) {
	return nil, sentinel.ErrNotFound
}

type capturingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *capturingAudit) Publish(_ context.Context, event audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *capturingAudit) Close() {}

func (a *capturingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.events))
	for i, e := range a.events {
		out[i] = e.Action
	}
	return out
}

func fixedMultiplier(v string) reconcile.MultiplierFunc {
	return func() decimal.Decimal { return decimal.RequireFromString(v) }
}

func rawNigeria() country.RawCountry {
	return country.RawCountry{
		Name:       "Nigeria",
		Capital:    "Abuja",
		Region:     "Africa",
		Population: 206139589,
		Currencies: []country.RawCurrency{{Code: "NGN"}},
	}
}

func rawAtlantis() country.RawCountry {
	return country.RawCountry{Name: "Atlantis", Population: 1000}
}

func ngnRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{"NGN": decimal.RequireFromString("1600.23")}
}

type serviceFixture struct {
	svc       *Service
	store     *store.Memory
	countries *stubCountries
	rates     *stubRates
	audit     *capturingAudit
}

func newFixture(t *testing.T, mutate func(*Config)) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store:     store.NewMemory(),
		countries: &stubCountries{raw: []country.RawCountry{rawNigeria(), rawAtlantis()}},
		rates:     &stubRates{rates: ngnRates()},
		audit:     &capturingAudit{},
	}
	cfg := Config{
		Store:      f.store,
		Countries:  f.countries,
		Rates:      f.rates,
		Reconciler: reconcile.New(fixedMultiplier("1500")),
		Audit:      f.audit,
		Metrics:    metrics.New(prometheus.NewRegistry()),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	f.svc = New(cfg)
	return f
}

func pinnedCtx() context.Context {
	return requestcontext.WithTime(context.Background(), serviceNow)
}

func TestRefreshHappyPath(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.svc.Refresh(pinnedCtx())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, int64(2), result.Meta.TotalCountries)
	require.NotNil(t, result.Meta.LastRefreshedAt)
	assert.Equal(t, serviceNow, *result.Meta.LastRefreshedAt)
	assert.Empty(t, result.Warning)

	nigeria, err := f.store.FindByName(context.Background(), "nigeria")
	require.NoError(t, err)
	require.NotNil(t, nigeria.ExchangeRate)
	require.NotNil(t, nigeria.EstimatedGDP)

	atlantis, err := f.store.FindByName(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, atlantis.CurrencyCode)
	require.NotNil(t, atlantis.EstimatedGDP)
	assert.True(t, atlantis.EstimatedGDP.IsZero())

	image, err := f.svc.SummaryImage(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(image), "Nigeria")

	assert.Equal(t, []string{audit.ActionRefreshCompleted}, f.audit.actions())
}

func TestRefreshCountriesSourceDownAbortsBeforePersist(t *testing.T) {
	f := newFixture(t, nil)
	f.countries.err = sentinel.ErrUnavailable

	_, err := f.svc.Refresh(pinnedCtx())
	require.Error(t, err)

	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, dErrors.CodeUnavailable, de.Code)
	assert.Equal(t, "External data source unavailable", de.Message)

	total, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), total, "no partial snapshot on fetch failure")

	_, err = f.svc.SummaryImage(context.Background())
	require.Error(t, err, "no render on failed refresh")
	assert.Empty(t, f.audit.actions())
}

func TestRefreshRatesSourceDownAbortsBeforePersist(t *testing.T) {
	f := newFixture(t, nil)
	f.rates.err = errors.New("fetch rates: timeout")

	_, err := f.svc.Refresh(pinnedCtx())
	require.Error(t, err)

	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, dErrors.CodeUnavailable, de.Code)

	total, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestRefreshRenderFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, func(cfg *Config) {
		cfg.Artifacts = failingArtifacts{}
	})

	result, err := f.svc.Refresh(pinnedCtx())
	require.NoError(t, err, "refresh has already committed when rendering fails")
	assert.Equal(t, WarningSummaryRender, result.Warning)
	assert.Equal(t, 2, result.Processed)

	total, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestRefreshMetadataCountsWholeStore(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Refresh(pinnedCtx())
	require.NoError(t, err)

	// The second fetch no longer includes Atlantis; the stale row persists
	// untouched and still counts toward the total.
	f.countries.raw = []country.RawCountry{rawNigeria()}
	result, err := f.svc.Refresh(pinnedCtx())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, int64(2), result.Meta.TotalCountries)

	_, err = f.store.FindByName(context.Background(), "Atlantis")
	assert.NoError(t, err, "refresh never auto-deletes stale records")
}

func TestRefreshIdempotentNamesAndNullness(t *testing.T) {
	f := newFixture(t, func(cfg *Config) {
		// Real randomness: GDP values may differ across runs, the
		// null-ness pattern must not.
		cfg.Reconciler = reconcile.New(nil)
	})

	snapshot := func() map[string][2]bool {
		all, err := f.store.FindAll(context.Background(), country.Filter{}, country.SortNameAsc)
		require.NoError(t, err)
		out := make(map[string][2]bool, len(all))
		for _, rec := range all {
			out[rec.Name] = [2]bool{rec.ExchangeRate != nil, rec.EstimatedGDP != nil}
		}
		return out
	}

	_, err := f.svc.Refresh(pinnedCtx())
	require.NoError(t, err)
	first := snapshot()

	_, err = f.svc.Refresh(pinnedCtx())
	require.NoError(t, err)
	second := snapshot()

	assert.Equal(t, first, second)
}

func TestGetMapsNotFound(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Get(context.Background(), "Atlantis")
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, dErrors.CodeNotFound, de.Code)
	assert.Equal(t, "Country not found", de.Message)
}

func TestGetRequiresName(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Get(context.Background(), "   ")
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, dErrors.CodeBadRequest, de.Code)
}

func TestDeletePublishesAuditEvent(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Refresh(pinnedCtx())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(pinnedCtx(), "NIGERIA"))
	assert.Contains(t, f.audit.actions(), audit.ActionCountryDeleted)

	err = f.svc.Delete(pinnedCtx(), "NIGERIA")
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, dErrors.CodeNotFound, de.Code)
}

func TestStatusBeforeAndAfterRefresh(t *testing.T) {
	f := newFixture(t, nil)

	meta, err := f.svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), meta.TotalCountries)
	assert.Nil(t, meta.LastRefreshedAt)

	_, err = f.svc.Refresh(pinnedCtx())
	require.NoError(t, err)

	meta, err = f.svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.TotalCountries)
	require.NotNil(t, meta.LastRefreshedAt)
}

func TestSummaryImageBeforeFirstRefresh(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.SummaryImage(context.Background())
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, dErrors.CodeNotFound, de.Code)
	assert.Equal(t, "Summary image not found", de.Message)
}
