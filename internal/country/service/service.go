// Package service holds the application core: the refresh orchestrator and
// the read/delete operations the HTTP surface delegates to. Collaborators
// are consumed through interfaces so stores and sources swap freely in
// tests.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"countryatlas/internal/audit"
	"countryatlas/internal/country"
	"countryatlas/internal/country/reconcile"
	"countryatlas/internal/platform/metrics"
	"countryatlas/internal/summary"
	dErrors "countryatlas/pkg/domain-errors"
	"countryatlas/pkg/platform/sentinel"
	"countryatlas/pkg/requestcontext"
)

// Store is the snapshot store contract the service depends on.
type Store interface {
	BulkUpsert(ctx context.Context, records []country.CountryRecord) (int, error)
	FindAll(ctx context.Context, filter country.Filter, order country.SortOrder) ([]country.CountryRecord, error)
	FindByName(ctx context.Context, name string) (country.CountryRecord, error)
	DeleteByName(ctx context.Context, name string) (bool, error)
	Count(ctx context.Context) (int64, error)
	Metadata(ctx context.Context) (country.RefreshMetadata, error)
	SetMetadata(ctx context.Context, total int64, at time.Time) error
}

// CountrySource fetches the raw country list from the external source.
type CountrySource interface {
	FetchAll(ctx context.Context) ([]country.RawCountry, error)
}

// RateSource fetches the USD exchange-rate table from the external source.
type RateSource interface {
	Latest(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Config wires the service's collaborators. Store, Countries, and Rates are
// required; the rest default to working no-op or in-memory implementations.
type Config struct {
	Store      Store
	Countries  CountrySource
	Rates      RateSource
	Reconciler *reconcile.Reconciler
	Artifacts  summary.ArtifactStore
	Audit      audit.Publisher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Service implements the country snapshot operations.
type Service struct {
	store      Store
	countries  CountrySource
	rates      RateSource
	reconciler *reconcile.Reconciler
	artifacts  summary.ArtifactStore
	audit      audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer

	// refreshMu serializes refreshes so two concurrent calls cannot
	// interleave their bulk-upsert transactions.
	refreshMu sync.Mutex
}

// New constructs a Service from its collaborators.
func New(cfg Config) *Service {
	s := &Service{
		store:      cfg.Store,
		countries:  cfg.Countries,
		rates:      cfg.Rates,
		reconciler: cfg.Reconciler,
		artifacts:  cfg.Artifacts,
		audit:      cfg.Audit,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		tracer:     otel.Tracer("countryatlas/service"),
	}
	if s.reconciler == nil {
		s.reconciler = reconcile.New(nil)
	}
	if s.artifacts == nil {
		s.artifacts = summary.NewMemoryStore()
	}
	if s.audit == nil {
		s.audit = audit.Noop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// List returns the snapshot filtered and ordered per the request.
func (s *Service) List(ctx context.Context, filter country.Filter, order country.SortOrder) ([]country.CountryRecord, error) {
	records, err := s.store.FindAll(ctx, filter, order)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "Internal server error", err)
	}
	return records, nil
}

// Get returns one country by case-insensitive name.
func (s *Service) Get(ctx context.Context, name string) (country.CountryRecord, error) {
	name, err := requireName(name)
	if err != nil {
		return country.CountryRecord{}, err
	}
	rec, err := s.store.FindByName(ctx, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return country.CountryRecord{}, dErrors.New(dErrors.CodeNotFound, "Country not found")
	}
	if err != nil {
		return country.CountryRecord{}, dErrors.Wrap(dErrors.CodeInternal, "Internal server error", err)
	}
	return rec, nil
}

// Delete removes one country by case-insensitive name.
func (s *Service) Delete(ctx context.Context, name string) error {
	name, err := requireName(name)
	if err != nil {
		return err
	}
	deleted, err := s.store.DeleteByName(ctx, name)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "Internal server error", err)
	}
	if !deleted {
		return dErrors.New(dErrors.CodeNotFound, "Country not found")
	}
	s.audit.Publish(ctx, audit.Event{
		Action:  audit.ActionCountryDeleted,
		Country: name,
		At:      requestcontext.Now(ctx),
	})
	return nil
}

// Status returns the refresh metadata singleton.
func (s *Service) Status(ctx context.Context) (country.RefreshMetadata, error) {
	meta, err := s.store.Metadata(ctx)
	if err != nil {
		return country.RefreshMetadata{}, dErrors.Wrap(dErrors.CodeInternal, "Internal server error", err)
	}
	return meta, nil
}

// SummaryImage returns the latest rendered summary artifact.
func (s *Service) SummaryImage(ctx context.Context) ([]byte, error) {
	data, err := s.artifacts.Latest(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "Summary image not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "Internal server error", err)
	}
	return data, nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "Country name is required")
	}
	return name, nil
}
