package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"countryatlas/internal/audit"
	"countryatlas/internal/country"
	"countryatlas/internal/summary"
	dErrors "countryatlas/pkg/domain-errors"
	"countryatlas/pkg/requestcontext"
)

// WarningSummaryRender is surfaced when the refresh committed but the
// summary image could not be rendered or stored.
const WarningSummaryRender = "summary image rendering failed"

// RefreshResult reports one committed refresh. Warning is non-empty when a
// best-effort step failed after the snapshot was already committed.
type RefreshResult struct {
	Processed int
	Meta      country.RefreshMetadata
	Warning   string
}

// Refresh runs one fetch → reconcile → persist cycle as a single logical
// unit of work. Both external fetches run concurrently and both must
// succeed before anything is written; the batch commits atomically;
// metadata counts the whole store, not just this batch. Summary rendering
// and audit are best-effort after the commit. One refresh runs at a time.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "refresh")
	defer span.End()

	var (
		raw   []country.RawCountry
		rates map[string]decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetchStart := time.Now()
		defer s.metrics.ObserveFetch("countries", fetchStart)
		var err error
		raw, err = s.countries.FetchAll(gctx)
		return err
	})
	g.Go(func() error {
		fetchStart := time.Now()
		defer s.metrics.ObserveFetch("rates", fetchStart)
		var err error
		rates, err = s.rates.Latest(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		s.metrics.ObserveRefresh("source_unavailable", start)
		return RefreshResult{}, dErrors.Wrap(dErrors.CodeUnavailable, "External data source unavailable", err)
	}

	now := requestcontext.Now(ctx)
	records := s.reconciler.Reconcile(raw, rates, now)

	processed, err := s.store.BulkUpsert(ctx, records)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveRefresh("persist_failed", start)
		return RefreshResult{}, dErrors.Wrap(dErrors.CodeInternal, "Internal server error", err)
	}

	// Prior refreshes' un-deleted rows still count toward the total.
	total, err := s.store.Count(ctx)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveRefresh("persist_failed", start)
		return RefreshResult{}, dErrors.Wrap(dErrors.CodeInternal, "Internal server error", err)
	}
	if err := s.store.SetMetadata(ctx, total, now); err != nil {
		span.RecordError(err)
		s.metrics.ObserveRefresh("persist_failed", start)
		return RefreshResult{}, dErrors.Wrap(dErrors.CodeInternal, "Internal server error", err)
	}
	meta := country.RefreshMetadata{TotalCountries: total, LastRefreshedAt: &now}

	result := RefreshResult{Processed: processed, Meta: meta}
	if err := s.renderSummary(ctx, meta); err != nil {
		// The snapshot is already committed; rendering is best-effort.
		s.logger.WarnContext(ctx, "summary rendering failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		result.Warning = WarningSummaryRender
	}

	s.audit.Publish(ctx, audit.Event{
		Action:         audit.ActionRefreshCompleted,
		Processed:      processed,
		TotalCountries: total,
		At:             now,
	})

	s.metrics.SetCountriesTracked(total)
	s.metrics.ObserveRefresh("success", start)
	span.SetAttributes(
		attribute.Int("refresh.processed", processed),
		attribute.Int64("refresh.total_countries", total),
	)
	return result, nil
}

// renderSummary draws the top-5 countries by estimated GDP (null GDPs are
// excluded from the ranking) and stores the artifact.
func (s *Service) renderSummary(ctx context.Context, meta country.RefreshMetadata) error {
	ranked, err := s.store.FindAll(ctx, country.Filter{}, country.SortGDPDesc)
	if err != nil {
		return err
	}
	return s.artifacts.Save(ctx, summary.Render(meta, ranked))
}
