// Package handler is the thin HTTP layer over the country service. It
// parses requests, delegates, and serializes; business rules live in the
// service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"countryatlas/internal/country"
	"countryatlas/internal/country/service"
	"countryatlas/internal/summary"
	"countryatlas/pkg/platform/httputil"
	"countryatlas/pkg/requestcontext"
)

// Service defines the country operations the handler delegates to.
type Service interface {
	Refresh(ctx context.Context) (service.RefreshResult, error)
	List(ctx context.Context, filter country.Filter, order country.SortOrder) ([]country.CountryRecord, error)
	Get(ctx context.Context, name string) (country.CountryRecord, error)
	Delete(ctx context.Context, name string) error
	Status(ctx context.Context) (country.RefreshMetadata, error)
	SummaryImage(ctx context.Context) ([]byte, error)
}

// Handler wires country endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a country handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts country endpoints on the router. The static image route
// is declared alongside the name parameter route; chi resolves static
// segments first.
func (h *Handler) Register(r chi.Router) {
	r.Post("/countries/refresh", h.HandleRefresh)
	r.Get("/countries", h.HandleList)
	r.Get("/countries/image", h.HandleImage)
	r.Get("/countries/{name}", h.HandleGet)
	r.Delete("/countries/{name}", h.HandleDelete)
	r.Get("/status", h.HandleStatus)
}

type refreshResponse struct {
	Message            string     `json:"message"`
	CountriesProcessed int        `json:"countries_processed"`
	LastRefreshedAt    *time.Time `json:"last_refreshed_at"`
	Warning            string     `json:"warning,omitempty"`
}

// HandleRefresh handles POST /countries/refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.service.Refresh(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "refresh failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, refreshResponse{
		Message:            "Refresh completed",
		CountriesProcessed: result.Processed,
		LastRefreshedAt:    result.Meta.LastRefreshedAt,
		Warning:            result.Warning,
	})
}

// HandleList handles GET /countries with optional region, currency, and
// sort query parameters. Unrecognized sort tokens fall back to name_asc.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter country.Filter
	if region := query.Get("region"); region != "" {
		filter.Region = &region
	}
	if currency := query.Get("currency"); currency != "" {
		filter.CurrencyCode = &currency
	}

	records, err := h.service.List(r.Context(), filter, country.ParseSort(query.Get("sort")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []country.CountryRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// HandleGet handles GET /countries/{name}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleDelete handles DELETE /countries/{name}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStatus handles GET /status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	meta, err := h.service.Status(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, meta)
}

// HandleImage handles GET /countries/image, serving the latest rendered
// summary artifact.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.SummaryImage(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", summary.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
