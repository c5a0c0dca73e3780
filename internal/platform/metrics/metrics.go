package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the refresh pipeline.
type Metrics struct {
	RefreshTotal     *prometheus.CounterVec
	RefreshDuration  prometheus.Histogram
	FetchDuration    *prometheus.HistogramVec
	CountriesTracked prometheus.Gauge
}

// New creates and registers all metrics against reg. Tests pass a fresh
// prometheus.NewRegistry so repeated construction never double-registers.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "country_atlas_refresh_total",
			Help: "Refresh attempts partitioned by result",
		}, []string{"result"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "country_atlas_refresh_duration_seconds",
			Help:    "End-to-end refresh latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "country_atlas_fetch_duration_seconds",
			Help:    "External source fetch latency by source",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		CountriesTracked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "country_atlas_countries_tracked",
			Help: "Total countries in the snapshot store after the last refresh",
		}),
	}
}

// ObserveRefresh records one refresh outcome.
func (m *Metrics) ObserveRefresh(result string, start time.Time) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(result).Inc()
	m.RefreshDuration.Observe(time.Since(start).Seconds())
}

// ObserveFetch records one external fetch duration.
func (m *Metrics) ObserveFetch(source string, start time.Time) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

// SetCountriesTracked records the snapshot row count.
func (m *Metrics) SetCountriesTracked(n int64) {
	if m == nil {
		return
	}
	m.CountriesTracked.Set(float64(n))
}
