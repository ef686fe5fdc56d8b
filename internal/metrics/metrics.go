// Package metrics exposes Prometheus collectors for the HTTP surface and the
// catalog compilation loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

const namespace = "atlas"

// Compilation results used as label values.
const (
	ResultSuccess   = "success"
	ResultRejected  = "rejected"  // at least one record failed validation
	ResultInvariant = "invariant" // compiler defect
	ResultError     = "error"     // loading, storage or context errors
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Catalog metrics
var (
	CompilationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compilations_total",
			Help:      "Total number of catalog compilations by result",
		},
		[]string{"result"},
	)

	CompilationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compilation_duration_seconds",
			Help:      "Catalog compilation time distribution",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	RecordFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "record_failures",
			Help:      "Record failures reported by the last rejected compilation",
		},
	)

	CatalogServices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_services",
			Help:      "Services in the catalog currently served",
		},
	)

	CatalogProviders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_providers",
			Help:      "Distinct providers in the catalog currently served",
		},
	)

	CatalogWarnings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_warnings",
			Help:      "Warnings attached to the catalog currently served",
		},
	)

	CatalogVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_version",
			Help:      "Version of the catalog currently served, as YYYYMMDDSS",
		},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Failed catalog store and artifact publish operations",
		},
		[]string{"backend", "op"},
	)
)

// ObserveCompilation records one compilation attempt.
func ObserveCompilation(result string, d time.Duration) {
	CompilationsTotal.WithLabelValues(result).Inc()
	CompilationDuration.Observe(d.Seconds())
}

// SetCatalog updates the gauges describing the served catalog.
func SetCatalog(cat *domain.Catalog) {
	CatalogServices.Set(float64(len(cat.Services)))
	CatalogProviders.Set(float64(len(cat.Providers)))
	CatalogWarnings.Set(float64(len(cat.Warnings)))
	CatalogVersion.Set(float64(cat.Version.Date)*100 + float64(cat.Version.Sequence))
}
