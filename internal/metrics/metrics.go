// Package metrics exposes Prometheus metrics of the contact graph service. All methods are safe
// to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/geocode"
)

const namespace = "contacts_globe"

// Metrics holds all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	GeocodeLookups  *prometheus.CounterVec
	GeocodeDuration *prometheus.HistogramVec

	EnrichedRecords *prometheus.CounterVec
	EnrichSkipped   *prometheus.CounterVec
	EnrichRemaining *prometheus.GaugeVec

	ConnectionsCreated prometheus.Counter
	Merges             prometheus.Counter
	EdgesCollapsed     prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		GeocodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_lookups_total",
			Help:      "Geocoding provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_lookup_duration_seconds",
			Help:      "Geocoding provider latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"provider"}),
		EnrichedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enriched_records_total",
			Help:      "Records that received coordinates, by kind.",
		}, []string{"kind"}),
		EnrichSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_skipped_records_total",
			Help:      "Records left without coordinates in a batch, by kind.",
		}, []string{"kind"}),
		EnrichRemaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "enrich_remaining_records",
			Help:      "Records still missing coordinates after the last batch, by kind.",
		}, []string{"kind"}),
		ConnectionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_created_total",
			Help:      "Connections created.",
		}),
		Merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_merges_total",
			Help:      "Completed contact merges.",
		}),
		EdgesCollapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_collapsed_connections_total",
			Help:      "Connections removed as duplicates or self edges during merges.",
		}),
	}
	m.registry.MustRegister(
		m.HTTPRequests, m.HTTPDuration,
		m.GeocodeLookups, m.GeocodeDuration,
		m.EnrichedRecords, m.EnrichSkipped, m.EnrichRemaining,
		m.ConnectionsCreated, m.Merges, m.EdgesCollapsed,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry of all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTP records a finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveGeocode implements geocode.Observer.
func (m *Metrics) ObserveGeocode(provider string, outcome geocode.Outcome, duration time.Duration) {
	if m == nil {
		return
	}
	m.GeocodeLookups.WithLabelValues(provider, string(outcome)).Inc()
	m.GeocodeDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveBatch records the result of an enrichment batch.
func (m *Metrics) ObserveBatch(kind string, enriched, skipped, remaining int) {
	if m == nil {
		return
	}
	m.EnrichedRecords.WithLabelValues(kind).Add(float64(enriched))
	m.EnrichSkipped.WithLabelValues(kind).Add(float64(skipped))
	m.EnrichRemaining.WithLabelValues(kind).Set(float64(remaining))
}

// ConnectionCreated counts a new connection.
func (m *Metrics) ConnectionCreated() {
	if m == nil {
		return
	}
	m.ConnectionsCreated.Inc()
}

// MergeCompleted counts a merge and the connections it removed.
func (m *Metrics) MergeCompleted(collapsed int) {
	if m == nil {
		return
	}
	m.Merges.Inc()
	m.EdgesCollapsed.Add(float64(collapsed))
}
