// Package metrics defines the Prometheus collectors for provider discovery.
//
// Collectors register with the default registry and are exposed by the
// serve command at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DiscoveryRequests counts discovery operations by mode (category, text, locations)
	// and outcome (ok, empty, bad_request, unavailable, not_found, internal).
	DiscoveryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_requests_total",
			Help: "Total number of provider discovery requests",
		},
		[]string{"mode", "outcome"},
	)

	DiscoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_duration_seconds",
			Help:    "End-to-end provider discovery duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"mode"},
	)

	// GeocodeResolutions counts resolved locations by source
	// (resolved, fallback, provided).
	GeocodeResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_geocode_resolutions_total",
			Help: "Location resolutions by source",
		},
		[]string{"source"},
	)

	CandidatesSeen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_candidates_total",
			Help: "Raw candidates returned by provider search",
		},
	)

	CandidatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_candidates_skipped_total",
			Help: "Candidates dropped during normalization for lacking a rating",
		},
	)

	ProvidersReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_providers_returned",
			Help:    "Number of providers in each successful response",
			Buckets: []float64{0, 1, 2, 5, 8, 10},
		},
	)

	// UpstreamRetries counts retried calls to external APIs.
	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_upstream_retries_total",
			Help: "Retried upstream API calls by upstream and operation",
		},
		[]string{"upstream", "operation"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

// RecordDiscovery records one discovery operation.
func RecordDiscovery(mode, outcome string, duration time.Duration) {
	DiscoveryRequests.WithLabelValues(mode, outcome).Inc()
	DiscoveryDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordGeocode records how a request's location was resolved.
func RecordGeocode(source string) {
	GeocodeResolutions.WithLabelValues(source).Inc()
}

// RecordCandidates records the raw candidate count and how many were skipped.
func RecordCandidates(total, skipped int) {
	CandidatesSeen.Add(float64(total))
	CandidatesSkipped.Add(float64(skipped))
}

// RecordProvidersReturned records the size of a successful response.
func RecordProvidersReturned(n int) {
	ProvidersReturned.Observe(float64(n))
}

// RecordUpstreamRetry records one retry of an upstream operation.
func RecordUpstreamRetry(upstream, operation string) {
	UpstreamRetries.WithLabelValues(upstream, operation).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
