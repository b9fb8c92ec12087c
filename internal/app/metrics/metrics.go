// Package metrics exposes the Prometheus collectors for the access layer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "access_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "access_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "access_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "access_layer",
			Subsystem: "identity",
			Name:      "logins_total",
			Help:      "Total number of login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "access_layer",
			Subsystem: "payments",
			Name:      "attempts_total",
			Help:      "Total number of payment attempts by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	recordWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "access_layer",
			Subsystem: "records",
			Name:      "write_failures_total",
			Help:      "Subscription record writes that failed after a confirmed payment.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		logins,
		payments,
		recordWriteFailures,
	)
}

// Handler returns the scrape endpoint for the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// IncrementInFlight marks a request as started.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight marks a request as finished.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one handled HTTP request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLogin records a login attempt outcome (success, failure, error).
func RecordLogin(outcome string) {
	logins.WithLabelValues(outcome).Inc()
}

// RecordPayment records a payment attempt for a kind (subscribe, half,
// full) and outcome (confirmed, declined).
func RecordPayment(kind, outcome string) {
	payments.WithLabelValues(kind, outcome).Inc()
}

// RecordWriteFailure counts a failed subscription record write.
func RecordWriteFailure() {
	recordWriteFailures.Inc()
}
