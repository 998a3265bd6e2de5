// Package metrics exposes the Prometheus collectors for the frame server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "giftstorage",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftstorage",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "giftstorage",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	frameRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftstorage",
			Subsystem: "frame",
			Name:      "renders_total",
			Help:      "Total number of frames rendered, by route.",
		},
		[]string{"route"},
	)

	identityLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftstorage",
			Subsystem: "identity",
			Name:      "lookups_total",
			Help:      "Total number of identity resolver lookups.",
		},
		[]string{"outcome"},
	)

	paymentIntents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftstorage",
			Subsystem: "payment",
			Name:      "intents_total",
			Help:      "Total number of payment intents created.",
		},
		[]string{"outcome"},
	)

	settlementPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftstorage",
			Subsystem: "payment",
			Name:      "settlement_polls_total",
			Help:      "Total number of settlement status polls.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		frameRenders,
		identityLookups,
		paymentIntents,
		settlementPolls,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(method, path, status string, seconds float64) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(seconds)
}

// IncInFlight increments the in-flight request gauge.
func IncInFlight() { httpInFlight.Inc() }

// DecInFlight decrements the in-flight request gauge.
func DecInFlight() { httpInFlight.Dec() }

// CountFrameRender records one rendered frame for a route.
func CountFrameRender(route string) { frameRenders.WithLabelValues(route).Inc() }

// CountIdentityLookup records one resolver lookup outcome (hit, miss, error).
func CountIdentityLookup(outcome string) { identityLookups.WithLabelValues(outcome).Inc() }

// CountPaymentIntent records one create-intent outcome (ok, error).
func CountPaymentIntent(outcome string) { paymentIntents.WithLabelValues(outcome).Inc() }

// CountSettlementPoll records one status poll outcome
// (settled, pending, not_found, error).
func CountSettlementPoll(outcome string) { settlementPolls.WithLabelValues(outcome).Inc() }
