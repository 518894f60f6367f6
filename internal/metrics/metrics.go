// Package metrics holds the Prometheus instruments for the search pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "travelbuddy"

var (
	searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "requests_total",
		Help:      "Total number of search queries broken down by outcome.",
	}, []string{"outcome"})

	searchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "End-to-end latency of search queries, including run polling.",
		Buckets: []float64{
			0.5, 1, 2, 5,
			10, 20, 30, 45,
			60, 90, 120, 180,
		},
	}, []string{"outcome"})

	statusChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "run",
		Name:      "status_checks_total",
		Help:      "Total number of run status checks broken down by reported status.",
	}, []string{"status"})

	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "run",
		Name:      "tool_calls_total",
		Help:      "Total number of function tool calls answered, by function name and whether a handler was registered.",
	}, []string{"function", "handled"})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter, by path.",
	}, []string{"path"})
)

const (
	// OutcomeSuccess labels searches that produced a result
	OutcomeSuccess = "success"
	// OtherFunction labels tool calls for functions without a registered handler
	OtherFunction = "other"
)

// RecordSearch records one finished search. outcome is OutcomeSuccess or the
// failure kind.
func RecordSearch(outcome string, latency time.Duration) {
	labels := prometheus.Labels{"outcome": outcome}
	searches.With(labels).Inc()
	searchLatency.With(labels).Observe(latency.Seconds())
}

// RecordStatusCheck counts one run status check
func RecordStatusCheck(status string) {
	statusChecks.WithLabelValues(status).Inc()
}

// RecordToolCall counts one answered tool call. Names come from the remote
// assistant, so unhandled ones share the OtherFunction label.
func RecordToolCall(function string, handled bool) {
	h := "false"
	if handled {
		h = "true"
	} else {
		function = OtherFunction
	}
	toolCalls.WithLabelValues(function, h).Inc()
}

// RecordRateLimited counts one request rejected on path
func RecordRateLimited(path string) {
	rateLimited.WithLabelValues(path).Inc()
}

// Handler exposes the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
