// Package metrics exposes Prometheus collectors for calls made to the backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "splitwise_client"

// APIMetrics records one observation per backend call.
// A nil *APIMetrics is valid and records nothing.
type APIMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewAPIMetrics registers the collectors with reg.
func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	factory := promauto.With(reg)
	return &APIMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Backend API calls by endpoint, method and response status.",
		}, []string{"endpoint", "method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Backend API call latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
	}
}

// Observe records a finished call. status 0 means the call never got a response.
func (m *APIMetrics) Observe(endpoint, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(endpoint, method, label).Inc()
	m.duration.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}
