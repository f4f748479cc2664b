package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAPIMetrics(reg)

	m.Observe("login", "POST", 401, 20*time.Millisecond)
	m.Observe("login", "POST", 401, 30*time.Millisecond)
	m.Observe("me", "GET", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("login", "POST", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("me", "GET", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *APIMetrics
	assert.NotPanics(t, func() { m.Observe("me", "GET", 200, time.Millisecond) })
}
