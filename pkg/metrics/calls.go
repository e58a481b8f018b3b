package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "livespace"

// CallMetrics records dispatcher attempts and session refreshes.
type CallMetrics struct {
	duration *prometheus.HistogramVec
	attempts *prometheus.CounterVec
	refresh  *prometheus.CounterVec
}

// NewCallMetrics registers the call metrics on the provided registerer.
func NewCallMetrics(reg prometheus.Registerer) *CallMetrics {
	if reg == nil {
		return &CallMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "call_duration_seconds",
		Help:      "Duration of API method calls in seconds, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"module", "method"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "call_attempts_total",
		Help:      "API method attempts by outcome.",
	}, []string{"module", "method", "outcome"})
	refresh := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refresh_total",
		Help:      "Auth round-trips performed to obtain a session.",
	}, []string{"reason"})
	reg.MustRegister(duration, attempts, refresh)
	return &CallMetrics{
		duration: duration,
		attempts: attempts,
		refresh:  refresh,
	}
}

// ObserveDuration records the end-to-end duration of a call.
func (c *CallMetrics) ObserveDuration(module, method string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(module), normalizeLabel(method)).Observe(duration.Seconds())
}

// IncAttempt counts one POST to a method endpoint.
func (c *CallMetrics) IncAttempt(module, method, outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(module), normalizeLabel(method), normalizeLabel(outcome)).Inc()
}

// IncRefresh counts one auth round-trip.
func (c *CallMetrics) IncRefresh(reason string) {
	if c == nil || c.refresh == nil {
		return
	}
	c.refresh.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
