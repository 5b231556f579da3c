package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	sessionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "samwise",
			Subsystem: "session",
			Name:      "requests_total",
			Help:      "Requests sent to samd by action and outcome.",
		},
		[]string{"action", "outcome"},
	)
	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "samwise",
			Subsystem: "session",
			Name:      "request_duration_seconds",
			Help:      "Send+reply cycle duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"action", "outcome"},
	)
	sessionConnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "samwise",
			Subsystem: "session",
			Name:      "connects_total",
			Help:      "Session connect attempts by outcome.",
		},
		[]string{"outcome"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "samwise",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total gateway HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "samwise",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Gateway HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(sessionRequests, sessionDuration, sessionConnects, httpRequests, httpDuration)
	})
}

// RecordRequest records one samd round trip.
func RecordRequest(action, outcome string, duration time.Duration) {
	RegisterMetrics()
	sessionRequests.WithLabelValues(action, outcome).Inc()
	sessionDuration.WithLabelValues(action, outcome).Observe(duration.Seconds())
}

func RecordConnect(outcome string) {
	RegisterMetrics()
	sessionConnects.WithLabelValues(outcome).Inc()
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
