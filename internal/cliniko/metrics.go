package cliniko

import (
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Metrics holds Prometheus metrics for calls to the Cliniko API.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers client metrics with reg.
//
// Metrics:
//   - cliniko_requests_total{method,route,status} - requests issued
//   - cliniko_request_duration_seconds{method,route} - round-trip latency
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cliniko_requests_total",
				Help: "Total number of requests sent to the Cliniko API",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cliniko_request_duration_seconds",
				Help:    "Duration of Cliniko API requests in seconds",
				Buckets: prometheus.ExponentialBuckets(0.025, 2, 10), // 25ms to ~13s
			},
			[]string{"method", "route"},
		),
	}
}

// DefaultMetrics returns metrics registered once with the default registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// observe records one request. status is 0 for transport failures.
func (m *Metrics) observe(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	route := routeOf(path)
	code := "error"
	if status != 0 {
		code = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(method, route, code).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var numericSegment = regexp.MustCompile(`/\d+`)

// routeOf strips the query and collapses ids so labels stay low-cardinality:
// /patients/42/cases?page=2 -> /patients/:id/cases.
func routeOf(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '?' {
			path = path[:i]
			break
		}
	}
	return numericSegment.ReplaceAllString(path, "/:id")
}
