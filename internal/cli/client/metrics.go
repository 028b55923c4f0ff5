package client

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts API calls made through the pipeline. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capitalhub",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests by method and status class.",
		}, []string{"method", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "capitalhub",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (m *Metrics) observe(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, statusClass(status)).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// statusClass buckets a status code ("2xx", "4xx"); 0 means no response
func statusClass(status int) string {
	if status == 0 {
		return "error"
	}
	return fmt.Sprintf("%dxx", status/100)
}
