package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics of the signing service
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	Operations          *prometheus.CounterVec
}

// NewMetrics registers the service metrics with registry, or the default
// registerer when registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perpsign_http_requests_total",
				Help: "Total number of HTTP requests by endpoint and status",
			},
			[]string{"endpoint", "method", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "perpsign_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perpsign_operations_total",
				Help: "Total number of signing operations by operation and result code",
			},
			[]string{"operation", "result"},
		),
	}
}

func (m *Metrics) observeOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = errorCode(err)
	}
	m.Operations.WithLabelValues(operation, result).Inc()
}
