package middleware

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results.
const (
	resultEncoded     = "encoded"
	resultDecoded     = "decoded"
	resultPassthrough = "passthrough"
	resultSkipped     = "skipped"
	resultEmpty       = "empty"
	resultError       = "error"
)

// Directions.
const (
	directionRequest  = "request"
	directionResponse = "response"
)

// Metrics contains Prometheus metrics for the XML stages.
type Metrics struct {
	operationsTotal *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton middleware metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			operationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "httpxml",
					Subsystem: "middleware",
					Name:      "operations_total",
					Help:      "Total number of XML stage invocations by outcome",
				},
				[]string{"direction", "result"},
			),
		}
	})
	return metricsInstance
}

// MustRegister registers the middleware collectors with the given registry.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.operationsTotal)
}

// Init pre-initializes every label combination with zero values.
// It is idempotent.
func (m *Metrics) Init() {
	for _, result := range []string{resultEncoded, resultPassthrough, resultSkipped, resultError} {
		m.operationsTotal.WithLabelValues(directionRequest, result)
	}
	for _, result := range []string{resultDecoded, resultEmpty, resultSkipped, resultError} {
		m.operationsTotal.WithLabelValues(directionResponse, result)
	}
}

// RecordOperation records one stage invocation.
func (m *Metrics) RecordOperation(direction, result string) {
	m.operationsTotal.WithLabelValues(direction, result).Inc()
}
