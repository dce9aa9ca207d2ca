package xmlcodec

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CodecMetrics contains Prometheus metrics for encode and decode operations.
type CodecMetrics struct {
	encodeTotal        *prometheus.CounterVec
	decodeTotal        *prometheus.CounterVec
	duration           *prometheus.HistogramVec
	backendResolutions *prometheus.CounterVec
}

var (
	codecMetricsInstance *CodecMetrics
	codecMetricsOnce     sync.Once
)

// GetCodecMetrics returns the singleton codec metrics instance.
func GetCodecMetrics() *CodecMetrics {
	codecMetricsOnce.Do(func() {
		codecMetricsInstance = &CodecMetrics{
			encodeTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "httpxml",
					Subsystem: "codec",
					Name:      "encode_total",
					Help:      "Total number of encode operations",
				},
				[]string{"backend", "result"},
			),
			decodeTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "httpxml",
					Subsystem: "codec",
					Name:      "decode_total",
					Help:      "Total number of decode operations",
				},
				[]string{"backend", "result"},
			),
			duration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "httpxml",
					Subsystem: "codec",
					Name:      "duration_seconds",
					Help:      "Duration of encode and decode operations in seconds",
					Buckets: []float64{
						.00001, .00005, .0001, .0005,
						.001, .005, .01, .05,
					},
				},
				[]string{"operation"},
			),
			backendResolutions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "httpxml",
					Subsystem: "codec",
					Name:      "backend_resolutions_total",
					Help:      "Total number of backend resolutions",
				},
				[]string{"component", "backend"},
			),
		}
	})
	return codecMetricsInstance
}

// MustRegister registers the codec collectors with the given registry.
// promauto already registers them with the default registry; this bridges
// them onto a caller-owned one.
func (m *CodecMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.encodeTotal,
		m.decodeTotal,
		m.duration,
		m.backendResolutions,
	)
}

// RecordEncode records an encode operation.
func (m *CodecMetrics) RecordEncode(backend, result string, seconds float64) {
	m.encodeTotal.WithLabelValues(backend, result).Inc()
	m.duration.WithLabelValues("encode").Observe(seconds)
}

// RecordDecode records a decode operation.
func (m *CodecMetrics) RecordDecode(backend, result string, seconds float64) {
	m.decodeTotal.WithLabelValues(backend, result).Inc()
	m.duration.WithLabelValues("decode").Observe(seconds)
}

// RecordResolution records the backend chosen for a component.
func (m *CodecMetrics) RecordResolution(component, backend string) {
	m.backendResolutions.WithLabelValues(component, backend).Inc()
}
