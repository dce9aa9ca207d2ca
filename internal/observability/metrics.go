package observability

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// statusError is the status label value for requests that produced no
// response.
const statusError = "error"

// Metrics holds the Prometheus metrics for outgoing requests together with
// the registry every other collector of the process is registered with.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	buildInfo       *prometheus.GaugeVec
	registry        *prometheus.Registry
}

// NewMetrics creates a new Metrics instance with its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "httpxml"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests sent",
		},
		[]string{"method", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds, stages included",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "status"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.buildInfo,
		collectors.NewGoCollector(),
	)

	return m
}

// RecordRequest records one request. A status of zero means the request
// failed before a response arrived.
func (m *Metrics) RecordRequest(method string, status int, duration time.Duration) {
	label := statusError
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(method, label).Inc()
	m.requestDuration.WithLabelValues(method, label).Observe(duration.Seconds())
}

// SetBuildInfo sets the build information gauge.
func (m *Metrics) SetBuildInfo(version, commit, buildTime string) {
	m.buildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: false,
	})
}

// WriteText writes every metric in the registry to w in the Prometheus
// text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
