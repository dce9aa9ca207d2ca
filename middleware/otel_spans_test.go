package middleware

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useInMemoryTracer routes stage spans to an in-memory exporter for the
// duration of the test.
func useInMemoryTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	oldTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	xmlTracer = otel.Tracer("httpxml/middleware")

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(oldTP)
		xmlTracer = otel.Tracer("httpxml/middleware")
	})
	return exporter
}

func spanAttrs(s tracetest.SpanStub) map[string]any {
	attrs := make(map[string]any)
	for _, a := range s.Attributes {
		attrs[string(a.Key)] = a.Value.AsInterface()
	}
	return attrs
}

// TestStages_OTELSpans verifies span creation. It is NOT parallel because
// it replaces the global tracer provider.
func TestStages_OTELSpans(t *testing.T) {
	t.Run("request span", func(t *testing.T) {
		exporter := useInMemoryTracer(t)

		env := requestEnv(sferik(), "")
		require.NoError(t, compactRequest().OnRequest(env))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "xml.request", spans[0].Name)

		attrs := spanAttrs(spans[0])
		assert.Equal(t, true, attrs["xml.applicable"])
		assert.Equal(t, "map", attrs["xml.body_kind"])
		assert.Contains(t, attrs, "xml.backend")
	})

	t.Run("skipped request span", func(t *testing.T) {
		exporter := useInMemoryTracer(t)

		env := requestEnv(nil, "")
		require.NoError(t, compactRequest().OnRequest(env))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		attrs := spanAttrs(spans[0])
		assert.Equal(t, false, attrs["xml.applicable"])
		assert.Equal(t, "nil", attrs["xml.body_kind"])
	})

	t.Run("failed response span", func(t *testing.T) {
		exporter := useInMemoryTracer(t)

		env := responseEnv(context.Background(), "<xml", "application/xml")
		require.Error(t, NewResponse().OnComplete(env))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "xml.response", spans[0].Name)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.NotEmpty(t, spans[0].Events)
		assert.Equal(t, "text", spanAttrs(spans[0])["xml.body_kind"])
	})
}

// TestMetrics_RecordOperation is NOT parallel so counter deltas are exact.
func TestMetrics_RecordOperation(t *testing.T) {
	m := GetMetrics()
	require.Same(t, m, GetMetrics())

	registry := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		m.MustRegister(registry)
		m.Init()
		m.Init()
	})

	encoded := m.operationsTotal.WithLabelValues(directionRequest, resultEncoded)
	empty := m.operationsTotal.WithLabelValues(directionResponse, resultEmpty)
	before := testutil.ToFloat64(encoded)
	beforeEmpty := testutil.ToFloat64(empty)

	require.NoError(t, compactRequest().OnRequest(requestEnv(sferik(), "")))
	require.NoError(t, NewResponse().OnComplete(responseEnv(context.Background(), " ", "application/xml")))

	assert.Equal(t, before+1, testutil.ToFloat64(encoded))
	assert.Equal(t, beforeEmpty+1, testutil.ToFloat64(empty))
}
