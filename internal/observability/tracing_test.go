package observability

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TestInjectTraceContext is NOT parallel because it replaces the global
// propagator.
func TestInjectTraceContext(t *testing.T) {
	oldPropagator := otel.GetTextMapPropagator()
	SetupPropagation()
	t.Cleanup(func() { otel.SetTextMapPropagator(oldPropagator) })

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	InjectTraceContext(ctx, req)

	traceparent := req.Header.Get("traceparent")
	require.NotEmpty(t, traceparent)
	assert.Contains(t, traceparent, span.SpanContext().TraceID().String())
	assert.Same(t, span, SpanFromContext(ctx))
}

func TestTraceFields(t *testing.T) {
	t.Parallel()

	assert.Empty(t, TraceFields(context.Background()))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	fields := TraceFields(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "trace_id", fields[0].Key)
	assert.Equal(t, span.SpanContext().TraceID().String(), fields[0].String)
	assert.Equal(t, "span_id", fields[1].Key)
}
