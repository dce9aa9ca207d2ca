package observability

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// SetupPropagation installs W3C trace context and baggage propagation as
// the global text map propagator.
func SetupPropagation() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// InjectTraceContext injects trace context into outgoing request headers.
func InjectTraceContext(ctx context.Context, r *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(r.Header))
}

// SpanFromContext returns the span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// TraceFields returns trace_id and span_id log fields for the span in ctx,
// or nothing when ctx carries no recording span context.
func TraceFields(ctx context.Context) []Field {
	sc := trace.SpanContextFromContext(ctx)
	var fields []Field
	if sc.HasTraceID() {
		fields = append(fields, String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		fields = append(fields, String("span_id", sc.SpanID().String()))
	}
	return fields
}
