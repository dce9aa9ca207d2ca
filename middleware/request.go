package middleware

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/httpxml/config"
	"github.com/vyrodovalexey/httpxml/contenttype"
	"github.com/vyrodovalexey/httpxml/internal/observability"
	"github.com/vyrodovalexey/httpxml/pipeline"
	"github.com/vyrodovalexey/httpxml/xmlcodec"
)

var xmlTracer = otel.Tracer("httpxml/middleware")

// RequestOption is a functional option for configuring the Request stage.
type RequestOption func(*Request)

// WithRequestEncoder sets the encoder used for structured bodies.
func WithRequestEncoder(encoder *xmlcodec.Encoder) RequestOption {
	return func(r *Request) {
		if encoder != nil {
			r.encoder = encoder
		}
	}
}

// WithRequestContentTypes replaces the content type spec deciding which request
// Content-Type headers allow encoding.
func WithRequestContentTypes(spec contenttype.Spec) RequestOption {
	return func(r *Request) {
		r.spec = spec
	}
}

// WithRequestLogger sets the logger for the Request stage.
func WithRequestLogger(logger observability.Logger) RequestOption {
	return func(r *Request) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Request encodes structured request bodies as XML.
type Request struct {
	encoder *xmlcodec.Encoder
	spec    contenttype.Spec
	logger  observability.Logger
	metrics *Metrics
}

// NewRequest creates a Request stage with a lazily resolved encoder.
func NewRequest(opts ...RequestOption) *Request {
	r := &Request{
		spec:    contenttype.RequestSpec(),
		logger:  observability.NopLogger(),
		metrics: GetMetrics(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.encoder == nil {
		r.encoder = xmlcodec.NewEncoder(xmlcodec.WithEncoderLogger(r.logger))
	}

	return r
}

// RequestFromConfig creates a Request stage from configuration. The
// encoder is validated immediately.
func RequestFromConfig(cfg *config.Config, logger observability.Logger) (*Request, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	encoder, err := xmlcodec.BuildEncoder(
		xmlcodec.WithEncoderConfig(cfg.Request.Encoder.CodecConfig()),
		xmlcodec.WithEncoderLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build xml request stage: %w", err)
	}

	return NewRequest(WithRequestEncoder(encoder), WithRequestLogger(logger)), nil
}

// OnRequest encodes env.Body when the body is present and the request
// Content-Type is absent or XML. Text bodies are sent as they are; only the
// header is defaulted. Nothing but the body and the Content-Type header is
// touched.
func (r *Request) OnRequest(env *pipeline.Env) error {
	header := ""
	if env.RequestHeaders != nil {
		header = env.RequestHeaders.Get(contenttype.Header)
	}
	kind := bodyKind(env.Body)
	applicable := hasBody(env.Body) && r.spec.Applies(header)

	_, span := xmlTracer.Start(env.Context(), "xml.request",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Bool("xml.applicable", applicable),
			attribute.String("xml.body_kind", kind),
		),
	)
	defer span.End()

	if !applicable {
		r.metrics.RecordOperation(directionRequest, resultSkipped)
		r.logger.Debug("xml request stage skipped",
			observability.String("content_type", header),
			observability.String("body_kind", kind),
		)
		return nil
	}

	if isText(env.Body) {
		defaultContentType(env)
		r.metrics.RecordOperation(directionRequest, resultPassthrough)
		return nil
	}

	backend, err := r.encoder.Backend()
	if err == nil {
		span.SetAttributes(attribute.String("xml.backend", backend))
	}

	out, err := r.encode(env.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "xml encode failed")
		r.metrics.RecordOperation(directionRequest, resultError)
		return err
	}

	env.Body = out
	defaultContentType(env)
	r.metrics.RecordOperation(directionRequest, resultEncoded)
	r.logger.Debug("xml request body encoded",
		observability.String("backend", backend),
		observability.Int("bytes", len(out)),
	)
	return nil
}

func (r *Request) encode(body any) (string, error) {
	v, err := xmlcodec.FromInterface(body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", xmlcodec.ErrEncodingFailed, err)
	}
	return r.encoder.Encode(v)
}

func defaultContentType(env *pipeline.Env) {
	if env.RequestHeaders == nil {
		env.RequestHeaders = make(http.Header)
	}
	if env.RequestHeaders.Get(contenttype.Header) == "" {
		env.RequestHeaders.Set(contenttype.Header, contenttype.MIMEType)
	}
}

// hasBody reports whether body carries content. Only empty text counts as
// absent; an empty structure still encodes.
func hasBody(body any) bool {
	switch b := body.(type) {
	case nil:
		return false
	case string:
		return b != ""
	case []byte:
		return len(b) > 0
	default:
		return true
	}
}

func isText(body any) bool {
	switch body.(type) {
	case string, []byte:
		return true
	default:
		return false
	}
}

func bodyKind(body any) string {
	switch b := body.(type) {
	case nil:
		return "nil"
	case string, []byte:
		return "text"
	case xmlcodec.Value:
		return b.Kind().String()
	default:
		return "native"
	}
}
