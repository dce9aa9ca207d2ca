package middleware

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/httpxml/config"
	"github.com/vyrodovalexey/httpxml/contenttype"
	"github.com/vyrodovalexey/httpxml/internal/observability"
	"github.com/vyrodovalexey/httpxml/pipeline"
	"github.com/vyrodovalexey/httpxml/xmlcodec"
)

// ResponseOption is a functional option for configuring the Response stage.
type ResponseOption func(*Response)

// WithResponseDecoder sets the decoder used for XML bodies.
func WithResponseDecoder(decoder *xmlcodec.Decoder) ResponseOption {
	return func(r *Response) {
		if decoder != nil {
			r.decoder = decoder
		}
	}
}

// WithResponseContentTypes replaces the content type spec deciding which response
// Content-Type headers are decoded.
func WithResponseContentTypes(spec contenttype.Spec) ResponseOption {
	return func(r *Response) {
		r.spec = spec
	}
}

// WithResponsePreserveRaw keeps the undecoded body in env.RawBody.
func WithResponsePreserveRaw(preserve bool) ResponseOption {
	return func(r *Response) {
		r.preserveRaw = preserve
	}
}

// WithResponseParserOptions sets the options forwarded to the decoder.
func WithResponseParserOptions(opts xmlcodec.ParserOptions) ResponseOption {
	return func(r *Response) {
		r.parserOptions = opts
	}
}

// WithResponseLogger sets the logger for the Response stage.
func WithResponseLogger(logger observability.Logger) ResponseOption {
	return func(r *Response) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Response decodes XML response bodies.
type Response struct {
	decoder       *xmlcodec.Decoder
	spec          contenttype.Spec
	preserveRaw   bool
	parserOptions xmlcodec.ParserOptions
	logger        observability.Logger
	metrics       *Metrics
}

// NewResponse creates a Response stage with a lazily resolved decoder.
func NewResponse(opts ...ResponseOption) *Response {
	r := &Response{
		spec:    contenttype.ResponseSpec(),
		logger:  observability.NopLogger(),
		metrics: GetMetrics(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.decoder == nil {
		r.decoder = xmlcodec.NewDecoder(xmlcodec.WithDecoderLogger(r.logger))
	}

	return r
}

// ResponseFromConfig creates a Response stage from configuration. The
// decoder is validated immediately.
func ResponseFromConfig(cfg *config.Config, logger observability.Logger) (*Response, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	spec, err := cfg.Response.Spec()
	if err != nil {
		return nil, fmt.Errorf("failed to build xml response stage: %w", err)
	}

	decoder, err := xmlcodec.BuildDecoder(xmlcodec.WithDecoderLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build xml response stage: %w", err)
	}

	return NewResponse(
		WithResponseDecoder(decoder),
		WithResponseContentTypes(spec),
		WithResponsePreserveRaw(cfg.Response.PreserveRaw),
		WithResponseParserOptions(cfg.Response.Parser.ParserOptions()),
		WithResponseLogger(logger),
	), nil
}

// OnComplete decodes env.Body when the response Content-Type matches and
// the body is still text. A blank body becomes nil without a parse.
func (r *Response) OnComplete(env *pipeline.Env) error {
	header := ""
	if env.ResponseHeaders != nil {
		header = env.ResponseHeaders.Get(contenttype.Header)
	}
	raw, isRaw := rawText(env.Body)
	applicable := isRaw && r.spec.Applies(header)

	ctx := env.Context()
	_, span := xmlTracer.Start(ctx, "xml.response",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Bool("xml.applicable", applicable),
			attribute.String("xml.body_kind", bodyKind(env.Body)),
		),
	)
	defer span.End()

	if !applicable {
		r.metrics.RecordOperation(directionResponse, resultSkipped)
		r.logger.Debug("xml response stage skipped",
			observability.String("content_type", header),
		)
		return nil
	}

	if r.shouldPreserveRaw(env) {
		env.RawBody = raw
	}

	if strings.TrimSpace(raw) == "" {
		env.Body = nil
		r.metrics.RecordOperation(directionResponse, resultEmpty)
		return nil
	}

	if backend, err := r.decoder.Backend(); err == nil {
		span.SetAttributes(attribute.String("xml.backend", backend))
	}

	v, err := r.decoder.Parse(raw, r.options(env))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "xml decode failed")
		r.metrics.RecordOperation(directionResponse, resultError)
		return &ParsingError{Err: err, Response: env.Response}
	}

	env.Body = v
	r.metrics.RecordOperation(directionResponse, resultDecoded)
	r.logger.Debug("xml response body decoded",
		observability.String("content_type", contenttype.Normalize(header)),
		observability.Int("bytes", len(raw)),
	)
	return nil
}

func (r *Response) shouldPreserveRaw(env *pipeline.Env) bool {
	if preserve, ok := PreserveRawFromContext(env.Context()); ok {
		return preserve
	}
	return r.preserveRaw
}

// options returns the per-call parser options when the context carries
// them, and the configured ones otherwise.
func (r *Response) options(env *pipeline.Env) xmlcodec.ParserOptions {
	if opts, ok := ParserOptionsFromContext(env.Context()); ok {
		return opts
	}
	return r.parserOptions
}

func rawText(body any) (string, bool) {
	switch b := body.(type) {
	case string:
		return b, true
	case []byte:
		return string(b), true
	default:
		return "", false
	}
}
