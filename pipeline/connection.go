package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/httpxml/internal/observability"
)

var pipelineTracer = otel.Tracer("httpxml/pipeline")

// ErrUnencodedBody indicates a request body no stage turned into text.
var ErrUnencodedBody = errors.New("request body is not encoded")

// RequestStage runs before the request is sent.
type RequestStage interface {
	OnRequest(env *Env) error
}

// ResponseStage runs after the response is received.
type ResponseStage interface {
	OnComplete(env *Env) error
}

// ConnectionOption is a functional option for configuring a Connection.
type ConnectionOption func(*Connection)

// WithHTTPClient sets the client used for the round trip.
func WithHTTPClient(client *http.Client) ConnectionOption {
	return func(c *Connection) {
		if client != nil {
			c.client = client
		}
	}
}

// WithRequestStages appends request stages, run in the given order.
func WithRequestStages(stages ...RequestStage) ConnectionOption {
	return func(c *Connection) {
		c.request = append(c.request, stages...)
	}
}

// WithResponseStages appends response stages. They run in reverse order,
// so the last one added sees the response first.
func WithResponseStages(stages ...ResponseStage) ConnectionOption {
	return func(c *Connection) {
		c.response = append(c.response, stages...)
	}
}

// WithConnectionLogger sets the logger for the connection.
func WithConnectionLogger(logger observability.Logger) ConnectionOption {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConnectionMetrics records every request in m.
func WithConnectionMetrics(m *observability.Metrics) ConnectionOption {
	return func(c *Connection) {
		c.metrics = m
	}
}

// Connection sends requests through its stages. It is safe for concurrent
// use when its stages are.
type Connection struct {
	client   *http.Client
	request  []RequestStage
	response []ResponseStage
	logger   observability.Logger
	metrics  *observability.Metrics
}

// NewConnection creates a Connection using http.DefaultClient.
func NewConnection(opts ...ConnectionOption) *Connection {
	c := &Connection{
		client: http.DefaultClient,
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Do runs the request stages, performs the round trip, then runs the
// response stages and returns the response.
func (c *Connection) Do(
	ctx context.Context,
	method, rawURL string,
	body any,
	header http.Header,
) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := pipelineTracer.Start(ctx, "pipeline.do",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", u.Redacted()),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.do(ctx, method, u, body, header)
	status := 0
	if resp != nil {
		status = resp.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if c.metrics != nil {
		c.metrics.RecordRequest(method, status, time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline failed")
		return nil, err
	}
	return resp, nil
}

// do returns the received response together with the error of a failing
// response stage.
func (c *Connection) do(
	ctx context.Context,
	method string,
	u *url.URL,
	body any,
	header http.Header,
) (*Response, error) {
	env := NewEnv(ctx, method, u, body, header.Clone())

	for _, stage := range c.request {
		if err := stage.OnRequest(env); err != nil {
			return nil, err
		}
	}

	reader, err := bodyReader(env.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(env.Context(), env.Method, env.URL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header = env.RequestHeaders
	observability.InjectTraceContext(env.Context(), req)

	c.logger.Debug("sending request", append(observability.TraceFields(env.Context()),
		observability.String("method", env.Method),
		observability.String("url", env.URL.Redacted()),
	)...)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	env.Status = resp.StatusCode
	env.ResponseHeaders = resp.Header
	env.Body = string(data)
	response := NewResponse(env)

	c.logger.Debug("response received",
		observability.Int("status", resp.StatusCode),
		observability.Int("bytes", len(data)),
	)

	for i := len(c.response) - 1; i >= 0; i-- {
		if err := c.response[i].OnComplete(env); err != nil {
			return response, err
		}
	}

	return response, nil
}

// Get is shorthand for Do with GET and no body.
func (c *Connection) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, nil, header)
}

// Post is shorthand for Do with POST.
func (c *Connection) Post(ctx context.Context, rawURL string, body any, header http.Header) (*Response, error) {
	return c.Do(ctx, http.MethodPost, rawURL, body, header)
}

func bodyReader(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnencodedBody, body)
	}
}
