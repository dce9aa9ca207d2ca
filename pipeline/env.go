// Package pipeline runs request and response stages around a net/http
// round trip.
package pipeline

import (
	"context"
	"net/http"
	"net/url"
)

// RequestOptions carries per-call settings of a request.
type RequestOptions struct {
	// Context scopes the call. Stages read per-call overrides from it.
	Context context.Context
}

// Env is the mutable state of one call, shared by every stage.
type Env struct {
	Method string
	URL    *url.URL

	// Body is the request body until the round trip completes, then the
	// response body. Stages may replace it with structured data.
	Body any

	// RawBody holds the undecoded response body when a stage preserves it.
	RawBody any

	RequestHeaders  http.Header
	ResponseHeaders http.Header
	Status          int

	Request RequestOptions

	// Response is set once the round trip completes.
	Response *Response
}

// NewEnv returns an Env for a request with a non-nil header map.
func NewEnv(ctx context.Context, method string, u *url.URL, body any, header http.Header) *Env {
	if header == nil {
		header = make(http.Header)
	}
	return &Env{
		Method:          method,
		URL:             u,
		Body:            body,
		RequestHeaders:  header,
		ResponseHeaders: make(http.Header),
		Request:         RequestOptions{Context: ctx},
	}
}

// Context returns the call context, never nil.
func (e *Env) Context() context.Context {
	if e.Request.Context == nil {
		return context.Background()
	}
	return e.Request.Context
}

// Response is the view of a completed call handed back to callers.
// It reads through to the Env, so stages that run after the round trip
// are reflected in it.
type Response struct {
	env *Env
}

// NewResponse attaches a Response to env and returns it.
func NewResponse(env *Env) *Response {
	r := &Response{env: env}
	env.Response = r
	return r
}

// Env returns the environment behind the response.
func (r *Response) Env() *Env { return r.env }

// Status returns the HTTP status code.
func (r *Response) Status() int { return r.env.Status }

// Header returns the response headers.
func (r *Response) Header() http.Header { return r.env.ResponseHeaders }

// Body returns the response body, decoded if a stage transformed it.
func (r *Response) Body() any { return r.env.Body }

// RawBody returns the preserved undecoded body, if any.
func (r *Response) RawBody() any { return r.env.RawBody }
