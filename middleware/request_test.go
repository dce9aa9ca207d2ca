package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/httpxml/config"
	"github.com/vyrodovalexey/httpxml/contenttype"
	"github.com/vyrodovalexey/httpxml/pipeline"
	"github.com/vyrodovalexey/httpxml/xmlcodec"
)

const sferikXML = "<user><name>Erik Michaels-Ober</name><screen_name>sferik</screen_name></user>"

func sferik() *xmlcodec.Map {
	return xmlcodec.NewMap(xmlcodec.Pair("user", xmlcodec.NewMap(
		xmlcodec.Pair("name", xmlcodec.Text("Erik Michaels-Ober")),
		xmlcodec.Pair("screen_name", xmlcodec.Text("sferik")),
	)))
}

func compactRequest(opts ...RequestOption) *Request {
	encoder := xmlcodec.NewEncoder(xmlcodec.WithIndent(0))
	return NewRequest(append([]RequestOption{WithRequestEncoder(encoder)}, opts...)...)
}

func requestEnv(body any, contentType string) *pipeline.Env {
	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return pipeline.NewEnv(context.Background(), http.MethodPost, nil, body, header)
}

func TestRequest_OnRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		header     string
		wantBody   any
		wantHeader string
	}{
		{
			name:       "nil body untouched",
			body:       nil,
			wantBody:   nil,
			wantHeader: "",
		},
		{
			name:       "empty string body untouched",
			body:       "",
			wantBody:   "",
			wantHeader: "",
		},
		{
			name:       "structured body without header",
			body:       sferik(),
			wantBody:   sferikXML,
			wantHeader: "application/xml",
		},
		{
			name:       "prior xml header kept",
			body:       sferik(),
			header:     "application/xml; charset=utf-8",
			wantBody:   sferikXML,
			wantHeader: "application/xml; charset=utf-8",
		},
		{
			name:       "vendor xml header",
			body:       sferik(),
			header:     "application/vnd.myapp.v1+xml; charset=utf-8",
			wantBody:   sferikXML,
			wantHeader: "application/vnd.myapp.v1+xml; charset=utf-8",
		},
		{
			name:       "incompatible header leaves structure",
			body:       sferik(),
			header:     "application/json; charset=utf-8",
			wantBody:   sferik(),
			wantHeader: "application/json; charset=utf-8",
		},
		{
			name:       "text body only gets the header",
			body:       "<a>already xml</a>",
			wantBody:   "<a>already xml</a>",
			wantHeader: "application/xml",
		},
		{
			name:       "text body under incompatible header",
			body:       `{"a":1}`,
			header:     "application/json",
			wantBody:   `{"a":1}`,
			wantHeader: "application/json",
		},
		{
			name:       "plain go map",
			body:       map[string]any{"b": "2", "a": map[string]any{"c": 3}},
			wantBody:   "<a><c>3</c></a><b>2</b>",
			wantHeader: "application/xml",
		},
		{
			name:       "empty structure encodes to empty text",
			body:       xmlcodec.NewMap(),
			wantBody:   "",
			wantHeader: "application/xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := requestEnv(tt.body, tt.header)
			require.NoError(t, compactRequest().OnRequest(env))

			assert.Equal(t, tt.wantBody, env.Body)
			assert.Equal(t, tt.wantHeader, env.RequestHeaders.Get("Content-Type"))
		})
	}
}

func TestRequest_OnlyTouchesBodyAndContentType(t *testing.T) {
	t.Parallel()

	env := requestEnv(sferik(), "")
	env.RequestHeaders.Set("Accept", "application/xml")
	env.Status = 7

	require.NoError(t, compactRequest().OnRequest(env))

	assert.Equal(t, http.Header{
		"Accept":       []string{"application/xml"},
		"Content-Type": []string{"application/xml"},
	}, env.RequestHeaders)
	assert.Equal(t, 7, env.Status)
	assert.Nil(t, env.RawBody)
	assert.Nil(t, env.Response)
}

func TestRequest_NilHeaderMap(t *testing.T) {
	t.Parallel()

	env := &pipeline.Env{Body: sferik()}
	require.NoError(t, compactRequest().OnRequest(env))
	assert.Equal(t, "application/xml", env.RequestHeaders.Get("Content-Type"))
}

func TestRequest_EncodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body any
	}{
		{
			name: "list of scalars",
			body: xmlcodec.NewMap(xmlcodec.Pair("tags", xmlcodec.List{xmlcodec.Text("a")})),
		},
		{
			name: "unsupported go value",
			body: map[string]any{"ch": make(chan int)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := requestEnv(tt.body, "")
			err := compactRequest().OnRequest(env)
			require.Error(t, err)
			assert.True(t, errors.Is(err, xmlcodec.ErrEncodingFailed))
			assert.True(t, errors.Is(err, xmlcodec.ErrUnsupportedValue))
			assert.Equal(t, tt.body, env.Body)
			assert.Empty(t, env.RequestHeaders.Get("Content-Type"))
		})
	}
}

func TestRequest_CustomContentTypes(t *testing.T) {
	t.Parallel()

	spec, err := contenttype.Parse([]string{"text/xml"}, nil)
	require.NoError(t, err)
	r := compactRequest(WithRequestContentTypes(spec))

	env := requestEnv(sferik(), "text/xml")
	require.NoError(t, r.OnRequest(env))
	assert.Equal(t, sferikXML, env.Body)

	env = requestEnv(sferik(), "")
	require.NoError(t, r.OnRequest(env))
	assert.Equal(t, sferik(), env.Body)
}

func TestRequestFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Request.Encoder.Indent = 0
	cfg.Request.Encoder.Declaration = true
	cfg.Request.Encoder.Root = "request"

	r, err := RequestFromConfig(cfg, nil)
	require.NoError(t, err)

	env := requestEnv(xmlcodec.NewMap(xmlcodec.Pair("a", xmlcodec.Text("1"))), "")
	require.NoError(t, r.OnRequest(env))
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?><request><a>1</a></request>`, env.Body)

	r, err = RequestFromConfig(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, xmlcodec.DefaultEncoderConfig(), r.encoder.Config())
}
