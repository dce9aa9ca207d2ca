package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/httpxml/config"
	"github.com/vyrodovalexey/httpxml/internal/observability"
	"github.com/vyrodovalexey/httpxml/pipeline"
	"github.com/vyrodovalexey/httpxml/xmlcodec"
)

func newRegistry() *pipeline.Registry {
	reg := pipeline.NewRegistry()
	Register(reg)
	return reg
}

func TestRegister(t *testing.T) {
	t.Parallel()

	reg := newRegistry()
	assert.Equal(t, []string{"xml"}, reg.RequestNames())
	assert.Equal(t, []string{"xml"}, reg.ResponseNames())

	req, err := reg.Request("xml", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Request{}, req)

	resp, err := reg.Response("xml", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Response{}, resp)
}

func TestConnection_XMLRoundTrip(t *testing.T) {
	t.Parallel()

	var (
		gotContentType string
		gotBody        string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		_, _ = w.Write([]byte("<status>\n  <code>created</code>\n  <id>17</id>\n</status>\n"))
	}))
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Request.Encoder.Indent = 0
	cfg.Response.PreserveRaw = true

	conn, err := newRegistry().Connection(cfg, observability.NopLogger(), pipeline.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	resp, err := conn.Post(context.Background(), srv.URL, sferik(), nil)
	require.NoError(t, err)

	assert.Equal(t, "application/xml", gotContentType)
	assert.Equal(t, sferikXML, gotBody)

	assert.Equal(t, http.StatusOK, resp.Status())
	assert.Equal(t, xmlcodec.NewMap(xmlcodec.Pair("status", xmlcodec.NewMap(
		xmlcodec.Pair("code", xmlcodec.Text("created")),
		xmlcodec.Pair("id", xmlcodec.Text("17")),
	))), resp.Body())
	assert.Contains(t, resp.RawBody(), "<code>created</code>")
}

func TestConnection_XMLParsingError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<xml"))
	}))
	t.Cleanup(srv.Close)

	conn, err := newRegistry().Connection(nil, nil, pipeline.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	resp, err := conn.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Nil(t, resp)

	var parseErr *ParsingError
	require.True(t, errors.As(err, &parseErr))
	require.NotNil(t, parseErr.Response)
	assert.Equal(t, http.StatusBadGateway, parseErr.Response.Status())
	assert.Equal(t, "<xml", parseErr.Response.Body())
	assert.Same(t, parseErr.Response, parseErr.Response.Env().Response)
}

func TestConnection_JSONRequestUntouched(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	conn, err := newRegistry().Connection(nil, nil, pipeline.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	header := http.Header{"Content-Type": []string{"application/json; charset=utf-8"}}
	_, err = conn.Post(context.Background(), srv.URL, sferik(), header)
	assert.True(t, errors.Is(err, pipeline.ErrUnencodedBody))

	resp, err := conn.Post(context.Background(), srv.URL, `{"ok":true}`, header)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Body())
}
