package xmlcodec

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeParser records every call and counts availability probes.
type fakeParser struct {
	name      string
	available bool
	panics    bool
	probes    atomic.Int32

	mu    sync.Mutex
	calls []ParserOptions
}

func (f *fakeParser) Name() string { return f.name }

func (f *fakeParser) Available() bool {
	f.probes.Add(1)
	return f.available
}

func (f *fakeParser) Parse(_ string, opts ParserOptions) (Value, error) {
	if f.panics {
		panic("parser exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opts)
	return NewMap(Pair("ok", Text("1"))), nil
}

// fakeMarkup counts availability probes and optionally panics while writing.
type fakeMarkup struct {
	name      string
	available bool
	panics    bool
	probes    atomic.Int32
}

func (f *fakeMarkup) Name() string { return f.name }

func (f *fakeMarkup) Available() bool {
	f.probes.Add(1)
	return f.available
}

func (f *fakeMarkup) NewMarkup(cfg EncoderConfig) Markup {
	if f.panics {
		return panicMarkup{}
	}
	return StdlibMarkup().NewMarkup(cfg)
}

type panicMarkup struct{}

func (panicMarkup) Start(string) error        { panic(errors.New("start exploded")) }
func (panicMarkup) Leaf(string, string) error { panic("leaf exploded") }
func (panicMarkup) End(string) error          { return nil }
func (panicMarkup) Finish() (string, error)   { return "", nil }

func TestDecoder_ForwardsParserOptions(t *testing.T) {
	t.Parallel()

	fake := &fakeParser{name: "fake", available: true}
	d := NewDecoder(WithDecodeBackends(fake))

	opts := []ParserOptions{
		{DisallowedTypes: []string{"yaml"}},
		{},
		{DisallowedTypes: []string{}},
		{DisallowedTypes: []string{"integer", "symbol"}},
	}
	for _, o := range opts {
		_, err := d.Parse("<ok>1</ok>", o)
		require.NoError(t, err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, opts, fake.calls)
}

func TestBackendResolution_Once(t *testing.T) {
	t.Parallel()

	skipped := &fakeParser{name: "skipped"}
	chosen := &fakeParser{name: "chosen", available: true}
	d := NewDecoder(WithDecodeBackends(skipped, chosen))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Parse("<ok>1</ok>", ParserOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), skipped.probes.Load())
	assert.Equal(t, int32(1), chosen.probes.Load())

	name, err := d.Backend()
	require.NoError(t, err)
	assert.Equal(t, "chosen", name)
	assert.Equal(t, int32(1), chosen.probes.Load())
}

func TestBackendResolution_Missing(t *testing.T) {
	t.Parallel()

	t.Run("decoder", func(t *testing.T) {
		t.Parallel()

		a := &fakeParser{name: "a"}
		b := &fakeParser{name: "b"}
		opts := []DecoderOption{WithDecodeBackends(a, b)}

		_, err := BuildDecoder(opts...)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingBackend))

		var missing *MissingBackendError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "decoder", missing.Component)
		assert.Equal(t, []string{"a", "b"}, missing.Tried)
		assert.Equal(t, "decoder: missing xml backend (tried a, b)", missing.Error())

		d := NewDecoder(opts...)
		for i := 0; i < 3; i++ {
			_, err := d.Parse("<ok/>", ParserOptions{})
			assert.True(t, errors.Is(err, ErrMissingBackend))
		}
		assert.Equal(t, int32(2), a.probes.Load())
	})

	t.Run("encoder", func(t *testing.T) {
		t.Parallel()

		off := &fakeMarkup{name: "off"}
		e := NewEncoder(WithEncodeBackends(off))

		for i := 0; i < 3; i++ {
			_, err := e.Encode(sferik())
			assert.True(t, errors.Is(err, ErrMissingBackend))
		}
		assert.Equal(t, int32(1), off.probes.Load())

		_, err := e.Backend()
		assert.True(t, errors.Is(err, ErrMissingBackend))
	})

	t.Run("no backends", func(t *testing.T) {
		t.Parallel()

		_, err := BuildEncoder(WithEncodeBackends())
		require.Error(t, err)
		assert.Equal(t, "encoder: missing xml backend: no backends configured", err.Error())
	})
}

func TestBackendPanics_BecomeErrors(t *testing.T) {
	t.Parallel()

	_, err := NewDecoder(WithDecodeBackends(&fakeParser{name: "p", available: true, panics: true})).
		Parse("<ok/>", ParserOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecodingFailed))
	assert.Contains(t, err.Error(), "parser exploded")

	_, err = NewEncoder(WithEncodeBackends(&fakeMarkup{name: "m", available: true, panics: true})).
		Encode(sferik())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEncodingFailed))
	assert.Contains(t, err.Error(), "start exploded")
}

func TestFallbackBackend(t *testing.T) {
	t.Parallel()

	off := &fakeMarkup{name: "off"}
	e := NewEncoder(WithEncodeBackends(off, StdlibMarkup()), WithIndent(0))

	out, err := e.Encode(sferik())
	require.NoError(t, err)
	assert.Equal(t, "<user><name>Erik Michaels-Ober</name><screen_name>sferik</screen_name></user>", out)

	name, err := e.Backend()
	require.NoError(t, err)
	assert.Equal(t, "stdlib", name)
}

func TestGetCodecMetrics(t *testing.T) {
	t.Parallel()

	m1 := GetCodecMetrics()
	m2 := GetCodecMetrics()
	require.NotNil(t, m1)
	assert.Same(t, m1, m2)

	registry := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		m1.MustRegister(registry)
		m1.RecordEncode("stdlib", "success", 0.001)
		m1.RecordDecode("stdlib", "error", 0.002)
		m1.RecordResolution("decoder", "stdlib")
	})

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
