package xmlcodec

import (
	"fmt"
	"time"

	"github.com/vyrodovalexey/httpxml/internal/observability"
)

// DecoderOption is a functional option for configuring the Decoder.
type DecoderOption func(*Decoder)

// WithDecodeBackends sets the backends probed, in priority order.
func WithDecodeBackends(backends ...DecodeBackend) DecoderOption {
	return func(d *Decoder) {
		d.backends = backends
	}
}

// WithDecoderLogger sets the logger for the decoder.
func WithDecoderLogger(logger observability.Logger) DecoderOption {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Decoder parses XML text into structured values. It is safe for
// concurrent use.
type Decoder struct {
	backends []DecodeBackend
	handle   handle[DecodeBackend]
	logger   observability.Logger
	metrics  *CodecMetrics
}

// DefaultDecodeBackends returns the decode backends in priority order.
func DefaultDecodeBackends() []DecodeBackend {
	return []DecodeBackend{EtreeParser(), StdlibParser()}
}

// NewDecoder creates a Decoder. The backend is resolved on first use.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		backends: DefaultDecodeBackends(),
		logger:   observability.NopLogger(),
		metrics:  GetCodecMetrics(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// BuildDecoder creates a Decoder and validates it immediately.
func BuildDecoder(opts ...DecoderOption) (*Decoder, error) {
	d := NewDecoder(opts...)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate parses a trivial document to prove a backend works.
func (d *Decoder) Validate() error {
	_, err := d.Parse("<success>true</success>", ParserOptions{})
	return err
}

// Backend returns the name of the resolved backend.
func (d *Decoder) Backend() (string, error) {
	b, err := d.backend()
	if err != nil {
		return "", err
	}
	return b.Name(), nil
}

func (d *Decoder) backend() (DecodeBackend, error) {
	return d.handle.resolve("decoder", d.backends, func(name string) {
		d.metrics.RecordResolution("decoder", name)
		d.logger.Debug("xml decode backend resolved", observability.String("backend", name))
	})
}

// Parse decodes a whole document into a *Map holding the root element.
// opts is handed to the backend unchanged.
func (d *Decoder) Parse(xml string, opts ParserOptions) (v Value, err error) {
	b, err := d.backend()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = fmt.Errorf("%w: %w", ErrDecodingFailed, recovered("decode", r))
		}
		result := "success"
		if err != nil {
			result = "error"
		}
		d.metrics.RecordDecode(b.Name(), result, time.Since(start).Seconds())
	}()

	v, err = b.Parse(xml, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodingFailed, err)
	}
	return v, nil
}
