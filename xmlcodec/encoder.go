package xmlcodec

import (
	"fmt"
	"time"

	"github.com/vyrodovalexey/httpxml/internal/observability"
)

// DefaultIndent is the number of spaces used for pretty printing.
const DefaultIndent = 2

// xmlDeclaration is emitted when EncoderConfig.Declaration is set.
const xmlDeclaration = `version="1.0" encoding="UTF-8"`

// EncoderConfig configures an Encoder. It is copied at construction and
// never modified afterwards.
type EncoderConfig struct {
	// Indent is the number of spaces per nesting level. Zero disables
	// pretty printing.
	Indent int

	// Declaration prepends <?xml version="1.0" encoding="UTF-8"?>.
	Declaration bool

	// Root wraps the whole output in an element of this name.
	Root string
}

// DefaultEncoderConfig returns the configuration used by NewEncoder.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{Indent: DefaultIndent}
}

// EncoderOption is a functional option for configuring the Encoder.
type EncoderOption func(*Encoder)

// WithEncoderConfig replaces the whole encoder configuration.
func WithEncoderConfig(cfg EncoderConfig) EncoderOption {
	return func(e *Encoder) {
		e.cfg = cfg
	}
}

// WithIndent sets the pretty print indentation.
func WithIndent(spaces int) EncoderOption {
	return func(e *Encoder) {
		e.cfg.Indent = spaces
	}
}

// WithDeclaration toggles the XML declaration.
func WithDeclaration(enabled bool) EncoderOption {
	return func(e *Encoder) {
		e.cfg.Declaration = enabled
	}
}

// WithRoot wraps output in a root element.
func WithRoot(name string) EncoderOption {
	return func(e *Encoder) {
		e.cfg.Root = name
	}
}

// WithEncodeBackends sets the backends probed, in priority order.
func WithEncodeBackends(backends ...EncodeBackend) EncoderOption {
	return func(e *Encoder) {
		e.backends = backends
	}
}

// WithEncoderLogger sets the logger for the encoder.
func WithEncoderLogger(logger observability.Logger) EncoderOption {
	return func(e *Encoder) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Encoder renders structured values as XML text. It is safe for concurrent use.
type Encoder struct {
	cfg      EncoderConfig
	backends []EncodeBackend
	handle   handle[EncodeBackend]
	logger   observability.Logger
	metrics  *CodecMetrics
}

// DefaultEncodeBackends returns the encode backends in priority order.
func DefaultEncodeBackends() []EncodeBackend {
	return []EncodeBackend{EtreeMarkup(), StdlibMarkup()}
}

// NewEncoder creates an Encoder. The backend is resolved on first use.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{
		cfg:      DefaultEncoderConfig(),
		backends: DefaultEncodeBackends(),
		logger:   observability.NopLogger(),
		metrics:  GetCodecMetrics(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cfg.Indent < 0 {
		e.cfg.Indent = 0
	}

	return e
}

// BuildEncoder creates an Encoder and validates it immediately, so a
// missing backend fails construction instead of the first real encode.
func BuildEncoder(opts ...EncoderOption) (*Encoder, error) {
	e := NewEncoder(opts...)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate encodes a trivial document to prove a backend works.
func (e *Encoder) Validate() error {
	_, err := e.Encode(NewMap(Pair("success", ScalarOf(true))))
	return err
}

// Config returns the encoder configuration.
func (e *Encoder) Config() EncoderConfig {
	return e.cfg
}

// Backend returns the name of the resolved backend.
func (e *Encoder) Backend() (string, error) {
	b, err := e.backend()
	if err != nil {
		return "", err
	}
	return b.Name(), nil
}

func (e *Encoder) backend() (EncodeBackend, error) {
	return e.handle.resolve("encoder", e.backends, func(name string) {
		e.metrics.RecordResolution("encoder", name)
		e.logger.Debug("xml encode backend resolved", observability.String("backend", name))
	})
}

// Encode renders v. The top-level value must be a *Map or a List of *Map.
func (e *Encoder) Encode(v Value) (out string, err error) {
	b, err := e.backend()
	if err != nil {
		return "", err
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %w", ErrEncodingFailed, recovered("encode", r))
		}
		result := "success"
		if err != nil {
			result = "error"
		}
		e.metrics.RecordEncode(b.Name(), result, time.Since(start).Seconds())
	}()

	markup := b.NewMarkup(e.cfg)
	if err := e.render(markup, v); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncodingFailed, err)
	}

	out, err = markup.Finish()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncodingFailed, err)
	}
	return out, nil
}

func (e *Encoder) render(markup Markup, v Value) error {
	if e.cfg.Root != "" {
		if err := markup.Start(e.cfg.Root); err != nil {
			return err
		}
	}

	switch val := v.(type) {
	case *Map:
		if err := writeMap(markup, val); err != nil {
			return err
		}
	case List:
		if err := writeList(markup, val); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: top-level %T", ErrUnsupportedValue, v)
	}

	if e.cfg.Root != "" {
		return markup.End(e.cfg.Root)
	}
	return nil
}

// writeMap renders each entry as an element named after its key.
func writeMap(markup Markup, m *Map) error {
	for _, entry := range m.Entries() {
		switch val := entry.Value.(type) {
		case *Map:
			if err := markup.Start(entry.Key); err != nil {
				return err
			}
			if err := writeMap(markup, val); err != nil {
				return err
			}
			if err := markup.End(entry.Key); err != nil {
				return err
			}
		case List:
			if err := markup.Start(entry.Key); err != nil {
				return err
			}
			if err := writeList(markup, val); err != nil {
				return fmt.Errorf("key %q: %w", entry.Key, err)
			}
			if err := markup.End(entry.Key); err != nil {
				return err
			}
		case Scalar:
			if err := markup.Leaf(entry.Key, val.String()); err != nil {
				return err
			}
		case nil:
			if err := markup.Leaf(entry.Key, ""); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %T under key %q", ErrUnsupportedValue, entry.Value, entry.Key)
		}
	}
	return nil
}

// writeList renders every item as map content with no wrapping element;
// the enclosing element comes from the parent key.
func writeList(markup Markup, list List) error {
	for i, item := range list {
		m, ok := item.(*Map)
		if !ok {
			return fmt.Errorf("%w: list item %d is a %s, want map", ErrUnsupportedValue, i, kindOf(item))
		}
		if err := writeMap(markup, m); err != nil {
			return err
		}
	}
	return nil
}

func kindOf(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}
