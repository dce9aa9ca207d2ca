package xmlcodec

import (
	"fmt"
	"sync"
)

// DefaultDisallowedTypes is the deny list applied when ParserOptions leaves
// DisallowedTypes nil.
var DefaultDisallowedTypes = []string{"yaml", "symbol"}

// ParserOptions are forwarded unchanged to the decode backend on every parse.
type ParserOptions struct {
	// DisallowedTypes lists type hints the parser must refuse to convert.
	// Nil selects DefaultDisallowedTypes; an empty slice allows every hint.
	DisallowedTypes []string
}

// disallowed returns the effective deny set.
func (o ParserOptions) disallowed() map[string]struct{} {
	types := o.DisallowedTypes
	if types == nil {
		types = DefaultDisallowedTypes
	}
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

// Backend is the availability probe shared by encode and decode backends.
type Backend interface {
	// Name identifies the backend in errors, logs and metrics.
	Name() string

	// Available reports whether the backend can be used in this build.
	Available() bool
}

// Markup receives the element events produced by Encoder and renders them.
type Markup interface {
	// Start opens a named element.
	Start(name string) error

	// Leaf writes a complete element holding escaped text.
	Leaf(name, text string) error

	// End closes the innermost open element.
	End(name string) error

	// Finish returns the rendered document.
	Finish() (string, error)
}

// EncodeBackend creates markup writers.
type EncodeBackend interface {
	Backend

	// NewMarkup returns a writer configured for one encode call.
	NewMarkup(cfg EncoderConfig) Markup
}

// DecodeBackend turns XML text into a Value.
type DecodeBackend interface {
	Backend

	// Parse decodes a whole document.
	Parse(xml string, opts ParserOptions) (Value, error)
}

// handle resolves the first available backend once and memoizes the
// outcome, including failure.
type handle[B Backend] struct {
	once    sync.Once
	backend B
	err     error
}

// resolve probes backends in order on first use. Later calls return the
// memoized result without probing again.
func (h *handle[B]) resolve(component string, backends []B, onResolve func(name string)) (B, error) {
	h.once.Do(func() {
		tried := make([]string, 0, len(backends))
		for _, b := range backends {
			tried = append(tried, b.Name())
			if b.Available() {
				h.backend = b
				if onResolve != nil {
					onResolve(b.Name())
				}
				return
			}
		}
		h.err = &MissingBackendError{Component: component, Tried: tried}
	})
	return h.backend, h.err
}

// recovered converts a recovered panic into an error.
func recovered(operation string, r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic during %s: %w", operation, err)
	}
	return fmt.Errorf("panic during %s: %v", operation, r)
}
