package xmlcodec

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrMissingBackend indicates that no transcoding backend is available.
	ErrMissingBackend = errors.New("missing xml backend")

	// ErrEncodingFailed indicates that encoding failed.
	ErrEncodingFailed = errors.New("xml encoding failed")

	// ErrDecodingFailed indicates that decoding failed.
	ErrDecodingFailed = errors.New("xml decoding failed")

	// ErrUnsupportedValue indicates a value shape the encoder cannot render.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrNoRootElement indicates a document without a root element.
	ErrNoRootElement = errors.New("no root element")

	// ErrMultipleRoots indicates a document with more than one root element.
	ErrMultipleRoots = errors.New("multiple root elements")

	// ErrDisallowedType indicates a type hint refused by ParserOptions.
	ErrDisallowedType = errors.New("disallowed type")

	// ErrTypeCast indicates element text that does not fit its type hint.
	ErrTypeCast = errors.New("type cast failed")
)

// MissingBackendError reports that none of the configured backends of a
// component could be used.
type MissingBackendError struct {
	Component string   // "encoder" or "decoder"
	Tried     []string // Backend names probed, in priority order
}

func (e *MissingBackendError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("%s: %s: no backends configured", e.Component, ErrMissingBackend)
	}
	return fmt.Sprintf("%s: %s (tried %s)", e.Component, ErrMissingBackend, strings.Join(e.Tried, ", "))
}

func (e *MissingBackendError) Unwrap() error {
	return ErrMissingBackend
}

// DisallowedTypeError reports a type hint the parser refused to convert.
type DisallowedTypeError struct {
	Type    string // The refused type hint
	Element string // Element carrying the hint
}

func (e *DisallowedTypeError) Error() string {
	return fmt.Sprintf("%s %q on element <%s>", ErrDisallowedType, e.Type, e.Element)
}

func (e *DisallowedTypeError) Unwrap() error {
	return ErrDisallowedType
}
