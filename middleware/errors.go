package middleware

import (
	"errors"
	"fmt"

	"github.com/vyrodovalexey/httpxml/pipeline"
)

// ErrParsing indicates that a response body could not be decoded.
var ErrParsing = errors.New("xml parsing error")

// ParsingError wraps a decode failure together with the response whose
// body failed to decode.
type ParsingError struct {
	Err      error
	Response *pipeline.Response
}

func (e *ParsingError) Error() string {
	if e.Err == nil {
		return ErrParsing.Error()
	}
	return fmt.Sprintf("%s: %s", ErrParsing, e.Err)
}

// Unwrap exposes both ErrParsing and the decoder error to errors.Is.
func (e *ParsingError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParsing}
	}
	return []error{ErrParsing, e.Err}
}
