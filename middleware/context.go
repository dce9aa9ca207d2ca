package middleware

import (
	"context"

	"github.com/vyrodovalexey/httpxml/xmlcodec"
)

type parserOptionsKey struct{}

type preserveRawKey struct{}

// WithParserOptions returns a context whose calls decode with opts instead
// of the options the Response stage was configured with.
func WithParserOptions(ctx context.Context, opts xmlcodec.ParserOptions) context.Context {
	return context.WithValue(ctx, parserOptionsKey{}, opts)
}

// ParserOptionsFromContext returns the per-call parser options, if any.
func ParserOptionsFromContext(ctx context.Context) (xmlcodec.ParserOptions, bool) {
	opts, ok := ctx.Value(parserOptionsKey{}).(xmlcodec.ParserOptions)
	return opts, ok
}

// WithPreserveRaw returns a context overriding whether the raw response
// body is kept.
func WithPreserveRaw(ctx context.Context, preserve bool) context.Context {
	return context.WithValue(ctx, preserveRawKey{}, preserve)
}

// PreserveRawFromContext returns the per-call preserve setting, if any.
func PreserveRawFromContext(ctx context.Context) (bool, bool) {
	preserve, ok := ctx.Value(preserveRawKey{}).(bool)
	return preserve, ok
}
