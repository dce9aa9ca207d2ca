// Package config provides configuration for the XML middleware pair.
package config

import (
	"github.com/vyrodovalexey/httpxml/contenttype"
	"github.com/vyrodovalexey/httpxml/internal/observability"
	"github.com/vyrodovalexey/httpxml/xmlcodec"
)

// MiddlewareName is the symbolic name both XML stages register under.
const MiddlewareName = "xml"

// Config is the root configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Request  RequestConfig  `yaml:"request"`
	Response ResponseConfig `yaml:"response"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
	Output string `yaml:"output" validate:"omitempty,oneof=stdout stderr"`
}

// RequestConfig configures the request transform.
type RequestConfig struct {
	Encoder EncoderConfig `yaml:"encoder"`
}

// EncoderConfig configures XML rendering of request bodies.
type EncoderConfig struct {
	Indent      int    `yaml:"indent" validate:"min=0,max=16"`
	Declaration bool   `yaml:"declaration"`
	Root        string `yaml:"root,omitempty" validate:"omitempty,xmlname"`
}

// ResponseConfig configures the response transform.
type ResponseConfig struct {
	// ContentTypes are exact media types that select decoding.
	ContentTypes []string `yaml:"contentTypes,omitempty" validate:"dive,required"`

	// ContentTypePatterns are regular expressions that select decoding.
	ContentTypePatterns []string `yaml:"contentTypePatterns,omitempty" validate:"dive,required,regexp"`

	// PreserveRaw keeps the undecoded body next to the decoded one.
	PreserveRaw bool `yaml:"preserveRaw"`

	Parser ParserConfig `yaml:"parser"`
}

// ParserConfig configures XML decoding.
type ParserConfig struct {
	// DisallowedTypes lists refused type hints. Absent selects the
	// decoder default, an empty list allows every hint.
	DisallowedTypes []string `yaml:"disallowedTypes" validate:"omitempty,dive,required"`
}

// PipelineConfig names the stages a connection is built from.
type PipelineConfig struct {
	Request  []string `yaml:"request" validate:"dive,required"`
	Response []string `yaml:"response" validate:"dive,required"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: observability.FormatJSON,
			Output: "stderr",
		},
		Request: RequestConfig{
			Encoder: EncoderConfig{
				Indent: xmlcodec.DefaultIndent,
			},
		},
		Pipeline: PipelineConfig{
			Request:  []string{MiddlewareName},
			Response: []string{MiddlewareName},
		},
	}
}

// IsEmpty reports whether the response section selects nothing, in which
// case the default content type spec applies.
func (c *ResponseConfig) IsEmpty() bool {
	return c == nil || (len(c.ContentTypes) == 0 && len(c.ContentTypePatterns) == 0)
}

// Spec builds the content type spec of the response transform.
func (c *ResponseConfig) Spec() (contenttype.Spec, error) {
	if c.IsEmpty() {
		return contenttype.ResponseSpec(), nil
	}
	return contenttype.Parse(c.ContentTypes, c.ContentTypePatterns)
}

// ParserOptions converts the parser section for the decoder.
func (c *ParserConfig) ParserOptions() xmlcodec.ParserOptions {
	if c.DisallowedTypes == nil {
		return xmlcodec.ParserOptions{}
	}
	types := make([]string, len(c.DisallowedTypes))
	copy(types, c.DisallowedTypes)
	return xmlcodec.ParserOptions{DisallowedTypes: types}
}

// CodecConfig converts the encoder section for the encoder.
func (c *EncoderConfig) CodecConfig() xmlcodec.EncoderConfig {
	return xmlcodec.EncoderConfig{
		Indent:      c.Indent,
		Declaration: c.Declaration,
		Root:        c.Root,
	}
}

// LogConfig converts the logging section for the logger.
func (c *LoggingConfig) LogConfig() observability.LogConfig {
	return observability.LogConfig{
		Level:  c.Level,
		Format: c.Format,
		Output: c.Output,
	}
}
