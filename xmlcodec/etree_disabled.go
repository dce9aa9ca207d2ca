//go:build httpxml_noetree

package xmlcodec

// Built with httpxml_noetree: the etree backends report themselves
// unavailable and resolution falls through to encoding/xml.

type etreeMarkup struct{}

// EtreeMarkup returns an unavailable encode backend.
func EtreeMarkup() EncodeBackend {
	return etreeMarkup{}
}

func (etreeMarkup) Name() string    { return "etree" }
func (etreeMarkup) Available() bool { return false }

func (etreeMarkup) NewMarkup(EncoderConfig) Markup {
	panic("xmlcodec: etree backend not compiled in")
}

type etreeParser struct{}

// EtreeParser returns an unavailable decode backend.
func EtreeParser() DecodeBackend {
	return etreeParser{}
}

func (etreeParser) Name() string    { return "etree" }
func (etreeParser) Available() bool { return false }

func (etreeParser) Parse(string, ParserOptions) (Value, error) {
	return nil, &MissingBackendError{Component: "decoder", Tried: []string{"etree"}}
}
