package xmlcodec

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// stdlibParser walks encoding/xml tokens in strict mode. It is always
// available and serves as the last fallback.
type stdlibParser struct{}

// StdlibParser returns the encoding/xml decode backend.
func StdlibParser() DecodeBackend {
	return stdlibParser{}
}

func (stdlibParser) Name() string    { return "stdlib" }
func (stdlibParser) Available() bool { return true }

func (stdlibParser) Parse(data string, opts ParserOptions) (Value, error) {
	dec := xml.NewDecoder(strings.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charsetReader

	var (
		root  *element
		stack []*element
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name.Local}
			for _, attr := range t.Attr {
				switch attr.Name.Local {
				case "type":
					el.typeHint = attr.Value
				case "nil":
					el.isNil = attr.Value == "true"
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, ErrMultipleRoots
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, fmt.Errorf("text outside root element: %q", strings.TrimSpace(string(t)))
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}

	if root == nil {
		return nil, ErrNoRootElement
	}
	return documentValue(root, opts)
}
