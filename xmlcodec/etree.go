//go:build !httpxml_noetree

package xmlcodec

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// etreeMarkup builds an etree document and serializes it.
type etreeMarkup struct{}

// EtreeMarkup returns the github.com/beevik/etree encode backend.
func EtreeMarkup() EncodeBackend {
	return etreeMarkup{}
}

func (etreeMarkup) Name() string    { return "etree" }
func (etreeMarkup) Available() bool { return true }

func (etreeMarkup) NewMarkup(cfg EncoderConfig) Markup {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalEndTags = true
	doc.WriteSettings.CanonicalText = true
	if cfg.Declaration {
		doc.CreateProcInst("xml", xmlDeclaration)
	}
	return &treeMarkup{doc: doc, indent: cfg.Indent, stack: []*etree.Element{&doc.Element}}
}

type treeMarkup struct {
	doc    *etree.Document
	indent int
	stack  []*etree.Element
}

func (w *treeMarkup) top() *etree.Element {
	return w.stack[len(w.stack)-1]
}

func (w *treeMarkup) Start(name string) error {
	w.stack = append(w.stack, w.top().CreateElement(name))
	return nil
}

func (w *treeMarkup) Leaf(name, text string) error {
	el := w.top().CreateElement(name)
	if text != "" {
		el.SetText(text)
	}
	return nil
}

func (w *treeMarkup) End(name string) error {
	if len(w.stack) < 2 || w.top().FullTag() != name {
		return fmt.Errorf("unbalanced end of element <%s>", name)
	}
	w.stack = w.stack[:len(w.stack)-1]
	return nil
}

func (w *treeMarkup) Finish() (string, error) {
	if len(w.stack) != 1 {
		return "", fmt.Errorf("element <%s> left open", w.top().FullTag())
	}
	if w.indent > 0 {
		w.doc.Indent(w.indent)
	}
	out, err := w.doc.WriteToString()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// etreeParser reads documents into an etree tree. The etree reader rejects
// unbalanced and unclosed elements; document shape is checked here.
type etreeParser struct{}

// EtreeParser returns the github.com/beevik/etree decode backend.
func EtreeParser() DecodeBackend {
	return etreeParser{}
}

func (etreeParser) Name() string    { return "etree" }
func (etreeParser) Available() bool { return true }

func (etreeParser) Parse(data string, opts ParserOptions) (Value, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromString(data); err != nil {
		return nil, err
	}

	var root *etree.Element
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if root != nil {
				return nil, ErrMultipleRoots
			}
			root = t
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return nil, fmt.Errorf("text outside root element: %q", strings.TrimSpace(t.Data))
			}
		}
	}
	if root == nil {
		return nil, ErrNoRootElement
	}
	return documentValue(fromEtree(root), opts)
}

func fromEtree(src *etree.Element) *element {
	el := &element{name: src.FullTag()}
	for _, attr := range src.Attr {
		switch attr.Key {
		case "type":
			el.typeHint = attr.Value
		case "nil":
			el.isNil = attr.Value == "true"
		}
	}
	for _, tok := range src.Child {
		switch t := tok.(type) {
		case *etree.Element:
			el.children = append(el.children, fromEtree(t))
		case *etree.CharData:
			el.text.WriteString(t.Data)
		}
	}
	return el
}
