package xmlcodec

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// stdlibMarkup is the encoding/xml token encoder backend. It is always
// available and serves as the last fallback.
type stdlibMarkup struct{}

// StdlibMarkup returns the encoding/xml encode backend.
func StdlibMarkup() EncodeBackend {
	return stdlibMarkup{}
}

func (stdlibMarkup) Name() string    { return "stdlib" }
func (stdlibMarkup) Available() bool { return true }

func (stdlibMarkup) NewMarkup(cfg EncoderConfig) Markup {
	w := &tokenMarkup{declaration: cfg.Declaration}
	w.enc = xml.NewEncoder(&w.buf)
	if cfg.Indent > 0 {
		w.enc.Indent("", strings.Repeat(" ", cfg.Indent))
	}
	return w
}

// tokenMarkup writes element events through xml.Encoder.
type tokenMarkup struct {
	buf         bytes.Buffer
	enc         *xml.Encoder
	declaration bool
	started     bool
}

func (w *tokenMarkup) begin() error {
	if w.started {
		return nil
	}
	w.started = true
	if !w.declaration {
		return nil
	}
	return w.enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(xmlDeclaration)})
}

func (w *tokenMarkup) Start(name string) error {
	if err := w.begin(); err != nil {
		return err
	}
	return w.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}})
}

func (w *tokenMarkup) Leaf(name, text string) error {
	if err := w.Start(name); err != nil {
		return err
	}
	if text != "" {
		if err := w.enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	return w.End(name)
}

func (w *tokenMarkup) End(name string) error {
	return w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *tokenMarkup) Finish() (string, error) {
	if err := w.begin(); err != nil {
		return "", err
	}
	if err := w.enc.Flush(); err != nil {
		return "", err
	}
	return w.buf.String(), nil
}
