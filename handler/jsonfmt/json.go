// Package jsonfmt implements the JSON document handler.
//
// Object key order is preserved from input to output, numbers keep their
// textual form and null is a distinct value. A repeated key keeps its
// first position and takes the last value.
package jsonfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/signadot/tony-format/treedoc/debug"
	"github.com/signadot/tony-format/treedoc/format"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"
)

type Handler struct{}

func New() *Handler {
	return &Handler{}
}

func (h *Handler) Format() format.Format {
	return format.JSONFormat
}

func (h *Handler) Metadata() handler.Metadata {
	return handler.MetadataOf(format.JSONFormat)
}

func (h *Handler) Validate(d []byte) handler.Result {
	return handler.Validate(h, d)
}

// Detect accepts input that opens an object with a quoted key, or an
// array that is valid JSON within the detection window.
func (h *Handler) Detect(d []byte) bool {
	p := handler.Prefix(d)
	if len(p) == 0 {
		return false
	}
	switch p[0] {
	case '{':
		rest := bytes.TrimLeft(p[1:], " \t\r\n")
		return len(rest) == 0 || rest[0] == '"' || rest[0] == '}'
	case '[':
		if len(d) <= handler.DetectLimit {
			return json.Valid(d)
		}
		rest := bytes.TrimLeft(p[1:], " \t\r\n")
		if len(rest) == 0 || bytes.Contains(p, []byte("](")) {
			return false
		}
		switch c := rest[0]; {
		case c == '"', c == '{', c == '[', c == ']', c == '-', c == 't', c == 'f', c == 'n':
			return true
		case c >= '0' && c <= '9':
			return true
		}
		return false
	case '"':
		return len(d) <= handler.DetectLimit && json.Valid(d)
	}
	return false
}

func (h *Handler) Parse(d []byte) (*ir.Node, error) {
	if handler.Blank(d) {
		return nil, handler.NewParseError(format.JSONFormat, handler.EmptyDocument, d, -1, "no JSON value")
	}
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	p := &parser{dec: dec, d: d}
	node, err := p.value()
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, p.wrap(err)
		}
		return nil, handler.NewParseError(format.JSONFormat, handler.SyntaxError, d, int(dec.InputOffset()),
			"unexpected data after top-level value")
	}
	if debug.Parse() {
		debug.Logf("json: parsed %d bytes into %s\n", len(d), debug.Node{Node: node})
	}
	return node, nil
}

type parser struct {
	dec *json.Decoder
	d   []byte
}

func (p *parser) wrap(err error) error {
	var se *json.SyntaxError
	switch {
	case errors.As(err, &se):
		return &handler.ParseError{
			Format:  format.JSONFormat,
			Kind:    handler.SyntaxError,
			Content: string(p.d),
			Msg:     se.Error(),
			Line:    lineOf(p.d, int(se.Offset)),
			Col:     colOf(p.d, int(se.Offset)),
			Err:     err,
		}
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		e := handler.NewParseError(format.JSONFormat, handler.UnexpectedEnd, p.d, len(p.d), "unexpected end of JSON input")
		e.Err = err
		return e
	}
	e := handler.NewParseError(format.JSONFormat, handler.SyntaxError, p.d, int(p.dec.InputOffset()), "%s", err.Error())
	e.Err = err
	return e
}

func lineOf(d []byte, off int) int {
	l, _ := handler.LineCol(d, off)
	return l
}

func colOf(d []byte, off int) int {
	_, c := handler.LineCol(d, off)
	return c
}

func (p *parser) value() (*ir.Node, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return nil, p.wrap(err)
	}
	switch x := tok.(type) {
	case json.Delim:
		switch x {
		case '{':
			return p.object()
		case '[':
			return p.array()
		}
		return nil, handler.NewParseError(format.JSONFormat, handler.SyntaxError, p.d, int(p.dec.InputOffset()),
			"unexpected %q", string(x))
	case string:
		return ir.FromString(x), nil
	case json.Number:
		n, err := ir.FromNumber(string(x))
		if err != nil {
			return nil, p.wrap(err)
		}
		return n, nil
	case bool:
		return ir.FromBool(x), nil
	case nil:
		return ir.Null(), nil
	}
	return nil, fmt.Errorf("%w: unexpected json token %T", handler.ErrParse, tok)
}

func (p *parser) object() (*ir.Node, error) {
	var kvs []ir.KeyVal
	for p.dec.More() {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.wrap(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, handler.NewParseError(format.JSONFormat, handler.SyntaxError, p.d, int(p.dec.InputOffset()),
				"object key must be a string")
		}
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		kvs = append(kvs, ir.KeyVal{Key: key, Val: val})
	}
	if err := p.closing('}'); err != nil {
		return nil, err
	}
	return ir.FromKeyVals(kvs), nil
}

func (p *parser) array() (*ir.Node, error) {
	vals := []*ir.Node{}
	for p.dec.More() {
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		vals = append(vals, val)
	}
	if err := p.closing(']'); err != nil {
		return nil, err
	}
	return ir.FromSlice(vals), nil
}

func (p *parser) closing(c json.Delim) error {
	tok, err := p.dec.Token()
	if err != nil {
		return p.wrap(err)
	}
	if tok != c {
		return handler.NewParseError(format.JSONFormat, handler.SyntaxError, p.d, int(p.dec.InputOffset()),
			"expected %q", string(c))
	}
	return nil
}
