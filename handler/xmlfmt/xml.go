// Package xmlfmt implements the XML document handler.
//
// A parsed document is a DocumentType node holding the prolog
// (declaration, processing instructions, comments, doctype) and exactly one
// root element. Namespaces are not resolved: prefixed names and xmlns
// attributes are kept verbatim. Attribute order is preserved and duplicate
// attributes are rejected.
//
// Whitespace only text is dropped from elements that have no other
// character data, since it is indentation; as soon as an element holds
// non-blank text all of its text is mixed content and is kept exactly.
package xmlfmt

import (
	"bytes"
	"unicode/utf8"

	"github.com/signadot/tony-format/treedoc/debug"
	"github.com/signadot/tony-format/treedoc/format"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"
)

// DoctypeName is the processing instruction name used to carry a
// <!DOCTYPE ...> declaration through the tree.
const DoctypeName = "!DOCTYPE"

type Handler struct{}

func New() *Handler {
	return &Handler{}
}

func (h *Handler) Format() format.Format {
	return format.XMLFormat
}

func (h *Handler) Metadata() handler.Metadata {
	return handler.MetadataOf(format.XMLFormat)
}

func (h *Handler) Validate(d []byte) handler.Result {
	return handler.Validate(h, d)
}

// Detect accepts input starting with a declaration, comment, doctype or
// start tag.
func (h *Handler) Detect(d []byte) bool {
	p := handler.Prefix(d)
	if len(p) < 2 || p[0] != '<' {
		return false
	}
	if bytes.HasPrefix(p, []byte("<?")) || bytes.HasPrefix(p, []byte("<!--")) ||
		bytes.HasPrefix(p, []byte("<!DOCTYPE")) {
		return true
	}
	if r, _ := utf8.DecodeRune(p[1:]); !isNameStart(r) {
		return false
	}
	// a start tag must close within the window
	return bytes.IndexByte(p, '>') != -1
}

func (h *Handler) Parse(d []byte) (*ir.Node, error) {
	if handler.Blank(d) {
		return nil, handler.NewParseError(format.XMLFormat, handler.EmptyDocument, d, -1, "no root element")
	}
	s := &scanner{d: d}
	if bytes.HasPrefix(d, []byte("\xef\xbb\xbf")) {
		s.i = 3
	}
	doc, err := s.document()
	if err != nil {
		return nil, err
	}
	if debug.Parse() {
		debug.Logf("xml: parsed %d bytes, %d top level nodes\n", len(d), len(doc.Values))
	}
	return doc, nil
}
