package xmlfmt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"
)

// Encode writes node as XML. node is either a document or an element;
// data kinds (objects, arrays, scalars) fail with handler.ErrEncode.
//
// Elements whose children include character data are written inline so
// that mixed content survives unchanged; other elements put each child
// on its own indented line unless compact output is requested.
// Comments are left out when encode.EncodeComments(false) is given.
func (h *Handler) Encode(node *ir.Node, w io.Writer, opts ...encode.EncodeOption) error {
	if node == nil {
		return fmt.Errorf("%w: xml cannot encode an empty document", handler.ErrEncode)
	}
	es := encode.NewEncState(opts...)
	bw := bufio.NewWriter(w)
	switch node.Type {
	case ir.DocumentType:
		for i, c := range children(es, node) {
			if i > 0 {
				bw.WriteString(es.Newline())
			}
			if err := encodeNode(bw, es, c, 0, false); err != nil {
				return err
			}
		}
	default:
		if err := encodeNode(bw, es, node, 0, false); err != nil {
			return err
		}
	}
	bw.WriteString(es.Newline())
	return bw.Flush()
}

func encodeNode(w *bufio.Writer, es *encode.EncState, node *ir.Node, depth int, inline bool) error {
	switch node.Type {
	case ir.ElementType:
		return encodeElement(w, es, node, depth, inline)
	case ir.TextType:
		w.WriteString(EscapeText(node.String))
	case ir.CDataType:
		w.WriteString("<![CDATA[")
		w.WriteString(strings.ReplaceAll(node.String, "]]>", "]]]]><![CDATA[>"))
		w.WriteString("]]>")
	case ir.CommentType:
		if strings.Contains(node.String, "--") || strings.HasSuffix(node.String, "-") {
			return fmt.Errorf("%w: comment at %q contains '--'", handler.ErrEncode, node.KPath())
		}
		w.WriteString("<!--")
		w.WriteString(node.String)
		w.WriteString("-->")
	case ir.ProcInstType:
		if node.Name == DoctypeName {
			w.WriteString("<!DOCTYPE ")
			w.WriteString(node.String)
			w.WriteByte('>')
			return nil
		}
		if strings.Contains(node.String, "?>") {
			return fmt.Errorf("%w: processing instruction at %q contains '?>'", handler.ErrEncode, node.KPath())
		}
		w.WriteString("<?")
		w.WriteString(node.Name)
		if node.String != "" {
			w.WriteByte(' ')
			w.WriteString(node.String)
		}
		w.WriteString("?>")
	default:
		return fmt.Errorf("%w: xml cannot encode %s node at %q", handler.ErrEncode, node.Type, node.KPath())
	}
	return nil
}

func encodeElement(w *bufio.Writer, es *encode.EncState, node *ir.Node, depth int, inline bool) error {
	if !validName(node.Name) {
		return fmt.Errorf("%w: bad element name %q at %q", handler.ErrEncode, node.Name, node.KPath())
	}
	w.WriteByte('<')
	w.WriteString(node.Name)
	for _, a := range node.Attrs {
		if !validName(a.Name) {
			return fmt.Errorf("%w: bad attribute name %q at %q", handler.ErrEncode, a.Name, node.KPath())
		}
		w.WriteByte(' ')
		w.WriteString(a.Name)
		w.WriteString(`="`)
		w.WriteString(EscapeAttr(a.Value))
		w.WriteByte('"')
	}
	kids := children(es, node)
	if len(kids) == 0 {
		if node.SelfClose && len(node.Values) == 0 {
			w.WriteString("/>")
		} else {
			w.WriteString("></")
			w.WriteString(node.Name)
			w.WriteByte('>')
		}
		return nil
	}
	w.WriteByte('>')
	inline = inline || hasCharData(node)
	for _, c := range kids {
		if !inline {
			w.WriteString(es.Newline())
			w.WriteString(es.Prefix(depth + 1))
		}
		if err := encodeNode(w, es, c, depth+1, inline); err != nil {
			return err
		}
	}
	if !inline {
		w.WriteString(es.Newline())
		w.WriteString(es.Prefix(depth))
	}
	w.WriteString("</")
	w.WriteString(node.Name)
	w.WriteByte('>')
	return nil
}

// children are the child nodes to write.
func children(es *encode.EncState, node *ir.Node) []*ir.Node {
	if es.Comments() {
		return node.Values
	}
	var res []*ir.Node
	for _, c := range node.Values {
		if c.Type != ir.CommentType {
			res = append(res, c)
		}
	}
	return res
}

func hasCharData(node *ir.Node) bool {
	for _, c := range node.Values {
		if c.Type == ir.TextType || c.Type == ir.CDataType {
			return true
		}
	}
	return false
}

func validName(name string) bool {
	s := &scanner{d: []byte(name)}
	return s.name() == name && name != ""
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", "]]>", "]]&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
		"\n", "&#xA;",
		"\r", "&#xD;",
		"\t", "&#x9;",
	)
)

// EscapeText escapes character data for use between tags.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttr escapes an attribute value for use inside double quotes.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
