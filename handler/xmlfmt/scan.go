package xmlfmt

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/signadot/tony-format/treedoc/format"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"
)

type scanner struct {
	d []byte
	i int
}

func (s *scanner) errAt(off int, kind handler.ErrorKind, msg string, args ...any) *handler.ParseError {
	return handler.NewParseError(format.XMLFormat, kind, s.d, off, msg, args...)
}

func (s *scanner) eof() bool {
	return s.i >= len(s.d)
}

func (s *scanner) has(p string) bool {
	return bytes.HasPrefix(s.d[s.i:], []byte(p))
}

func (s *scanner) skipSpace() {
	for s.i < len(s.d) {
		switch s.d[s.i] {
		case ' ', '\t', '\r', '\n':
			s.i++
		default:
			return
		}
	}
}

// until consumes through the next occurrence of end and returns what
// precedes it.
func (s *scanner) until(end, what string, start int) (string, error) {
	j := bytes.Index(s.d[s.i:], []byte(end))
	if j == -1 {
		return "", s.errAt(start, handler.UnexpectedEnd, "unterminated %s", what)
	}
	res := string(s.d[s.i : s.i+j])
	s.i += j + len(end)
	return res, nil
}

func (s *scanner) document() (*ir.Node, error) {
	doc := ir.NewDocument().WithTag(ir.XMLDocument)
	var root *ir.Node
	for {
		s.skipSpace()
		if s.eof() {
			break
		}
		start := s.i
		if s.d[s.i] != '<' {
			return nil, s.errAt(start, handler.SyntaxError, "character data outside of the root element")
		}
		var (
			n   *ir.Node
			err error
		)
		switch {
		case s.has("<?"):
			n, err = s.procInst()
		case s.has("<!--"):
			n, err = s.comment()
		case s.has("<!DOCTYPE"):
			n, err = s.doctype()
		case s.has("<![CDATA["):
			return nil, s.errAt(start, handler.SyntaxError, "CDATA section outside of the root element")
		case s.has("</"):
			return nil, s.errAt(start, handler.MismatchedTag, "unexpected end tag")
		default:
			if root != nil {
				return nil, s.errAt(start, handler.SyntaxError, "more than one root element")
			}
			n, err = s.element()
			root = n
		}
		if err != nil {
			return nil, err
		}
		appendChild(doc, n)
	}
	if root == nil {
		return nil, s.errAt(len(s.d), handler.UnexpectedEnd, "no root element")
	}
	return doc, nil
}

func appendChild(p, c *ir.Node) {
	c.Parent = p
	c.ParentIndex = len(p.Values)
	p.Values = append(p.Values, c)
}

func (s *scanner) procInst() (*ir.Node, error) {
	start := s.i
	s.i += 2
	target := s.name()
	if target == "" {
		return nil, s.errAt(start, handler.SyntaxError, "processing instruction without target")
	}
	body, err := s.until("?>", "processing instruction", start)
	if err != nil {
		return nil, err
	}
	if body != "" && !isSpace(body[0]) {
		return nil, s.errAt(start, handler.SyntaxError, "bad processing instruction target")
	}
	return ir.NewProcInst(target, strings.TrimLeft(body, " \t\r\n")), nil
}

func (s *scanner) comment() (*ir.Node, error) {
	start := s.i
	s.i += 4
	body, err := s.until("-->", "comment", start)
	if err != nil {
		return nil, err
	}
	if strings.Contains(body, "--") {
		return nil, s.errAt(start, handler.SyntaxError, "'--' inside comment")
	}
	return ir.NewComment(body), nil
}

func (s *scanner) cdata() (*ir.Node, error) {
	start := s.i
	s.i += len("<![CDATA[")
	body, err := s.until("]]>", "CDATA section", start)
	if err != nil {
		return nil, err
	}
	return ir.NewCData(body), nil
}

// doctype keeps the declaration verbatim, including an internal subset.
func (s *scanner) doctype() (*ir.Node, error) {
	start := s.i
	s.i += len("<!DOCTYPE")
	depth := 0
	bodyStart := s.i
	for ; s.i < len(s.d); s.i++ {
		switch s.d[s.i] {
		case '[':
			depth++
		case ']':
			depth--
		case '>':
			if depth == 0 {
				body := strings.TrimSpace(string(s.d[bodyStart:s.i]))
				s.i++
				return ir.NewProcInst(DoctypeName, body), nil
			}
		}
	}
	return nil, s.errAt(start, handler.UnexpectedEnd, "unterminated DOCTYPE")
}

func (s *scanner) element() (*ir.Node, error) {
	start := s.i
	s.i++
	name := s.name()
	if name == "" {
		return nil, s.errAt(start, handler.SyntaxError, "expected element name")
	}
	el := ir.NewElement(name, nil)
	seen := map[string]bool{}
	for {
		hadSpace := s.i < len(s.d) && isSpace(s.d[s.i])
		s.skipSpace()
		if s.eof() {
			return nil, s.errAt(start, handler.UnexpectedEnd, "unterminated start tag <%s", name)
		}
		if s.has("/>") {
			s.i += 2
			el.SelfClose = true
			return el, nil
		}
		if s.d[s.i] == '>' {
			s.i++
			break
		}
		if !hadSpace {
			return nil, s.errAt(s.i, handler.SyntaxError, "expected whitespace before attribute in <%s", name)
		}
		attr, err := s.attr()
		if err != nil {
			return nil, err
		}
		if seen[attr.Name] {
			return nil, s.errAt(s.i, handler.DuplicateName, "duplicate attribute %q in <%s", attr.Name, name)
		}
		seen[attr.Name] = true
		el.Attrs = append(el.Attrs, attr)
	}
	if err := s.content(el, start); err != nil {
		return nil, err
	}
	trimIndentation(el)
	return el, nil
}

func (s *scanner) attr() (ir.Attr, error) {
	start := s.i
	name := s.name()
	if name == "" {
		return ir.Attr{}, s.errAt(start, handler.SyntaxError, "expected attribute name")
	}
	s.skipSpace()
	if s.eof() || s.d[s.i] != '=' {
		return ir.Attr{}, s.errAt(s.i, handler.SyntaxError, "expected '=' after attribute %q", name)
	}
	s.i++
	s.skipSpace()
	if s.eof() {
		return ir.Attr{}, s.errAt(start, handler.UnexpectedEnd, "unterminated attribute %q", name)
	}
	q := s.d[s.i]
	if q != '"' && q != '\'' {
		return ir.Attr{}, s.errAt(s.i, handler.SyntaxError, "attribute %q value must be quoted", name)
	}
	s.i++
	j := bytes.IndexByte(s.d[s.i:], q)
	if j == -1 {
		return ir.Attr{}, s.errAt(start, handler.UnexpectedEnd, "unterminated attribute %q", name)
	}
	raw := s.d[s.i : s.i+j]
	if k := bytes.IndexByte(raw, '<'); k != -1 {
		return ir.Attr{}, s.errAt(s.i+k, handler.SyntaxError, "'<' in attribute %q", name)
	}
	val, err := s.unescape(raw, s.i)
	if err != nil {
		return ir.Attr{}, err
	}
	s.i += j + 1
	return ir.Attr{Name: name, Value: val}, nil
}

// content parses the children of el up to and including its end tag.
func (s *scanner) content(el *ir.Node, start int) error {
	for {
		if s.eof() {
			return s.errAt(start, handler.UnexpectedEnd, "unclosed element <%s>", el.Name)
		}
		if s.d[s.i] != '<' {
			j := bytes.IndexByte(s.d[s.i:], '<')
			if j == -1 {
				j = len(s.d) - s.i
			}
			text, err := s.unescape(s.d[s.i:s.i+j], s.i)
			if err != nil {
				return err
			}
			s.i += j
			appendChild(el, ir.NewText(text))
			continue
		}
		var (
			n   *ir.Node
			err error
		)
		switch {
		case s.has("</"):
			closeAt := s.i
			s.i += 2
			name := s.name()
			s.skipSpace()
			if s.eof() || s.d[s.i] != '>' {
				return s.errAt(closeAt, handler.UnexpectedEnd, "unterminated end tag </%s", name)
			}
			s.i++
			if name != el.Name {
				return s.errAt(closeAt, handler.MismatchedTag, "element <%s> closed by </%s>", el.Name, name)
			}
			return nil
		case s.has("<!--"):
			n, err = s.comment()
		case s.has("<![CDATA["):
			n, err = s.cdata()
		case s.has("<?"):
			n, err = s.procInst()
		case s.has("<!"):
			return s.errAt(s.i, handler.SyntaxError, "unexpected declaration inside <%s>", el.Name)
		default:
			n, err = s.element()
		}
		if err != nil {
			return err
		}
		appendChild(el, n)
	}
}

// trimIndentation drops whitespace only text from elements without
// other character data.
func trimIndentation(el *ir.Node) {
	hasOther := false
	for _, c := range el.Values {
		switch c.Type {
		case ir.TextType:
			if strings.TrimSpace(c.String) != "" {
				return
			}
		case ir.CDataType:
			return
		default:
			hasOther = true
		}
	}
	if !hasOther {
		return
	}
	kept := el.Values[:0]
	for _, c := range el.Values {
		if c.Type == ir.TextType {
			continue
		}
		c.ParentIndex = len(kept)
		kept = append(kept, c)
	}
	el.Values = kept
}

func (s *scanner) name() string {
	start := s.i
	for s.i < len(s.d) {
		r, sz := utf8.DecodeRune(s.d[s.i:])
		if s.i == start && !isNameStart(r) || s.i > start && !isNameChar(r) {
			break
		}
		s.i += sz
	}
	return string(s.d[start:s.i])
}

func isNameStart(r rune) bool {
	return r == '_' || r == ':' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || r == '-' || r == '.' || unicode.IsDigit(r) || r == 0xb7 || unicode.Is(unicode.Mn, r)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

var entities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"quot": `"`,
	"apos": "'",
}

// unescape decodes entity and character references in raw, which starts
// at offset off of the input.
func (s *scanner) unescape(raw []byte, off int) (string, error) {
	if bytes.IndexByte(raw, '&') == -1 {
		return string(raw), nil
	}
	var b strings.Builder
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '&' {
			b.WriteByte(c)
			i++
			continue
		}
		j := bytes.IndexByte(raw[i:], ';')
		if j == -1 || j > 12 {
			return "", s.errAt(off+i, handler.SyntaxError, "unterminated entity reference")
		}
		ref := string(raw[i+1 : i+j])
		switch {
		case strings.HasPrefix(ref, "#x"), strings.HasPrefix(ref, "#X"):
			r, err := strconv.ParseUint(ref[2:], 16, 32)
			if err != nil || !utf8.ValidRune(rune(r)) {
				return "", s.errAt(off+i, handler.SyntaxError, "bad character reference &%s;", ref)
			}
			b.WriteRune(rune(r))
		case strings.HasPrefix(ref, "#"):
			r, err := strconv.ParseUint(ref[1:], 10, 32)
			if err != nil || !utf8.ValidRune(rune(r)) {
				return "", s.errAt(off+i, handler.SyntaxError, "bad character reference &%s;", ref)
			}
			b.WriteRune(rune(r))
		default:
			v, ok := entities[ref]
			if !ok {
				return "", s.errAt(off+i, handler.UnknownEntity, "unknown entity &%s;", ref)
			}
			b.WriteString(v)
		}
		i += j + 1
	}
	return b.String(), nil
}
