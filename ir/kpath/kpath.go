// Package kpath parses and formats paths addressing nodes in a document
// tree.
//
// A path is a sequence of segments separated by '.':
//   - "user.name" → key or name segments
//   - "items.0" → a decimal segment; indexes arrays, and is a name
//     lookup first elsewhere
//   - "items[0]" → bracket index, always positional
//   - "'a.b'.c" → quoted segment (single or double quotes, backslash escapes)
//   - "user.@id" → attribute segment, only valid as the last segment
//   - "users.*.age", "items[*]" → wildcard segments, for patterns
//
// The empty string is the root path.
package kpath

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// KPath is one segment of a path, linked to the next.
type KPath struct {
	Field *string // key or name segment (e.g. "a", "0")
	Index *int    // bracket index (e.g. [0])
	Attr  *string // attribute segment (e.g. @id)
	Any   bool    // wildcard * or [*]
	Next  *KPath  // next segment (nil for leaf)
}

// NewField returns a single field segment.
func NewField(f string) *KPath {
	return &KPath{Field: &f}
}

// NewIndex returns a single bracket index segment.
func NewIndex(i int) *KPath {
	return &KPath{Index: &i}
}

// NewAttr returns a single attribute segment.
func NewAttr(name string) *KPath {
	return &KPath{Attr: &name}
}

// String returns the path string representation of this KPath.
func (p *KPath) String() string {
	if p == nil {
		return ""
	}
	buf := bytes.NewBuffer(nil)
	for x := p; x != nil; x = x.Next {
		if x.Index != nil {
			fmt.Fprintf(buf, "[%d]", *x.Index)
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(x.SegmentString())
	}
	return buf.String()
}

// SegmentString returns the canonical string representation of this
// single segment.
func (p *KPath) SegmentString() string {
	switch {
	case p == nil:
		return ""
	case p.Any:
		return "*"
	case p.Attr != nil:
		return "@" + *p.Attr
	case p.Index != nil:
		return "[" + strconv.Itoa(*p.Index) + "]"
	case p.Field != nil:
		if QuoteField(*p.Field) {
			return Quote(*p.Field)
		}
		return *p.Field
	}
	return ""
}

// Decimal reports the index a field segment denotes when it is written as
// a non-negative decimal number.
func (p *KPath) Decimal() (int, bool) {
	if p.Index != nil {
		return *p.Index, true
	}
	if p.Field == nil {
		return 0, false
	}
	f := *p.Field
	if f == "" || len(f) > 1 && f[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(f); i++ {
		if f[i] < '0' || f[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(f)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Len returns the number of segments.
func (p *KPath) Len() int {
	n := 0
	for x := p; x != nil; x = x.Next {
		n++
	}
	return n
}

// Last returns the final segment.
func (p *KPath) Last() *KPath {
	if p == nil {
		return nil
	}
	x := p
	for x.Next != nil {
		x = x.Next
	}
	return x
}

// Parent returns a copy of the path without its last segment, nil for a
// single segment path.
func (p *KPath) Parent() *KPath {
	if p == nil || p.Next == nil {
		return nil
	}
	res := &KPath{}
	dst := res
	for x := p; x.Next != nil; x = x.Next {
		*dst = *x
		dst.Next = nil
		if x.Next.Next != nil {
			dst.Next = &KPath{}
			dst = dst.Next
		}
	}
	return res
}

// Append returns a copy of p followed by seg.
func (p *KPath) Append(seg *KPath) *KPath {
	if p == nil {
		return seg
	}
	res := &KPath{}
	dst := res
	for x := p; x != nil; x = x.Next {
		*dst = *x
		if x.Next == nil {
			dst.Next = seg
			break
		}
		dst.Next = &KPath{}
		dst = dst.Next
	}
	return res
}

// HasWildcard reports whether any segment is a wildcard.
func (p *KPath) HasWildcard() bool {
	for x := p; x != nil; x = x.Next {
		if x.Any {
			return true
		}
	}
	return false
}

// Parse parses a path string. The empty string parses to nil, the root.
func Parse(kpath string) (*KPath, error) {
	if kpath == "" {
		return nil, nil
	}
	var (
		head, tail *KPath
		rest       = kpath
		first      = true
	)
	push := func(seg *KPath) error {
		if tail != nil && tail.Attr != nil {
			return fmt.Errorf("attribute segment %q must be last in %q", tail.SegmentString(), kpath)
		}
		if head == nil {
			head = seg
		} else {
			tail.Next = seg
		}
		tail = seg
		return nil
	}
	for len(rest) > 0 {
		switch rest[0] {
		case '[':
			i := strings.IndexByte(rest, ']')
			if i == -1 {
				return nil, fmt.Errorf("expected '[' <index> ']' in %q", kpath)
			}
			seg, err := parseIndex(rest[1:i])
			if err != nil {
				return nil, fmt.Errorf("%w in %q", err, kpath)
			}
			if err := push(seg); err != nil {
				return nil, err
			}
			rest = rest[i+1:]
			first = false
			continue
		case '.':
			if first {
				return nil, fmt.Errorf("unexpected '.' at start of %q", kpath)
			}
			rest = rest[1:]
			if len(rest) == 0 {
				return nil, fmt.Errorf("trailing '.' in %q", kpath)
			}
		default:
			if !first {
				return nil, fmt.Errorf("expected '.' or '[' before %q in %q", rest, kpath)
			}
		}
		first = false
		seg, n, err := parseSegment(rest)
		if err != nil {
			return nil, fmt.Errorf("%w in %q", err, kpath)
		}
		if err := push(seg); err != nil {
			return nil, err
		}
		rest = rest[n:]
	}
	return head, nil
}

// MustParse is like Parse but panics on error.
func MustParse(kpath string) *KPath {
	p, err := Parse(kpath)
	if err != nil {
		panic(err)
	}
	return p
}

func parseIndex(is string) (*KPath, error) {
	if is == "*" {
		return &KPath{Any: true}, nil
	}
	u64, err := strconv.ParseUint(is, 10, 31)
	if err != nil {
		return nil, fmt.Errorf("invalid array index %q", is)
	}
	i := int(u64)
	return &KPath{Index: &i}, nil
}

// parseSegment parses one dotted segment at the start of frag and
// returns the number of bytes consumed.
func parseSegment(frag string) (*KPath, int, error) {
	switch frag[0] {
	case '\'', '"':
		n, err := quotedEnd(frag)
		if err != nil {
			return nil, 0, err
		}
		field, err := Unquote(frag[:n])
		if err != nil {
			return nil, 0, err
		}
		return &KPath{Field: &field}, n, nil
	case '@':
		end := segmentEnd(frag[1:]) + 1
		if end == 1 {
			return nil, 0, fmt.Errorf("empty attribute name")
		}
		name := frag[1:end]
		return &KPath{Attr: &name}, end, nil
	}
	end := segmentEnd(frag)
	if end == 0 {
		return nil, 0, fmt.Errorf("empty segment")
	}
	field := frag[:end]
	if field == "*" {
		return &KPath{Any: true}, end, nil
	}
	return &KPath{Field: &field}, end, nil
}

func segmentEnd(frag string) int {
	i := strings.IndexAny(frag, ".[")
	if i == -1 {
		return len(frag)
	}
	return i
}

// QuoteField returns true if a field name must be quoted in a path.
func QuoteField(v string) bool {
	if v == "" || v == "*" {
		return true
	}
	switch v[0] {
	case '\'', '"', '@':
		return true
	}
	return strings.ContainsAny(v, ".[]\\\n\t")
}

// Quote quotes a field, preferring single quotes.
func Quote(v string) string {
	q := byte('\'')
	if strings.IndexByte(v, '\'') != -1 && strings.IndexByte(v, '"') == -1 {
		q = '"'
	}
	d := make([]byte, 1, len(v)+2)
	d[0] = q
	for _, r := range v {
		switch r {
		case rune(q):
			d = append(d, '\\', q)
		case '\\':
			d = append(d, '\\', '\\')
		case '\n':
			d = append(d, '\\', 'n')
		case '\t':
			d = append(d, '\\', 't')
		default:
			d = utf8.AppendRune(d, r)
		}
	}
	return string(append(d, q))
}

// Unquote reverses Quote.
func Unquote(v string) (string, error) {
	if len(v) < 2 || v[0] != v[len(v)-1] || (v[0] != '\'' && v[0] != '"') {
		return "", fmt.Errorf("not a quoted segment %q", v)
	}
	d := make([]byte, 0, len(v)-2)
	escaped := false
	for i := 1; i < len(v)-1; i++ {
		c := v[i]
		if !escaped {
			if c == '\\' {
				escaped = true
				continue
			}
			d = append(d, c)
			continue
		}
		escaped = false
		switch c {
		case 'n':
			d = append(d, '\n')
		case 't':
			d = append(d, '\t')
		case '\\', '\'', '"':
			d = append(d, c)
		default:
			return "", fmt.Errorf("bad escape \\%c in %q", c, v)
		}
	}
	if escaped {
		return "", fmt.Errorf("unterminated escape in %q", v)
	}
	return string(d), nil
}

// quotedEnd finds the end of a quoted segment at the start of d, and
// returns the length consumed including the closing quote.
func quotedEnd(d string) (int, error) {
	q := d[0]
	escaped := false
	for i := 1; i < len(d); i++ {
		switch c := d[i]; {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == q:
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unterminated quoted segment %q", d)
}

// Join joins two path strings.
func Join(prefix, suffix string) string {
	switch {
	case prefix == "":
		return suffix
	case suffix == "":
		return prefix
	case suffix[0] == '[':
		return prefix + suffix
	}
	return prefix + "." + suffix
}

// Match reports whether the concrete path p matches pattern. A wildcard
// segment matches any single key, name or index; a decimal field and a
// bracket index with the same value match each other.
func Match(pattern, p *KPath) bool {
	x, y := pattern, p
	for x != nil && y != nil {
		if !segmentMatch(x, y) {
			return false
		}
		x, y = x.Next, y.Next
	}
	return x == nil && y == nil
}

func segmentMatch(pat, seg *KPath) bool {
	if pat.Any {
		return seg.Attr == nil || pat.Attr != nil
	}
	switch {
	case pat.Attr != nil || seg.Attr != nil:
		return pat.Attr != nil && seg.Attr != nil && *pat.Attr == *seg.Attr
	case pat.Field != nil && seg.Field != nil:
		return *pat.Field == *seg.Field
	}
	pi, pok := pat.Decimal()
	si, sok := seg.Decimal()
	return pok && sok && pi == si
}

// Equal reports whether two paths have the same segments.
func Equal(a, b *KPath) bool {
	return a.String() == b.String()
}

func (kp *KPath) MarshalText() ([]byte, error) {
	return []byte(kp.String()), nil
}

func (kp *KPath) UnmarshalText(d []byte) error {
	p, err := Parse(string(d))
	if err != nil {
		return err
	}
	if p == nil {
		*kp = KPath{}
		return nil
	}
	*kp = *p
	return nil
}
