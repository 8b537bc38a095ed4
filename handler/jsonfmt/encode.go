package jsonfmt

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"
)

// Encode writes node as JSON. Markup kinds (XML, Markdown) have no JSON
// rendering and fail with handler.ErrEncode.
func (h *Handler) Encode(node *ir.Node, w io.Writer, opts ...encode.EncodeOption) error {
	es := encode.NewEncState(opts...)
	bw := bufio.NewWriter(w)
	if node == nil {
		node = ir.Null()
	}
	if err := encodeNode(bw, es, node, 0); err != nil {
		return err
	}
	if !es.Compact() {
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func encodeNode(w *bufio.Writer, es *encode.EncState, node *ir.Node, depth int) error {
	switch node.Type {
	case ir.NullType:
		w.WriteString("null")
	case ir.BoolType:
		w.WriteString(strconv.FormatBool(node.Bool))
	case ir.NumberType:
		s, err := Number(node)
		if err != nil {
			return err
		}
		w.WriteString(s)
	case ir.StringType:
		w.WriteString(Quote(node.String))
	case ir.ObjectType:
		return encodeContainer(w, es, node, depth, '{', '}')
	case ir.ArrayType:
		return encodeContainer(w, es, node, depth, '[', ']')
	default:
		return fmt.Errorf("%w: json cannot encode %s node at %q", handler.ErrEncode, node.Type, node.KPath())
	}
	return nil
}

func encodeContainer(w *bufio.Writer, es *encode.EncState, node *ir.Node, depth int, open, close byte) error {
	w.WriteByte(open)
	if len(node.Values) == 0 {
		w.WriteByte(close)
		return nil
	}
	for i, c := range node.Values {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteString(es.Newline())
		w.WriteString(es.Prefix(depth + 1))
		if open == '{' {
			w.WriteString(Quote(c.Name))
			w.WriteByte(':')
			if !es.Compact() {
				w.WriteByte(' ')
			}
		}
		if err := encodeNode(w, es, c, depth+1); err != nil {
			return err
		}
	}
	w.WriteString(es.Newline())
	w.WriteString(es.Prefix(depth))
	w.WriteByte(close)
	return nil
}

// Number returns the JSON text of a number node. The original text is kept
// when it is valid JSON; otherwise the parsed value is formatted.
func Number(node *ir.Node) (string, error) {
	if node.Number != "" && validNumber(node.Number) {
		return node.Number, nil
	}
	if node.Int64 != nil {
		return strconv.FormatInt(*node.Int64, 10), nil
	}
	if node.Float64 != nil {
		f := *node.Float64
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return "", fmt.Errorf("%w: json cannot encode %v at %q", handler.ErrEncode, f, node.KPath())
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("%w: bad number %q at %q", handler.ErrEncode, node.Number, node.KPath())
}

// validNumber checks the JSON number grammar.
func validNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i == len(s) {
		return false
	}
	if s[i] == '0' {
		i++
	} else if s[i] >= '1' && s[i] <= '9' {
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	} else {
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(s)
}

const hex = "0123456789abcdef"

// Quote returns s as a JSON string literal.
func Quote(s string) string {
	d := make([]byte, 1, len(s)+2)
	d[0] = '"'
	for i := 0; i < len(s); {
		r, sz := utf8.DecodeRuneInString(s[i:])
		i += sz
		switch r {
		case '"':
			d = append(d, '\\', '"')
		case '\\':
			d = append(d, '\\', '\\')
		case '\b':
			d = append(d, '\\', 'b')
		case '\f':
			d = append(d, '\\', 'f')
		case '\n':
			d = append(d, '\\', 'n')
		case '\r':
			d = append(d, '\\', 'r')
		case '\t':
			d = append(d, '\\', 't')
		case '\u2028', '\u2029':
			d = append(d, '\\', 'u', '2', '0', '2', hex[r&0xf])
		default:
			if r < 0x20 {
				d = append(d, '\\', 'u', '0', '0', hex[r>>4], hex[r&0xf])
				continue
			}
			d = utf8.AppendRune(d, r)
		}
	}
	return string(append(d, '"'))
}
