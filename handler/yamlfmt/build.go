package yamlfmt

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/token"

	"github.com/signadot/tony-format/treedoc/format"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"
)

// builder converts one goccy document body into a tree.
type builder struct {
	d       []byte
	anchors map[string]*ir.Node
}

func (b *builder) errAt(n ast.Node, kind handler.ErrorKind, msg string, args ...any) *handler.ParseError {
	return errAt(b.d, n, kind, msg, args...)
}

// errAt positions a parse error at the token of n.
func errAt(d []byte, n ast.Node, kind handler.ErrorKind, msg string, args ...any) *handler.ParseError {
	e := handler.NewParseError(format.YAMLFormat, kind, d, -1, msg, args...)
	if n == nil {
		return e
	}
	if tk := n.GetToken(); tk != nil && tk.Position != nil {
		e.Line, e.Col = tk.Position.Line, tk.Position.Column
	}
	return e
}

func (b *builder) node(n ast.Node) (*ir.Node, error) {
	switch x := n.(type) {
	case nil:
		return ir.Null(), nil
	case *ast.NullNode:
		return ir.Null(), nil
	case *ast.BoolNode:
		return ir.FromBool(x.Value), nil
	case *ast.IntegerNode:
		return intNode(x), nil
	case *ast.FloatNode:
		res := ir.FromFloat(x.Value)
		res.Number = x.Token.Value
		return res, nil
	case *ast.InfinityNode:
		res := ir.FromFloat(x.Value)
		res.Number = x.Token.Value
		return res, nil
	case *ast.NanNode:
		res := ir.FromFloat(math.NaN())
		res.Number = x.Token.Value
		return res, nil
	case *ast.StringNode:
		return b.str(x), nil
	case *ast.LiteralNode:
		if x.Value == nil {
			return ir.FromString(""), nil
		}
		return ir.FromString(x.Value.Value), nil
	case *ast.MappingNode:
		return b.mapping(x.Values)
	case *ast.MappingValueNode:
		return b.mapping([]*ast.MappingValueNode{x})
	case *ast.SequenceNode:
		items := make([]*ir.Node, 0, len(x.Values))
		for _, v := range x.Values {
			c, err := b.node(v)
			if err != nil {
				return nil, err
			}
			items = append(items, c)
		}
		return ir.FromSlice(items), nil
	case *ast.AnchorNode:
		res, err := b.node(x.Value)
		if err != nil {
			return nil, err
		}
		b.anchors[x.Name.GetToken().Value] = res
		return res, nil
	case *ast.AliasNode:
		name := x.Value.GetToken().Value
		v, ok := b.anchors[name]
		if !ok {
			return nil, b.errAt(x, handler.SyntaxError, "unknown alias *%s", name)
		}
		return v.Clone(), nil
	case *ast.TagNode:
		return b.tagged(x)
	case *ast.MappingKeyNode:
		return b.node(x.Value)
	case *ast.CommentGroupNode, *ast.CommentNode:
		return ir.Null(), nil
	}
	return nil, b.errAt(n, handler.SyntaxError, "unsupported yaml node %s", n.Type())
}

func intNode(x *ast.IntegerNode) *ir.Node {
	var res *ir.Node
	switch v := x.Value.(type) {
	case int64:
		res = ir.FromInt(v)
	case uint64:
		if v <= math.MaxInt64 {
			res = ir.FromInt(int64(v))
		} else {
			res = ir.FromFloat(float64(v))
		}
	case int:
		res = ir.FromInt(int64(v))
	default:
		res = ir.FromFloat(0)
	}
	res.Number = x.Token.Value
	return res
}

var oldBools = map[string]bool{
	"yes": true, "Yes": true, "YES": true,
	"on": true, "On": true, "ON": true,
	"no": false, "No": false, "NO": false,
	"off": false, "Off": false, "OFF": false,
}

// str applies YAML 1.1 boolean coercion to plain scalars.
func (b *builder) str(x *ast.StringNode) *ir.Node {
	if x.Token != nil && x.Token.Type == token.StringType {
		if v, ok := oldBools[x.Value]; ok {
			return ir.FromBool(v)
		}
	}
	return ir.FromString(x.Value)
}

// mapping builds an object; explicit keys override merged ones and
// earlier merge sources win over later ones.
func (b *builder) mapping(mvs []*ast.MappingValueNode) (*ir.Node, error) {
	var kvs []ir.KeyVal
	index := map[string]int{}
	set := func(k string, v *ir.Node, merged bool) {
		if i, ok := index[k]; ok {
			if !merged {
				kvs[i].Val = v
			}
			return
		}
		index[k] = len(kvs)
		kvs = append(kvs, ir.KeyVal{Key: k, Val: v})
	}
	for _, mv := range mvs {
		if _, ok := mv.Key.(*ast.MergeKeyNode); ok {
			srcs, err := b.mergeSources(mv.Value)
			if err != nil {
				return nil, err
			}
			for _, src := range srcs {
				for _, c := range src.Values {
					set(c.Name, c.Clone(), true)
				}
			}
			continue
		}
		k, err := b.key(mv.Key)
		if err != nil {
			return nil, err
		}
		v, err := b.node(mv.Value)
		if err != nil {
			return nil, err
		}
		set(k, v, false)
	}
	return ir.FromKeyVals(kvs), nil
}

func (b *builder) mergeSources(n ast.Node) ([]*ir.Node, error) {
	var items []ast.Node
	if seq, ok := n.(*ast.SequenceNode); ok {
		items = seq.Values
	} else {
		items = []ast.Node{n}
	}
	res := make([]*ir.Node, 0, len(items))
	for _, it := range items {
		v, err := b.node(it)
		if err != nil {
			return nil, err
		}
		if v.Type != ir.ObjectType {
			return nil, b.errAt(it, handler.SyntaxError, "merge key value must be a mapping, got %s", v.Type)
		}
		res = append(res, v)
	}
	return res, nil
}

func (b *builder) key(n ast.Node) (string, error) {
	switch x := n.(type) {
	case *ast.MappingKeyNode:
		return b.key(x.Value)
	case *ast.StringNode:
		return x.Value, nil
	case *ast.TagNode:
		return b.key(x.Value)
	case *ast.AnchorNode:
		k, err := b.key(x.Value)
		if err == nil {
			b.anchors[x.Name.GetToken().Value] = ir.FromString(k)
		}
		return k, err
	case *ast.AliasNode:
		v, ok := b.anchors[x.Value.GetToken().Value]
		if !ok || !v.Type.IsScalar() {
			return "", b.errAt(x, handler.SyntaxError, "alias key must refer to a scalar")
		}
		return v.Scalar(), nil
	case *ast.NullNode, *ast.BoolNode, *ast.IntegerNode, *ast.FloatNode, *ast.InfinityNode, *ast.NanNode:
		return x.GetToken().Value, nil
	}
	return "", b.errAt(n, handler.SyntaxError, "unsupported mapping key %s", n.Type())
}

// tagged applies an explicit tag. Core tags force the scalar's type;
// other tags are recorded on the node.
func (b *builder) tagged(x *ast.TagNode) (*ir.Node, error) {
	tag := x.Start.Value
	text := ""
	if x.Value != nil {
		text = scalarText(x.Value)
	}
	var (
		res *ir.Node
		err error
	)
	switch tag {
	case "!!str":
		res = ir.FromString(text)
	case "!!int":
		var i int64
		i, err = strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64)
		if err == nil {
			res = ir.FromInt(i)
			res.Number = text
		}
	case "!!float":
		var f float64
		f, err = parseFloat(text)
		if err == nil {
			res = ir.FromFloat(f)
			res.Number = text
		}
	case "!!bool":
		v, ok := oldBools[text]
		if !ok {
			v, err = strconv.ParseBool(text)
		}
		if err == nil {
			res = ir.FromBool(v)
		}
	case "!!null":
		res = ir.Null()
	default:
		res, err = b.node(x.Value)
		if err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, b.errAt(x, handler.SyntaxError, "cannot read %q as %s", text, tag)
	}
	res.Tag = tag
	return res, nil
}

var infRE = regexp.MustCompile(`^([-+]?)\.(?:inf|Inf|INF)$`)

func parseFloat(s string) (float64, error) {
	if m := infRE.FindStringSubmatch(s); m != nil {
		if m[1] == "-" {
			return math.Inf(-1), nil
		}
		return math.Inf(1), nil
	}
	switch s {
	case ".nan", ".NaN", ".NAN":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
}

func scalarText(n ast.Node) string {
	switch x := n.(type) {
	case *ast.StringNode:
		return x.Value
	case *ast.LiteralNode:
		if x.Value != nil {
			return x.Value.Value
		}
		return ""
	}
	if tk := n.GetToken(); tk != nil {
		return tk.Value
	}
	return ""
}

var errPos = regexp.MustCompile(`^\[(\d+):(\d+)\]\s*(.*)`)

// wrap converts a goccy error into a parse error carrying its position.
func wrap(d []byte, err error) error {
	var pe *handler.ParseError
	if errors.As(err, &pe) {
		return pe
	}
	msg := strings.TrimSpace(err.Error())
	first, _, _ := strings.Cut(msg, "\n")
	res := &handler.ParseError{
		Format:  format.YAMLFormat,
		Kind:    kindOf(first),
		Content: string(d),
		Msg:     first,
		Err:     err,
	}
	if m := errPos.FindStringSubmatch(first); m != nil {
		res.Line, _ = strconv.Atoi(m[1])
		res.Col, _ = strconv.Atoi(m[2])
		res.Msg = m[3]
	}
	return res
}

func kindOf(msg string) handler.ErrorKind {
	low := strings.ToLower(msg)
	switch {
	case strings.Contains(low, "indent"):
		return handler.BadIndentation
	case strings.Contains(low, "not found"), strings.Contains(low, "could not find"),
		strings.Contains(low, "unexpected end"), strings.Contains(low, "unterminated"):
		return handler.UnexpectedEnd
	case strings.Contains(low, "duplicate"):
		return handler.DuplicateName
	}
	return handler.SyntaxError
}
