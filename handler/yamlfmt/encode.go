package yamlfmt

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"
)

// Encode writes node as YAML. A nil node is the empty document and
// writes nothing. Compact output uses flow style throughout.
func (h *Handler) Encode(node *ir.Node, w io.Writer, opts ...encode.EncodeOption) error {
	if node == nil {
		return nil
	}
	es := encode.NewEncState(opts...)
	y, err := ToYAML(node)
	if err != nil {
		return err
	}
	if es.Compact() {
		y.Style |= yaml.FlowStyle
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(max(es.IndentWidth(), 2))
	if err := enc.Encode(y); err != nil {
		return fmt.Errorf("%w: %w", handler.ErrEncode, err)
	}
	return enc.Close()
}

// ToYAML converts a data tree into a yaml.v3 node graph.
func ToYAML(node *ir.Node) (*yaml.Node, error) {
	var res *yaml.Node
	switch node.Type {
	case ir.NullType:
		res = scalar("!!null", "null")
	case ir.BoolType:
		res = scalar("!!bool", strconv.FormatBool(node.Bool))
	case ir.NumberType:
		res = number(node)
	case ir.StringType:
		res = str(node.String)
	case ir.ObjectType:
		res = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, c := range node.Values {
			v, err := ToYAML(c)
			if err != nil {
				return nil, err
			}
			res.Content = append(res.Content, str(c.Name), v)
		}
	case ir.ArrayType:
		res = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, c := range node.Values {
			v, err := ToYAML(c)
			if err != nil {
				return nil, err
			}
			res.Content = append(res.Content, v)
		}
	default:
		return nil, fmt.Errorf("%w: yaml cannot encode %s node at %q", handler.ErrEncode, node.Type, node.KPath())
	}
	if node.Tag != "" {
		res.Tag = node.Tag
		res.Style |= yaml.TaggedStyle
	}
	return res, nil
}

func scalar(tag, v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}
}

// str quotes the YAML 1.1 booleans the emitter would leave plain.
func str(v string) *yaml.Node {
	res := scalar("!!str", v)
	if _, ok := oldBools[v]; ok {
		res.Style = yaml.DoubleQuotedStyle
	}
	return res
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func number(node *ir.Node) *yaml.Node {
	switch {
	case node.Int64 != nil:
		if node.Number != "" && node.Tag == "" {
			if i, err := strconv.ParseInt(node.Number, 10, 64); err == nil && i == *node.Int64 {
				return scalar("!!int", node.Number)
			}
		}
		return scalar("!!int", strconv.FormatInt(*node.Int64, 10))
	case node.Float64 != nil:
		f := *node.Float64
		switch {
		case math.IsNaN(f):
			return scalar("!!float", ".nan")
		case math.IsInf(f, 1):
			return scalar("!!float", ".inf")
		case math.IsInf(f, -1):
			return scalar("!!float", "-.inf")
		}
		if node.Number != "" && node.Tag == "" {
			if g, err := strconv.ParseFloat(node.Number, 64); err == nil && g == f && strings.ContainsAny(node.Number, ".eE") {
				return scalar("!!float", node.Number)
			}
		}
		return scalar("!!float", formatFloat(f))
	}
	return scalar("!!float", node.Number)
}
