package mdfmt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"
)

// Encode writes node as Markdown. Blocks are separated by a blank line;
// compact output drops the blank lines around ATX headings. A heading is
// written at least one level below its enclosing heading so the outline
// survives a re-parse.
func (h *Handler) Encode(node *ir.Node, w io.Writer, opts ...encode.EncodeOption) error {
	if node == nil {
		return nil
	}
	es := encode.NewEncState(opts...)
	e := &encoder{w: bufio.NewWriter(w), es: es}
	switch node.Type {
	case ir.ContentType:
		e.content(node)
	case ir.DocumentType:
		if err := e.children(node, 0); err != nil {
			return err
		}
	case ir.HeadingType:
		if _, err := e.heading(node, 0, 6); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: markdown cannot encode %s node at %q", handler.ErrEncode, node.Type, node.KPath())
	}
	if e.any {
		e.w.WriteByte('\n')
	}
	return e.w.Flush()
}

type encoder struct {
	w        *bufio.Writer
	es       *encode.EncState
	any      bool
	afterATX bool
}

// sep starts a new block.
func (e *encoder) sep(atx bool) {
	if e.any {
		e.w.WriteByte('\n')
		if !e.es.Compact() || !(atx || e.afterATX) {
			e.w.WriteByte('\n')
		}
	}
	e.any = true
	e.afterATX = atx
}

// children writes the blocks under a heading of parentLevel. Sibling
// headings never get deeper than an earlier sibling, which would nest
// them on re-parse.
func (e *encoder) children(n *ir.Node, parentLevel int) error {
	ceil := 6
	for _, c := range n.Values {
		switch c.Type {
		case ir.ContentType:
			e.content(c)
		case ir.HeadingType:
			level, err := e.heading(c, parentLevel, ceil)
			if err != nil {
				return err
			}
			ceil = level
		default:
			return fmt.Errorf("%w: markdown cannot encode %s node at %q", handler.ErrEncode, c.Type, c.KPath())
		}
	}
	return nil
}

func (e *encoder) content(n *ir.Node) {
	e.sep(false)
	e.w.WriteString(strings.TrimRight(n.String, "\n"))
}

func (e *encoder) heading(n *ir.Node, parentLevel, ceil int) (int, error) {
	if strings.ContainsAny(n.Name, "\n\r") {
		return 0, fmt.Errorf("%w: heading at %q spans lines", handler.ErrEncode, n.KPath())
	}
	if parentLevel >= 6 {
		return 0, fmt.Errorf("%w: heading at %q is nested deeper than 6 levels", handler.ErrEncode, n.KPath())
	}
	level := min(max(n.Level, parentLevel+1), ceil, 6)
	title := strings.TrimSpace(n.Name)
	setext := n.Setext && level <= 2 && title != "" && paragraphText(title) && !e.es.Compact()
	e.sep(!setext)
	if setext {
		e.w.WriteString(title)
		e.w.WriteByte('\n')
		c := "="
		if level == 2 {
			c = "-"
		}
		e.w.WriteString(strings.Repeat(c, max(utf8.RuneCountInString(title), 3)))
	} else {
		e.w.WriteString(strings.Repeat("#", level))
		if title != "" {
			e.w.WriteByte(' ')
			e.w.WriteString(title)
			if strings.HasSuffix(title, "#") {
				e.w.WriteString(" #")
			}
		}
	}
	return level, e.children(n, level)
}
