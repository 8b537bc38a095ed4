package edit

import (
	"fmt"
	"strconv"

	"github.com/signadot/tony-format/treedoc/ir"
	"github.com/signadot/tony-format/treedoc/ir/kpath"
)

// BlockParagraph is the block kind given to text added under a Markdown
// heading.
const BlockParagraph = "paragraph"

func isData(t ir.Type) bool {
	return t.IsScalar() || t == ir.ObjectType || t == ir.ArrayType
}

// isXMLDoc reports whether a document holds XML rather than Markdown.
// Untagged documents are judged by their children.
func isXMLDoc(doc *ir.Node) bool {
	switch doc.Tag {
	case ir.XMLDocument:
		return true
	case ir.MarkdownDocument:
		return false
	}
	for _, c := range doc.Values {
		switch c.Type {
		case ir.ElementType, ir.CommentType, ir.ProcInstType:
			return true
		}
	}
	return false
}

// rootElement reports whether n is the root element of an XML document.
func rootElement(n *ir.Node) bool {
	p := n.Parent
	return n.Type == ir.ElementType && p != nil && p.Type == ir.DocumentType && isXMLDoc(p)
}

func hasElement(n *ir.Node) bool {
	for _, c := range n.Values {
		if c.Type == ir.ElementType {
			return true
		}
	}
	return false
}

// accepts reports whether child may live under parent.
func accepts(parent, child *ir.Node) bool {
	switch parent.Type {
	case ir.ObjectType, ir.ArrayType:
		return isData(child.Type)
	case ir.ElementType:
		switch child.Type {
		case ir.ElementType, ir.TextType, ir.CDataType, ir.CommentType, ir.ProcInstType:
			return true
		}
	case ir.HeadingType:
		return child.Type == ir.HeadingType || child.Type == ir.ContentType
	case ir.DocumentType:
		if isXMLDoc(parent) {
			switch child.Type {
			case ir.CommentType, ir.ProcInstType:
				return true
			case ir.ElementType:
				return !hasElement(parent) || child.Parent == parent
			}
			return false
		}
		return child.Type == ir.HeadingType || child.Type == ir.ContentType
	}
	return false
}

// appendIndex is where an appended child goes: the end, except for
// Markdown blocks, which would otherwise belong to the last sub-heading
// once the text is parsed again.
func appendIndex(parent, child *ir.Node) int {
	if child.Type == ir.ContentType && (parent.Type == ir.HeadingType || parent.Type == ir.DocumentType) {
		for i, c := range parent.Values {
			if c.Type == ir.HeadingType {
				return i
			}
		}
	}
	return len(parent.Values)
}

// insert places the detached child at index i of parent.
func insert(parent *ir.Node, i int, child *ir.Node) {
	parent.Values = append(parent.Values, nil)
	copy(parent.Values[i+1:], parent.Values[i:])
	parent.Values[i] = child
	child.Parent = parent
	for j := i; j < len(parent.Values); j++ {
		parent.Values[j].ParentIndex = j
	}
	if parent.Type == ir.ArrayType {
		child.Name = ""
	}
	if child.Type == ir.HeadingType {
		relevel(child, parent.Level+1)
	}
}

// detach removes n from its parent and closes the gap.
func detach(n *ir.Node) {
	p := n.Parent
	if p == nil {
		return
	}
	i := n.ParentIndex
	p.Values = append(p.Values[:i], p.Values[i+1:]...)
	for j := i; j < len(p.Values); j++ {
		p.Values[j].ParentIndex = j
	}
	n.Parent = nil
	n.ParentIndex = 0
}

// replace puts n in the place of old, keeping its name.
func replace(old, n *ir.Node) {
	n.Name = old.Name
	p := old.Parent
	if p == nil {
		return
	}
	n.Parent = p
	n.ParentIndex = old.ParentIndex
	p.Values[old.ParentIndex] = n
	old.Parent = nil
	old.ParentIndex = 0
}

// relevel shifts heading levels so that h sits at level.
func relevel(h *ir.Node, level int) {
	if h.Level == level {
		return
	}
	delta := level - h.Level
	for x := range h.All() {
		if x.Type == ir.HeadingType {
			x.Level = min(max(x.Level+delta, 1), 6)
		}
	}
}

// childSegment is the path segment a child inserted at index i of
// parent will have.
func childSegment(parent *ir.Node, i int, child *ir.Node) *kpath.KPath {
	switch parent.Type {
	case ir.ArrayType:
		return kpath.NewField(strconv.Itoa(i))
	case ir.ObjectType:
		return kpath.NewField(child.Name)
	}
	switch child.Type {
	case ir.ElementType, ir.HeadingType, ir.ProcInstType:
		for _, c := range parent.Values[:i] {
			if named(c) && c.Name == child.Name {
				return kpath.NewIndex(i)
			}
		}
		return kpath.NewField(child.Name)
	}
	return kpath.NewIndex(i)
}

func named(n *ir.Node) bool {
	switch n.Type {
	case ir.TextType, ir.CDataType, ir.CommentType, ir.ContentType:
		return false
	}
	return true
}

// scalarString renders a scalar value as text.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case *ir.Node:
		if x == nil {
			return "", true
		}
		switch x.Type {
		case ir.NullType:
			return "", true
		case ir.BoolType, ir.NumberType, ir.StringType, ir.TextType, ir.CDataType:
			return x.Scalar(), true
		}
		return "", false
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(x), true
	case fmt.Stringer:
		return x.String(), true
	}
	return "", false
}

// dataNode converts a value for an object or array.
func dataNode(v any) (*ir.Node, error) {
	n, err := ir.FromAny(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKind, err)
	}
	if !isData(n.Type) {
		return nil, fmt.Errorf("%w: %s node in a data tree", ErrKind, n.Type)
	}
	return n, nil
}

// childNode converts a literal into a child of parent: data for objects
// and arrays, text for elements, paragraphs for Markdown.
func childNode(parent *ir.Node, v any) (*ir.Node, error) {
	switch parent.Type {
	case ir.ObjectType, ir.ArrayType:
		return dataNode(v)
	}
	if n, ok := v.(*ir.Node); ok && n != nil && !isData(n.Type) {
		n, _ = ir.FromAny(n)
		if !accepts(parent, n) {
			return nil, fmt.Errorf("%w: %s node under %s", ErrKind, n.Type, parent.Type)
		}
		return n, nil
	}
	s, ok := scalarString(v)
	if !ok {
		return nil, fmt.Errorf("%w: cannot add %T under %s", ErrKind, v, parent.Type)
	}
	switch parent.Type {
	case ir.ElementType:
		return ir.NewText(s), nil
	case ir.HeadingType:
		return ir.NewContent(BlockParagraph, s), nil
	case ir.DocumentType:
		if !isXMLDoc(parent) {
			return ir.NewContent(BlockParagraph, s), nil
		}
	}
	return nil, fmt.Errorf("%w: cannot add text under %s", ErrKind, parent.Type)
}

// keyedNode builds the child added under key: an object member, a child
// element or a sub-heading.
func keyedNode(parent *ir.Node, key string, v any) (*ir.Node, error) {
	switch parent.Type {
	case ir.ObjectType:
		n, err := dataNode(v)
		if err != nil {
			return nil, err
		}
		n.Name = key
		return n, nil
	case ir.ElementType:
		el := ir.NewElement(key, nil)
		if err := fill(el, v); err != nil {
			return nil, err
		}
		el.SelfClose = len(el.Values) == 0
		return el, nil
	case ir.HeadingType, ir.DocumentType:
		if parent.Type == ir.DocumentType && isXMLDoc(parent) {
			break
		}
		h := ir.NewHeading(parent.Level+1, key)
		if err := fill(h, v); err != nil {
			return nil, err
		}
		return h, nil
	}
	return nil, fmt.Errorf("%w: %s children have no key", ErrKind, parent.Type)
}

// fill adds the content for a new element or heading.
func fill(n *ir.Node, v any) error {
	if s, ok := scalarString(v); ok && s == "" {
		return nil
	}
	c, err := childNode(n, v)
	if err != nil {
		return err
	}
	insert(n, len(n.Values), c)
	return nil
}
