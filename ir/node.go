package ir

import (
	"fmt"
	"iter"
	"strconv"
)

// Attr is a single XML attribute. Attributes are kept in document order.
type Attr struct {
	Name  string
	Value string
}

type Node struct {
	Type        Type
	Name        string
	Parent      *Node
	ParentIndex int
	Attrs       []Attr
	Values      []*Node

	// metadata, not part of structural identity except Level and Block
	Tag       string
	Level     int
	Block     string
	Setext    bool
	SelfClose bool

	String  string
	Bool    bool
	Number  string
	Float64 *float64
	Int64   *int64
}

func (y *Node) WithTag(tag string) *Node {
	y.Tag = tag
	return y
}

func (y *Node) WithName(name string) *Node {
	y.Name = name
	return y
}

func (y *Node) Clone() *Node {
	res := &Node{}
	return y.CloneTo(res)
}

// CloneTo deep copies y into dst. dst keeps the parent links of y; the
// cloned children are parented to dst.
func (y *Node) CloneTo(dst *Node) *Node {
	dst.Parent = y.Parent
	dst.ParentIndex = y.ParentIndex
	dst.Type = y.Type
	dst.Name = y.Name
	dst.Tag = y.Tag
	dst.Level = y.Level
	dst.Block = y.Block
	dst.Setext = y.Setext
	dst.SelfClose = y.SelfClose
	dst.Attrs = nil
	if len(y.Attrs) != 0 {
		dst.Attrs = append([]Attr(nil), y.Attrs...)
	}
	dst.Values = nil
	if y.Values != nil {
		dst.Values = make([]*Node, len(y.Values))
	}
	for i, yv := range y.Values {
		dstI := &Node{}
		yv.CloneTo(dstI)
		dstI.Parent = dst
		dstI.ParentIndex = i
		dst.Values[i] = dstI
	}
	dst.String = y.String
	dst.Number = y.Number
	dst.Float64 = nil
	if y.Float64 != nil {
		f := *y.Float64
		dst.Float64 = &f
	}
	dst.Int64 = nil
	if y.Int64 != nil {
		i := *y.Int64
		dst.Int64 = &i
	}
	dst.Bool = y.Bool
	return dst
}

func FromString(v string) *Node {
	return &Node{Type: StringType, String: v}
}

func FromInt(v int64) *Node {
	return &Node{
		Type:   NumberType,
		Int64:  &v,
		Number: strconv.FormatInt(v, 10),
	}
}

func FromFloat(f float64) *Node {
	return &Node{
		Type:    NumberType,
		Float64: &f,
		Number:  strconv.FormatFloat(f, 'g', -1, 64),
	}
}

// FromNumber creates a number node from its textual form. The text is
// kept verbatim for serialization; Int64 or Float64 is filled in when the
// text is representable.
func FromNumber(text string) (*Node, error) {
	res := &Node{Type: NumberType, Number: text}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		res.Int64 = &i
		return res, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return res, nil
		}
		return nil, fmt.Errorf("bad number %q: %w", text, err)
	}
	res.Float64 = &f
	return res, nil
}

func FromBool(v bool) *Node {
	return &Node{
		Type: BoolType,
		Bool: v,
	}
}

func Null() *Node {
	return &Node{Type: NullType}
}

type KeyVal struct {
	Key string
	Val *Node
}

// FromKeyVals creates an object node. Keys are kept in the given order; a
// repeated key replaces the earlier value in its original position.
func FromKeyVals(kvs []KeyVal) *Node {
	res := &Node{Type: ObjectType, Values: make([]*Node, 0, len(kvs))}
	for _, kv := range kvs {
		kv.Val.Name = kv.Key
		if i := res.Index(kv.Key); i != -1 {
			kv.Val.Parent = res
			kv.Val.ParentIndex = i
			res.Values[i] = kv.Val
			continue
		}
		kv.Val.Parent = res
		kv.Val.ParentIndex = len(res.Values)
		res.Values = append(res.Values, kv.Val)
	}
	return res
}

func FromSlice(ySlice []*Node) *Node {
	res := &Node{
		Type: ArrayType,
	}
	res.Values = make([]*Node, len(ySlice))
	for i, y := range ySlice {
		y.Name = ""
		res.Values[i] = y
		y.Parent = res
		y.ParentIndex = i
	}
	return res
}

func withChildren(res *Node, children []*Node) *Node {
	res.Values = make([]*Node, len(children))
	for i, c := range children {
		c.Parent = res
		c.ParentIndex = i
		res.Values[i] = c
	}
	return res
}

// Tags of DocumentType nodes naming the markup they hold.
const (
	XMLDocument      = "xml"
	MarkdownDocument = "markdown"
)

func NewDocument(children ...*Node) *Node {
	return withChildren(&Node{Type: DocumentType}, children)
}

func NewElement(name string, attrs []Attr, children ...*Node) *Node {
	return withChildren(&Node{Type: ElementType, Name: name, Attrs: attrs}, children)
}

func NewText(v string) *Node {
	return &Node{Type: TextType, String: v}
}

func NewCData(v string) *Node {
	return &Node{Type: CDataType, String: v}
}

func NewComment(v string) *Node {
	return &Node{Type: CommentType, String: v}
}

// NewProcInst creates a processing instruction with the given target and
// instruction body.
func NewProcInst(target, inst string) *Node {
	return &Node{Type: ProcInstType, Name: target, String: inst}
}

func NewHeading(level int, title string, children ...*Node) *Node {
	return withChildren(&Node{Type: HeadingType, Name: title, Level: level}, children)
}

// NewContent creates an opaque markdown block; block is the sub type such
// as "paragraph", "code", "list" or "blockquote".
func NewContent(block, text string) *Node {
	return &Node{Type: ContentType, Block: block, String: text}
}

// Get returns the first child named field, or nil.
func Get(y *Node, field string) *Node {
	if y == nil {
		return nil
	}
	if i := y.Index(field); i != -1 {
		return y.Values[i]
	}
	return nil
}

// Index returns the position of the first child named name, or -1.
func (y *Node) Index(name string) int {
	for i, c := range y.Values {
		if c.Name == name && c.Type != TextType && c.Type != CDataType && c.Type != CommentType && c.Type != ContentType {
			return i
		}
	}
	return -1
}

// Attr returns the value of the named attribute.
func (y *Node) Attr(name string) (string, bool) {
	for _, a := range y.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Scalar returns the textual form of a scalar or text node.
func (y *Node) Scalar() string {
	switch y.Type {
	case NullType:
		return "null"
	case BoolType:
		return strconv.FormatBool(y.Bool)
	case NumberType:
		if y.Number != "" {
			return y.Number
		}
		if y.Int64 != nil {
			return strconv.FormatInt(*y.Int64, 10)
		}
		if y.Float64 != nil {
			return strconv.FormatFloat(*y.Float64, 'g', -1, 64)
		}
		return "0"
	default:
		return y.String
	}
}

// Text returns the concatenated character data of an element, or the
// scalar form of any other leaf.
func (y *Node) Text() string {
	if y.Type != ElementType {
		return y.Scalar()
	}
	var res []byte
	for _, c := range y.Values {
		switch c.Type {
		case TextType, CDataType:
			res = append(res, c.String...)
		case ElementType:
			res = append(res, c.Text()...)
		}
	}
	return string(res)
}

func (y *Node) Visit(f func(y *Node, isPost bool) (bool, error)) error {
	dive, err := f(y, false)
	if err != nil {
		return err
	}
	if dive {
		for _, yy := range y.Values {
			if err := yy.Visit(f); err != nil {
				return err
			}
		}
	}
	if _, err := f(y, true); err != nil {
		return err
	}
	return nil
}

// All returns a depth first, pre-order sequence of y and its
// descendants. The sequence may be ranged over any number of times.
func (y *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if y == nil {
			return
		}
		y.walk(yield)
	}
}

func (y *Node) walk(yield func(*Node) bool) bool {
	if !yield(y) {
		return false
	}
	for _, c := range y.Values {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

func (y *Node) Root() *Node {
	res := y
	for res.Parent != nil {
		res = res.Parent
	}
	return res
}

// Depth is the number of ancestors of y.
func (y *Node) Depth() int {
	d := 0
	for p := y.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Len is the number of children of y.
func (y *Node) Len() int {
	return len(y.Values)
}

func (y *Node) IsLeaf() bool {
	return len(y.Values) == 0
}

// Contains reports whether n is y or one of its descendants, by identity.
func (y *Node) Contains(n *Node) bool {
	for x := n; x != nil; x = x.Parent {
		if x == y {
			return true
		}
	}
	return false
}

// Check verifies the structural invariants of the tree rooted at y:
// every child points back to its parent at its own position, no node
// occurs twice, leaves have no children and object keys are unique.
func (y *Node) Check() error {
	seen := map[*Node]bool{}
	return y.check(seen)
}

func (y *Node) check(seen map[*Node]bool) error {
	if seen[y] {
		return fmt.Errorf("%w: node %q occurs more than once", ErrInvalid, y.KPath())
	}
	seen[y] = true
	if !y.Type.IsContainer() && len(y.Values) != 0 {
		return fmt.Errorf("%w: %s node at %q has children", ErrInvalid, y.Type, y.KPath())
	}
	var keys map[string]bool
	if y.Type == ObjectType {
		keys = make(map[string]bool, len(y.Values))
	}
	for i, c := range y.Values {
		if c == nil {
			return fmt.Errorf("%w: nil child %d at %q", ErrInvalid, i, y.KPath())
		}
		if c.Parent != y || c.ParentIndex != i {
			return fmt.Errorf("%w: child %d of %q has parent index %d", ErrInvalid, i, y.KPath(), c.ParentIndex)
		}
		if keys != nil {
			if keys[c.Name] {
				return fmt.Errorf("%w: duplicate key %q at %q", ErrInvalid, c.Name, y.KPath())
			}
			keys[c.Name] = true
		}
		if err := c.check(seen); err != nil {
			return err
		}
	}
	return nil
}
