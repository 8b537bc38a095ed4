package ir

import (
	"fmt"
	"strconv"

	"github.com/signadot/tony-format/treedoc/ir/kpath"
)

// KPath returns the path string of this node's position in the tree.
//
// Examples:
//   - Root node → ""
//   - Object field "a" → "a"
//   - Array element 0 under "a" → "a.0"
//   - Second <item> element under <list> → "list[1]"
func (node *Node) KPath() string {
	return node.ParsedKPath().String()
}

// ParsedKPath returns the segments leading from the root to node.
func (node *Node) ParsedKPath() *kpath.KPath {
	var head *kpath.KPath
	for x := node; x.Parent != nil; x = x.Parent {
		seg := x.segment()
		seg.Next = head
		head = seg
	}
	return head
}

// segment returns the path segment addressing node under its parent.
// Names are used when they identify the node, positions otherwise.
func (node *Node) segment() *kpath.KPath {
	p := node.Parent
	switch p.Type {
	case ArrayType:
		return kpath.NewField(strconv.Itoa(node.ParentIndex))
	case ObjectType:
		return kpath.NewField(node.Name)
	}
	switch node.Type {
	case ElementType, HeadingType, ProcInstType:
		if p.Index(node.Name) == node.ParentIndex {
			return kpath.NewField(node.Name)
		}
	}
	return kpath.NewIndex(node.ParentIndex)
}

// GetKPath resolves a path string relative to node. A path that does not
// address a node yields an error wrapping ErrNotFound; a malformed path
// yields an error wrapping ErrPath.
func (node *Node) GetKPath(kp string) (*Node, error) {
	p, err := kpath.Parse(kp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPath, err)
	}
	return node.Resolve(p)
}

// Resolve walks the segments of kp starting at node.
func (node *Node) Resolve(kp *kpath.KPath) (*Node, error) {
	if node == nil {
		return nil, fmt.Errorf("%w: empty document", ErrNotFound)
	}
	res := node
	for seg := kp; seg != nil; seg = seg.Next {
		if seg.Any {
			return nil, fmt.Errorf("%w: wildcard in %q", ErrPath, kp)
		}
		if seg.Attr != nil {
			return nil, fmt.Errorf("%w: attribute %q is not a node", ErrNotFound, seg.SegmentString())
		}
		child := res.Child(seg)
		if child == nil {
			return nil, fmt.Errorf("%w: %q has no %s child %s", ErrNotFound, res.KPath(), res.Type, seg.SegmentString())
		}
		res = child
	}
	return res, nil
}

// Child returns the child of node addressed by the single segment seg,
// or nil.
func (node *Node) Child(seg *kpath.KPath) *Node {
	if !node.Type.IsContainer() {
		return nil
	}
	at := func(i int) *Node {
		if i < 0 || i >= len(node.Values) {
			return nil
		}
		return node.Values[i]
	}
	switch node.Type {
	case ArrayType:
		i, ok := seg.Decimal()
		if !ok {
			return nil
		}
		return at(i)
	case ObjectType:
		if seg.Index != nil {
			return at(*seg.Index)
		}
		if seg.Field == nil {
			return nil
		}
		return Get(node, *seg.Field)
	}
	if seg.Index != nil {
		return at(*seg.Index)
	}
	if seg.Field == nil {
		return nil
	}
	if i := node.Index(*seg.Field); i != -1 {
		return node.Values[i]
	}
	if i, ok := seg.Decimal(); ok {
		return at(i)
	}
	return nil
}

// Resolve resolves path in the tree rooted at root.
func Resolve(root *Node, path string) (*Node, error) {
	return root.GetKPath(path)
}

// PathOf returns the path of n in the tree rooted at root, or an error
// wrapping ErrNotFound when n is not part of that tree.
func PathOf(root, n *Node) (string, error) {
	if root == nil || n == nil || !root.Contains(n) {
		return "", fmt.Errorf("%w: node is not in the tree", ErrNotFound)
	}
	if root.Parent == nil {
		return n.KPath(), nil
	}
	// root is a sub-tree: trim the prefix leading to it
	var head *kpath.KPath
	for x := n; x != root; x = x.Parent {
		seg := x.segment()
		seg.Next = head
		head = seg
	}
	return head.String(), nil
}
