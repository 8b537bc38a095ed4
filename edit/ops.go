package edit

import (
	"context"
	"errors"

	"github.com/signadot/tony-format/treedoc/ir"
	"github.com/signadot/tony-format/treedoc/ir/kpath"
)

// Add appends value as the last child of the container at path. Objects
// need a key, see AddKey. Markdown text goes after the heading's own
// blocks, before its first sub-heading.
func (e *Engine) Add(path string, value any) error {
	return e.Insert(path, -1, value)
}

// Insert places value at index under the container at path; -1 appends.
func (e *Engine) Insert(path string, index int, value any) error {
	const op = "add"
	parent, err := e.container(op, path)
	if err != nil {
		return e.rejected(err)
	}
	if parent.Type == ir.ObjectType {
		return e.rejected(opErr(op, path, ErrKind, "object members need a key"))
	}
	child, err := childNode(parent, value)
	if err != nil {
		return e.rejected(&OperationError{Op: op, Path: path, Err: err})
	}
	if !accepts(parent, child) {
		return e.rejected(opErr(op, path, ErrKind, "%s cannot hold a %s", parent.Type, child.Type))
	}
	if index == -1 {
		index = appendIndex(parent, child)
	}
	if index < 0 || index > len(parent.Values) {
		return e.rejected(opErr(op, path, ErrIndex, "%d not in [0, %d]", index, len(parent.Values)))
	}
	return e.attach(op, parent, index, child)
}

// AddKey adds value under key: an object member, a child element named
// key, or a sub-heading titled key.
func (e *Engine) AddKey(path, key string, value any) error {
	const op = "add"
	parent, err := e.container(op, path)
	if err != nil {
		return e.rejected(err)
	}
	if parent.Type == ir.ArrayType {
		return e.rejected(opErr(op, path, ErrKind, "array elements have no key"))
	}
	if parent.Type == ir.ObjectType && ir.Get(parent, key) != nil {
		return e.rejected(opErr(op, path, ErrKeyExists, "%q", key))
	}
	child, err := keyedNode(parent, key, value)
	if err != nil {
		return e.rejected(&OperationError{Op: op, Path: path, Err: err})
	}
	return e.attach(op, parent, len(parent.Values), child)
}

func (e *Engine) container(op, path string) (*ir.Node, error) {
	if err := e.checkEditable(op, path); err != nil {
		return nil, err
	}
	kp, err := parse(op, path)
	if err != nil {
		return nil, err
	}
	if _, _, isAttr := splitAttr(kp); isAttr {
		return nil, opErr(op, path, ErrNotContainer, "attributes hold text")
	}
	n, err := e.resolve(op, path, kp)
	if err != nil {
		return nil, err
	}
	if !n.Type.IsContainer() {
		return nil, opErr(op, path, ErrNotContainer, "%s", n.Type)
	}
	return n, nil
}

// attach validates child at its future path and inserts it.
func (e *Engine) attach(op string, parent *ir.Node, index int, child *ir.Node) error {
	kp := parent.ParsedKPath().Append(childSegment(parent, index, child))
	path := kp.String()
	if vs := e.validatorsFor(kp); len(vs) != 0 {
		if err := validate(context.Background(), vs, path, ir.ToAny(child)); err != nil {
			return e.rejected(err)
		}
	}
	insert(parent, index, child)
	e.committed(Event{Type: EventAdd, Path: child.KPath(), New: ir.ToAny(child)})
	return nil
}

// Delete removes the node or attribute at path. A path that addresses
// nothing is not an error: Delete reports false and leaves the tree as
// it is.
func (e *Engine) Delete(path string) (bool, error) {
	const op = "delete"
	if err := e.checkEditable(op, path); err != nil {
		return false, e.rejected(err)
	}
	kp, err := parse(op, path)
	if err != nil {
		return false, e.rejected(err)
	}
	if kp == nil {
		return false, e.rejected(opErr(op, path, ErrKind, "cannot delete the root"))
	}
	target, attr, isAttr := splitAttr(kp)
	var n *ir.Node
	if e.root != nil {
		n, err = e.root.Resolve(target)
	}
	if n == nil {
		if err == nil || errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, e.rejected(&OperationError{Op: op, Path: path, Err: err})
	}
	if isAttr {
		return e.deleteAttr(n, attr)
	}
	if p, ok := e.protected(n); ok {
		return false, e.rejected(opErr(op, path, ErrRequired, "%q", p))
	}
	if rootElement(n) {
		return false, e.rejected(opErr(op, path, ErrRequired, "an XML document needs its root element"))
	}
	old := ir.ToAny(n)
	canon := n.KPath()
	detach(n)
	e.committed(Event{Type: EventDelete, Path: canon, Old: old})
	return true, nil
}

func (e *Engine) deleteAttr(n *ir.Node, attr string) (bool, error) {
	kp := n.ParsedKPath().Append(kpath.NewAttr(attr))
	i := -1
	for j := range n.Attrs {
		if n.Attrs[j].Name == attr {
			i = j
			break
		}
	}
	if i == -1 {
		return false, nil
	}
	if e.protectedAttr(kp) {
		return false, e.rejected(opErr("delete", kp.String(), ErrRequired, ""))
	}
	old := n.Attrs[i].Value
	n.Attrs = append(n.Attrs[:i:i], n.Attrs[i+1:]...)
	e.committed(Event{Type: EventDelete, Path: kp.String(), Old: old})
	return true, nil
}

// Move detaches the node at from and inserts it at index under the
// container at to; -1 appends. Every check runs before the tree is
// touched, so a refused move leaves it unchanged. A node moved into an
// object keeps its key, which must be free there.
func (e *Engine) Move(from, to string, index int) error {
	const op = "move"
	fail := func(err error, format string, args ...any) error {
		oe := opErr(op, from, err, format, args...)
		oe.To = to
		return e.rejected(oe)
	}
	if err := e.checkEditable(op, from); err != nil {
		return e.rejected(err)
	}
	fkp, err := parse(op, from)
	if err != nil {
		return e.rejected(err)
	}
	tkp, err := parse(op, to)
	if err != nil {
		return e.rejected(err)
	}
	if _, _, ok := splitAttr(fkp); ok {
		return fail(ErrKind, "attributes are not nodes")
	}
	if fkp == nil {
		return fail(ErrKind, "cannot move the root")
	}
	n, err := e.resolve(op, from, fkp)
	if err != nil {
		return e.rejected(err)
	}
	dest, err := e.resolve(op, to, tkp)
	if err != nil {
		var oe *OperationError
		if errors.As(err, &oe) {
			oe.To = to
		}
		return e.rejected(err)
	}
	if !dest.Type.IsContainer() {
		return fail(ErrNotContainer, "%q is a %s", to, dest.Type)
	}
	if n.Contains(dest) {
		return fail(ErrCycle, "%q is inside %q", to, from)
	}
	if p, ok := e.protected(n); ok {
		return fail(ErrRequired, "%q", p)
	}
	if !accepts(dest, n) {
		return fail(ErrKind, "%s cannot hold a %s", dest.Type, n.Type)
	}
	if dest.Type == ir.ObjectType {
		if n.Parent.Type != ir.ObjectType {
			return fail(ErrKind, "an array element has no key for an object")
		}
		if m := ir.Get(dest, n.Name); m != nil && m != n {
			return fail(ErrKeyExists, "%q", n.Name)
		}
	}
	size := len(dest.Values)
	if n.Parent == dest {
		size--
	}
	if index == -1 {
		index = size
	}
	if index < 0 || index > size {
		return fail(ErrIndex, "%d not in [0, %d]", index, size)
	}
	oldPath := n.KPath()
	detach(n)
	insert(dest, index, n)
	e.committed(Event{Type: EventMove, Path: n.KPath(), From: oldPath, New: ir.ToAny(n)})
	return nil
}
