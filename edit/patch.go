package edit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/signadot/tony-format/treedoc/handler/jsonfmt"
	"github.com/signadot/tony-format/treedoc/ir"
	"github.com/signadot/tony-format/treedoc/ir/kpath"
)

// ErrTestFailed is returned by ApplyPatch when a test operation does not
// hold.
var ErrTestFailed = errors.New("patch test failed")

// ApplyPatch applies an RFC 6902 JSON Patch to the tree as native
// operations, so member order and the rest of the document are kept.
// The patch is all or nothing: on any failure the tree is restored and
// no event is emitted. Success is reported as one EventPatch.
func (e *Engine) ApplyPatch(patch []byte) error {
	ops, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return e.rejected(fmt.Errorf("%w: %w", ErrKind, err))
	}
	if err := e.checkEditable("patch", ""); err != nil {
		return e.rejected(err)
	}
	return e.group(EventPatch, "", func() error {
		for i, op := range ops {
			if err := e.patchOp(op); err != nil {
				return fmt.Errorf("patch op %d (%s): %w", i, op.Kind(), err)
			}
		}
		return nil
	})
}

func (e *Engine) patchOp(op jsonpatch.Operation) error {
	ptr, err := op.Path()
	if err != nil {
		return err
	}
	to, err := pointer(ptr)
	if err != nil {
		return err
	}
	switch kind := op.Kind(); kind {
	case "add":
		v, err := patchValue(op)
		if err != nil {
			return err
		}
		return e.patchAdd(to, v)
	case "remove":
		ok, err := e.Delete(to.String())
		if err != nil {
			return err
		}
		if !ok {
			return opErr("remove", to.String(), ErrNotFound, "")
		}
		return nil
	case "replace":
		v, err := patchValue(op)
		if err != nil {
			return err
		}
		return e.Edit(to.String(), v)
	case "move", "copy":
		fptr, err := op.From()
		if err != nil {
			return err
		}
		from, err := pointer(fptr)
		if err != nil {
			return err
		}
		if kind == "move" {
			return e.patchMove(from, to)
		}
		n, err := e.resolve(kind, from.String(), from)
		if err != nil {
			return err
		}
		return e.patchAdd(to, detached(n))
	case "test":
		v, err := patchValue(op)
		if err != nil {
			return err
		}
		n, err := e.resolve(kind, to.String(), to)
		if err != nil {
			return err
		}
		if !sameValue(n, v) {
			return opErr(kind, to.String(), ErrTestFailed, "")
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown patch op %q", ErrKind, kind)
	}
}

// patchAdd adds v at the position to addresses. The final segment is a
// key of an object or an index (or "-") of an array; an existing member
// is replaced.
func (e *Engine) patchAdd(to *kpath.KPath, v *ir.Node) error {
	if to == nil {
		return e.Edit("", v)
	}
	parentPath := to.Parent()
	last := *to.Last().Field
	parent, err := e.resolve("add", parentPath.String(), parentPath)
	if err != nil {
		return err
	}
	switch parent.Type {
	case ir.ArrayType:
		if last == "-" {
			return e.Insert(parentPath.String(), -1, v)
		}
		i, err := arrayIndex(last)
		if err != nil {
			return err
		}
		return e.Insert(parentPath.String(), i, v)
	case ir.ObjectType:
		if ir.Get(parent, last) != nil {
			return e.Edit(to.String(), v)
		}
		return e.AddKey(parentPath.String(), last, v)
	}
	return opErr("add", parentPath.String(), ErrNotContainer, "%s", parent.Type)
}

// patchMove uses a native move when the node keeps its key or lands in
// an array, and removes then adds otherwise.
func (e *Engine) patchMove(from, to *kpath.KPath) error {
	n, err := e.resolve("move", from.String(), from)
	if err != nil {
		return err
	}
	if to != nil {
		parentPath := to.Parent()
		last := *to.Last().Field
		parent, err := e.resolve("move", parentPath.String(), parentPath)
		if err != nil {
			return err
		}
		if n.Contains(parent) {
			return opErr("move", from.String(), ErrCycle, "")
		}
		switch {
		case parent.Type == ir.ArrayType:
			i := -1
			if last != "-" {
				if i, err = arrayIndex(last); err != nil {
					return err
				}
			}
			return e.Move(from.String(), parentPath.String(), i)
		case parent.Type == ir.ObjectType && n.Parent.Type == ir.ObjectType && n.Name == last:
			if n.Parent == parent {
				return nil
			}
			if ir.Get(parent, last) == nil {
				return e.Move(from.String(), parentPath.String(), -1)
			}
		}
	}
	v := detached(n)
	if _, err := e.Delete(from.String()); err != nil {
		return err
	}
	return e.patchAdd(to, v)
}

func patchValue(op jsonpatch.Operation) (*ir.Node, error) {
	raw := op["value"]
	if raw == nil {
		return nil, fmt.Errorf("%w: %s without a value", ErrKind, op.Kind())
	}
	return jsonfmt.New().Parse(*raw)
}

// pointer converts a JSON Pointer into a path.
func pointer(ptr string) (*kpath.KPath, error) {
	if ptr == "" {
		return nil, nil
	}
	if ptr[0] != '/' {
		return nil, fmt.Errorf("%w: JSON pointer %q", ir.ErrPath, ptr)
	}
	var res *kpath.KPath
	for _, seg := range strings.Split(ptr[1:], "/") {
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		res = res.Append(kpath.NewField(seg))
	}
	return res, nil
}

func arrayIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 || (len(s) > 1 && s[0] == '0') {
		return 0, fmt.Errorf("%w: array index %q", ErrIndex, s)
	}
	return i, nil
}

func detached(n *ir.Node) *ir.Node {
	c := n.Clone()
	c.Parent = nil
	c.ParentIndex = 0
	return c
}

// sameValue compares n with a parsed value, ignoring the key and tag of n.
func sameValue(n, v *ir.Node) bool {
	c := v.Clone()
	c.Name, c.Tag = n.Name, n.Tag
	return ir.Equal(n, c)
}
