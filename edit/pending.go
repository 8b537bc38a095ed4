package edit

import (
	"context"
	"strings"

	"github.com/signadot/tony-format/treedoc/ir"
	"github.com/signadot/tony-format/treedoc/ir/kpath"
)

type change int

const (
	replaceNode change = iota
	setString
	setName
	setText
	setAttr
)

// Pending is an edit waiting for its validators.
type Pending struct {
	path  string
	kp    *kpath.KPath
	gen   uint64
	value any

	change  change
	node    *ir.Node
	str     string
	attr    string
	old     *ir.Node
	oldAttr string
	hadAttr bool

	done chan struct{}
	err  error
}

// Path is the canonical path of the edited node or attribute.
func (p *Pending) Path() string {
	return p.path
}

// Done is closed once the validators have finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the validators finish or ctx ends and returns the
// validation result.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Edit sets the value at path and waits for its validators. A path
// ending in @name sets an attribute.
func (e *Engine) Edit(path string, value any) error {
	return e.EditContext(context.Background(), path, value)
}

func (e *Engine) EditContext(ctx context.Context, path string, value any) error {
	p, err := e.Begin(ctx, path, value)
	if err != nil {
		return err
	}
	if err := p.Wait(ctx); err != nil {
		return e.rejected(err)
	}
	return e.Commit(p)
}

// SetAttr sets an XML attribute of the element at path, appending it when
// absent.
func (e *Engine) SetAttr(path, name, value string) error {
	kp, err := parse("attr", path)
	if err != nil {
		return e.rejected(err)
	}
	return e.Edit(kp.Append(kpath.NewAttr(name)).String(), value)
}

// Begin prepares an edit and starts its validators in the background.
// The tree is not changed until Commit. A later Begin on the same path
// makes this one stale.
func (e *Engine) Begin(ctx context.Context, path string, value any) (*Pending, error) {
	p, err := e.prepare(path, value)
	if err != nil {
		return nil, e.rejected(err)
	}
	e.seq++
	e.gen[p.path] = e.seq
	p.gen = e.seq
	p.done = make(chan struct{})
	vs := e.validatorsFor(p.kp)
	if len(vs) == 0 {
		close(p.done)
		return p, nil
	}
	go func() {
		defer close(p.done)
		p.err = validate(ctx, vs, p.path, p.value)
	}()
	return p, nil
}

func (e *Engine) prepare(path string, value any) (*Pending, error) {
	const op = "edit"
	if err := e.checkEditable(op, path); err != nil {
		return nil, err
	}
	kp, err := parse(op, path)
	if err != nil {
		return nil, err
	}
	target, attr, isAttr := splitAttr(kp)
	n, err := e.resolve(op, path, target)
	if err != nil {
		return nil, err
	}
	p := &Pending{kp: n.ParsedKPath(), old: n.Clone()}
	if isAttr {
		return p, prepareAttr(p, n, attr, path, value)
	}
	p.path = p.kp.String()
	switch n.Type {
	case ir.NullType, ir.BoolType, ir.NumberType, ir.StringType, ir.ObjectType, ir.ArrayType:
		v, err := dataNode(value)
		if err != nil {
			return nil, &OperationError{Op: op, Path: path, Err: err}
		}
		if v.Type == n.Type {
			v.Tag = n.Tag
		}
		p.change, p.node, p.value = replaceNode, v, ir.ToAny(v)
		return p, nil
	}
	s, ok := scalarString(value)
	if !ok {
		return nil, opErr(op, path, ErrKind, "%s takes text, not %T", n.Type, value)
	}
	p.str, p.value = s, s
	switch n.Type {
	case ir.TextType, ir.CDataType, ir.CommentType, ir.ProcInstType, ir.ContentType:
		p.change = setString
	case ir.HeadingType:
		if strings.ContainsAny(s, "\r\n") {
			return nil, opErr(op, path, ErrKind, "heading text spans lines")
		}
		p.change = setName
	case ir.ElementType:
		if hasElement(n) {
			return nil, opErr(op, path, ErrKind, "element %q has child elements", n.Name)
		}
		p.change = setText
	default:
		return nil, opErr(op, path, ErrKind, "cannot edit a %s", n.Type)
	}
	return p, nil
}

func prepareAttr(p *Pending, n *ir.Node, attr, path string, value any) error {
	if n.Type != ir.ElementType {
		return opErr("attr", path, ErrKind, "%s has no attributes", n.Type)
	}
	if attr == "" || strings.ContainsAny(attr, " \t\r\n<>&\"'=/") {
		return opErr("attr", path, ErrKind, "bad attribute name %q", attr)
	}
	s, ok := scalarString(value)
	if !ok {
		return opErr("attr", path, ErrKind, "attribute values are text, not %T", value)
	}
	p.kp = p.kp.Append(kpath.NewAttr(attr))
	p.path = p.kp.String()
	p.change, p.attr, p.str, p.value = setAttr, attr, s, s
	p.oldAttr, p.hadAttr = n.Attr(attr)
	return nil
}

// Commit applies p once its validators are done. It fails with the
// validation error, or with ErrStale when the target changed or a newer
// Begin addressed the same path.
func (e *Engine) Commit(p *Pending) error {
	<-p.done
	op := "edit"
	if p.change == setAttr {
		op = "attr"
	}
	if err := e.checkEditable(op, p.path); err != nil {
		return e.rejected(err)
	}
	if p.err != nil {
		return e.rejected(p.err)
	}
	if e.gen[p.path] != p.gen {
		return e.rejected(opErr(op, p.path, ErrStale, "superseded by a newer edit"))
	}
	target, _, isAttr := splitAttr(p.kp)
	var n *ir.Node
	if e.root != nil {
		n, _ = e.root.Resolve(target)
	}
	if n == nil || !ir.Equal(n, p.old) {
		return e.rejected(opErr(op, p.path, ErrStale, "target changed"))
	}
	if isAttr {
		if v, ok := n.Attr(p.attr); v != p.oldAttr || ok != p.hadAttr {
			return e.rejected(opErr(op, p.path, ErrStale, "attribute changed"))
		}
	}
	delete(e.gen, p.path)
	ev := e.apply(p, n)
	e.committed(ev)
	return nil
}

func (e *Engine) apply(p *Pending, n *ir.Node) Event {
	ev := Event{Type: EventEdit, Path: p.path, Old: ir.ToAny(n), New: p.value}
	switch p.change {
	case replaceNode:
		replace(n, p.node)
		if n == e.root {
			e.root = p.node
		}
		ev.New = ir.ToAny(p.node)
	case setString:
		n.String = p.str
	case setName:
		n.Name = p.str
	case setText:
		for _, c := range n.Values {
			c.Parent = nil
		}
		n.Values = nil
		if p.str != "" {
			insert(n, 0, ir.NewText(p.str))
		}
		n.SelfClose = n.SelfClose && p.str == ""
	case setAttr:
		ev.Type = EventAttr
		ev.Old = nil
		if p.hadAttr {
			ev.Old = p.oldAttr
		}
		set := false
		for i := range n.Attrs {
			if n.Attrs[i].Name == p.attr {
				n.Attrs[i].Value = p.str
				set = true
			}
		}
		if !set {
			n.Attrs = append(n.Attrs, ir.Attr{Name: p.attr, Value: p.str})
		}
	}
	return ev
}
