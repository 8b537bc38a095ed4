package edit

import (
	"fmt"
	"log/slog"

	"github.com/signadot/tony-format/treedoc/debug"
	"github.com/signadot/tony-format/treedoc/ir"
	"github.com/signadot/tony-format/treedoc/ir/kpath"
)

// Engine applies structural operations to one tree.
type Engine struct {
	root       *ir.Node
	editable   bool
	required   []*kpath.KPath
	validators []registration
	listeners  []Listener
	logger     *slog.Logger

	requiredSrc  []string
	validatorSrc []pendingValidator

	// bulk nesting depth and the operations folded so far
	bulk  int
	count int
	// generation of the latest Begin per path, drawn from seq
	gen map[string]uint64
	seq uint64
}

type registration struct {
	pattern *kpath.KPath
	v       Validator
}

// New creates an engine over root, which may be nil for an empty
// document.
func New(root *ir.Node, opts ...Option) (*Engine, error) {
	e := &Engine{
		root:     root,
		editable: true,
		logger:   slog.Default(),
		gen:      map[string]uint64{},
	}
	for _, o := range opts {
		o(e)
	}
	for _, p := range e.requiredSrc {
		kp, err := kpath.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("required path: %w: %w", ir.ErrPath, err)
		}
		e.required = append(e.required, kp)
	}
	e.requiredSrc = nil
	for _, pv := range e.validatorSrc {
		if err := e.Register(pv.pattern, pv.v); err != nil {
			return nil, err
		}
	}
	e.validatorSrc = nil
	return e, nil
}

// Root returns the current tree, nil for an empty document.
func (e *Engine) Root() *ir.Node {
	return e.root
}

// SetRoot replaces the tree without notification. Pending validations
// started against the previous tree become stale.
func (e *Engine) SetRoot(root *ir.Node) {
	e.root = root
	clear(e.gen)
}

func (e *Engine) Editable() bool {
	return e.editable
}

func (e *Engine) SetEditable(v bool) {
	e.editable = v
}

// Register adds a validator for the paths matching pattern. A pattern is
// a path in which any segment may be the wildcard *.
func (e *Engine) Register(pattern string, v Validator) error {
	kp, err := kpath.Parse(pattern)
	if err != nil {
		return fmt.Errorf("validator %q: %w: %w", v.Name(), ir.ErrPath, err)
	}
	e.validators = append(e.validators, registration{pattern: kp, v: v})
	return nil
}

func (e *Engine) AddListener(l Listener) {
	e.listeners = append(e.listeners, l)
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

func (e *Engine) validatorsFor(kp *kpath.KPath) []Validator {
	var res []Validator
	for _, r := range e.validators {
		if kpath.Match(r.pattern, kp) {
			res = append(res, r.v)
		}
	}
	return res
}

// protected returns the first required node within n.
func (e *Engine) protected(n *ir.Node) (string, bool) {
	if len(e.required) == 0 {
		return "", false
	}
	for x := range n.All() {
		kp := x.ParsedKPath()
		for _, r := range e.required {
			if kpath.Match(r, kp) {
				return kp.String(), true
			}
		}
	}
	return "", false
}

func (e *Engine) protectedAttr(kp *kpath.KPath) bool {
	for _, r := range e.required {
		if kpath.Match(r, kp) {
			return true
		}
	}
	return false
}

// committed logs ev and notifies listeners, or folds ev into the
// current bulk group.
func (e *Engine) committed(ev Event) {
	if debug.Edit() {
		debug.Logf("edit: %s %q\n", ev.Type, ev.Path)
	}
	e.logger.Debug("committed", "op", ev.Type, "path", ev.Path)
	if e.bulk > 0 {
		e.count++
		return
	}
	e.notify(ev)
}

func (e *Engine) notify(ev Event) {
	for _, l := range e.listeners {
		e.callListener(l, ev)
	}
}

func (e *Engine) callListener(l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("listener panicked", "event", ev.Type, "path", ev.Path, "panic", r)
		}
	}()
	l(ev)
}

// rejected logs err and returns it.
func (e *Engine) rejected(err error) error {
	if debug.Edit() {
		debug.Logf("edit: rejected: %v\n", err)
	}
	e.logger.Warn("rejected", "error", err)
	return err
}

// parse parses a path for op.
func parse(op, path string) (*kpath.KPath, error) {
	kp, err := kpath.Parse(path)
	if err != nil {
		return nil, opErr(op, path, ir.ErrPath, "%v", err)
	}
	if kp.HasWildcard() {
		return nil, opErr(op, path, ir.ErrPath, "wildcards address no single node")
	}
	return kp, nil
}

// splitAttr separates a trailing @attr segment.
func splitAttr(kp *kpath.KPath) (*kpath.KPath, string, bool) {
	last := kp.Last()
	if last == nil || last.Attr == nil {
		return kp, "", false
	}
	return kp.Parent(), *last.Attr, true
}

func (e *Engine) resolve(op, path string, kp *kpath.KPath) (*ir.Node, error) {
	if e.root == nil {
		return nil, opErr(op, path, ErrNotFound, "empty document")
	}
	n, err := e.root.Resolve(kp)
	if err != nil {
		return nil, &OperationError{Op: op, Path: path, Err: err}
	}
	return n, nil
}

func (e *Engine) checkEditable(op, path string) error {
	if !e.editable {
		return &OperationError{Op: op, Path: path, Err: ErrReadOnly}
	}
	return nil
}
