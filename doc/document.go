package doc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/signadot/tony-format/treedoc/debug"
	"github.com/signadot/tony-format/treedoc/edit"
	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/handler/builtin"
	"github.com/signadot/tony-format/treedoc/ir"
)

// EventSource is sent when the text is replaced in Source mode.
const EventSource edit.EventType = "source"

type Document struct {
	reg    *handler.Registry
	h      handler.Handler
	eng    *edit.Engine
	mode   Mode
	source string

	switching bool
	closed    bool
	// last error passed to the callbacks
	lastErr error

	logger    *slog.Logger
	listeners []edit.Listener
	onError   []func(error)
	encOpts   []encode.EncodeOption
	editOpts  []edit.Option
}

// New creates an empty document in Structural mode.
func New(opts ...Option) (*Document, error) {
	d := &Document{logger: slog.Default()}
	for _, o := range opts {
		o(d)
	}
	if d.reg == nil {
		d.reg = builtin.Registry()
	}
	eopts := append([]edit.Option{edit.WithLogger(d.logger)}, d.editOpts...)
	eopts = append(eopts, edit.WithListener(d.notify))
	eng, err := edit.New(nil, eopts...)
	if err != nil {
		return nil, err
	}
	d.eng = eng
	d.editOpts = nil
	return d, nil
}

// Load parses text and makes the result the authoritative tree. An empty
// hint detects the format. On failure the document is unchanged.
func (d *Document) Load(text []byte, hint string) error {
	if err := d.usable(); err != nil {
		return d.fail(err)
	}
	h, err := d.handlerFor(text, hint)
	if err != nil {
		return d.fail(err)
	}
	root, err := h.Parse(text)
	if err != nil {
		return d.fail(err)
	}
	if debug.Sync() {
		debug.Logf("sync: load %s %s\n", h.Format(), debug.Node{Node: root})
	}
	d.h = h
	d.eng.SetRoot(root)
	d.mode = Structural
	d.source = ""
	d.logger.Debug("loaded", "format", h.Format())
	d.notify(edit.Event{Type: edit.EventLoad, New: h.Format().String()})
	return nil
}

func (d *Document) handlerFor(text []byte, hint string) (handler.Handler, error) {
	if hint == "" {
		return d.reg.Detect(text)
	}
	return d.reg.Lookup(hint)
}

// Handler is the handler of the loaded document, nil before Load.
func (d *Document) Handler() handler.Handler {
	return d.h
}

func (d *Document) Mode() Mode {
	return d.mode
}

// SetMode switches between Structural and Source mode. Entering Source
// mode serializes the tree. Leaving it parses the text with the
// document's handler; a parse failure yields a *ModeSwitchError and the
// document stays in Source mode. A transition requested while another
// one is running, e.g. from a listener, fails with ErrTransitionPending.
func (d *Document) SetMode(m Mode) error {
	if err := d.usable(); err != nil {
		return d.fail(err)
	}
	if m == d.mode {
		return nil
	}
	d.switching = true
	defer func() { d.switching = false }()
	from := d.mode
	switch m {
	case Source:
		text, err := d.serialize()
		if err != nil {
			return d.fail(&ModeSwitchError{From: from, To: m, Err: err})
		}
		d.source = text
	case Structural:
		h := d.h
		var err error
		if h == nil {
			h, err = d.reg.Detect([]byte(d.source))
		}
		var root *ir.Node
		if err == nil {
			root, err = h.Parse([]byte(d.source))
		}
		if err != nil {
			return d.fail(&ModeSwitchError{From: from, To: m, Err: err})
		}
		d.h = h
		d.eng.SetRoot(root)
		d.source = ""
	default:
		return d.fail(fmt.Errorf("unknown mode %d", int(m)))
	}
	d.mode = m
	if debug.Sync() {
		debug.Logf("sync: %s -> %s\n", from, m)
	}
	d.logger.Debug("mode", "from", from, "to", m)
	d.notify(edit.Event{Type: edit.EventMode, Old: from.String(), New: m.String()})
	return nil
}

// SourceText returns the text of the document: the buffer in Source
// mode, the serialized tree in Structural mode.
func (d *Document) SourceText() (string, error) {
	if d.closed {
		return "", d.fail(ErrClosed)
	}
	if d.mode == Source {
		return d.source, nil
	}
	text, err := d.serialize()
	if err != nil {
		return "", d.fail(err)
	}
	return text, nil
}

func (d *Document) serialize() (string, error) {
	root := d.eng.Root()
	if root == nil {
		return "", nil
	}
	if d.h == nil {
		return "", ErrNoFormat
	}
	return handler.Serialize(d.h, root, d.encOpts...)
}

// SetSource replaces the text in Source mode. The tree stays stale until
// the next switch to Structural mode.
func (d *Document) SetSource(text string) error {
	if err := d.usable(); err != nil {
		return d.fail(err)
	}
	if d.mode != Source {
		return d.fail(modeErr("source edit", d.mode))
	}
	old := d.source
	d.source = text
	d.notify(edit.Event{Type: EventSource, Old: old, New: text})
	return nil
}

// Snapshot returns a detached copy of the tree. In Source mode the tree
// is stale and Snapshot fails.
func (d *Document) Snapshot() (*ir.Node, error) {
	root, err := d.snapshot("snapshot")
	if err != nil {
		return nil, d.fail(err)
	}
	return root, nil
}

func (d *Document) snapshot(op string) (*ir.Node, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if d.mode != Structural {
		return nil, modeErr(op, d.mode)
	}
	root := d.eng.Root()
	if root == nil {
		return nil, nil
	}
	return root.Clone(), nil
}

// Get returns a detached copy of the node at path.
func (d *Document) Get(path string) (*ir.Node, error) {
	root, err := d.snapshot("get")
	if err != nil {
		return nil, d.fail(err)
	}
	n, err := root.GetKPath(path)
	if err != nil {
		return nil, d.report(err)
	}
	return n, nil
}

// Validate checks text without loading it. An empty format detects it.
func (d *Document) Validate(text []byte, format string) (handler.Result, error) {
	if d.closed {
		return handler.Result{}, d.fail(ErrClosed)
	}
	h, err := d.handlerFor(text, format)
	if err != nil {
		return handler.Result{}, d.report(err)
	}
	return handler.Validate(h, text), nil
}

func (d *Document) Edit(path string, value any) error {
	if err := d.structural("edit"); err != nil {
		return err
	}
	return d.report(d.eng.Edit(path, value))
}

func (d *Document) EditContext(ctx context.Context, path string, value any) error {
	if err := d.structural("edit"); err != nil {
		return err
	}
	return d.report(d.eng.EditContext(ctx, path, value))
}

// Begin starts an edit whose validators run in the background; see
// edit.Engine.Begin.
func (d *Document) Begin(ctx context.Context, path string, value any) (*edit.Pending, error) {
	if err := d.structural("edit"); err != nil {
		return nil, err
	}
	p, err := d.eng.Begin(ctx, path, value)
	return p, d.report(err)
}

// Commit applies a pending edit. A mode round trip in the meantime makes
// it stale.
func (d *Document) Commit(p *edit.Pending) error {
	if err := d.structural("edit"); err != nil {
		return err
	}
	return d.report(d.eng.Commit(p))
}

func (d *Document) SetAttr(path, name, value string) error {
	if err := d.structural("attr"); err != nil {
		return err
	}
	return d.report(d.eng.SetAttr(path, name, value))
}

func (d *Document) Add(path string, value any) error {
	if err := d.structural("add"); err != nil {
		return err
	}
	return d.report(d.eng.Add(path, value))
}

func (d *Document) AddKey(path, key string, value any) error {
	if err := d.structural("add"); err != nil {
		return err
	}
	return d.report(d.eng.AddKey(path, key, value))
}

func (d *Document) Insert(path string, index int, value any) error {
	if err := d.structural("add"); err != nil {
		return err
	}
	return d.report(d.eng.Insert(path, index, value))
}

func (d *Document) Delete(path string) (bool, error) {
	if err := d.structural("delete"); err != nil {
		return false, err
	}
	ok, err := d.eng.Delete(path)
	return ok, d.report(err)
}

func (d *Document) Move(from, to string, index int) error {
	if err := d.structural("move"); err != nil {
		return err
	}
	return d.report(d.eng.Move(from, to, index))
}

// Bulk runs fn, which calls operations on d, with one aggregate change
// notification. See edit.Engine.Bulk. A failure that an operation inside
// fn already reported is not reported again.
func (d *Document) Bulk(fn func() error) error {
	if err := d.structural("bulk"); err != nil {
		return err
	}
	d.lastErr = nil
	err := d.eng.Bulk(fn)
	if err != nil && d.lastErr != nil && errors.Is(err, d.lastErr) {
		return err
	}
	return d.report(err)
}

func (d *Document) ApplyPatch(patch []byte) error {
	if err := d.structural("patch"); err != nil {
		return err
	}
	return d.report(d.eng.ApplyPatch(patch))
}

// Register adds a validator; see edit.Engine.Register.
func (d *Document) Register(pattern string, v edit.Validator) error {
	return d.eng.Register(pattern, v)
}

func (d *Document) Editable() bool {
	return d.eng.Editable()
}

func (d *Document) SetEditable(v bool) {
	d.eng.SetEditable(v)
}

// Close releases the tree and callbacks. It may be called any number of
// times; later operations fail with ErrClosed.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.eng.SetRoot(nil)
	d.source = ""
	d.listeners = nil
	d.onError = nil
	return nil
}

func (d *Document) usable() error {
	if d.closed {
		return ErrClosed
	}
	if d.switching {
		return ErrTransitionPending
	}
	return nil
}

func (d *Document) structural(op string) error {
	if err := d.usable(); err != nil {
		return d.fail(err)
	}
	if d.mode != Structural {
		return d.fail(modeErr(op, d.mode))
	}
	return nil
}

// fail logs err and reports it.
func (d *Document) fail(err error) error {
	d.logger.Warn("document", "error", err)
	return d.report(err)
}

// report passes a non nil err to the error callbacks.
func (d *Document) report(err error) error {
	if err == nil {
		return nil
	}
	d.lastErr = err
	for _, f := range d.onError {
		d.callOnError(f, err)
	}
	return err
}

func (d *Document) callOnError(f func(error), err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("error callback panicked", "error", err, "panic", r)
		}
	}()
	f(err)
}

func (d *Document) notify(ev edit.Event) {
	for _, l := range d.listeners {
		d.callListener(l, ev)
	}
}

func (d *Document) callListener(l edit.Listener, ev edit.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("listener panicked", "event", ev.Type, "panic", r)
		}
	}()
	l(ev)
}
