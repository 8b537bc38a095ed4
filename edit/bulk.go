package edit

import (
	"fmt"

	"github.com/signadot/tony-format/treedoc/ir"
)

// Bulk runs fn with change notification suspended. When fn succeeds and
// changed anything, listeners get a single EventBulk whose Count is the
// number of operations committed inside. When fn fails or panics, the
// tree is restored to its state before Bulk and nothing is notified.
// Bulk calls nest; only the outermost one notifies.
func (e *Engine) Bulk(fn func() error) error {
	return e.group(EventBulk, "", fn)
}

// group runs fn as one unit reported by a single event of type typ.
func (e *Engine) group(typ EventType, path string, fn func() error) (err error) {
	var snap *ir.Node
	if e.root != nil {
		snap = e.root.Clone()
	}
	root, count := e.root, e.count
	e.bulk++
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", typ, r)
		}
		e.bulk--
		if err != nil {
			e.restore(root, snap)
			e.count = count
			if e.bulk == 0 {
				e.count = 0
			}
			return
		}
		if e.bulk > 0 {
			return
		}
		n := e.count
		e.count = 0
		if n == 0 {
			return
		}
		e.logger.Debug("committed", "op", typ, "count", n)
		e.notify(Event{Type: typ, Path: path, Count: n})
	}()
	return fn()
}

// restore puts the tree back as it was captured. The root node keeps its
// identity when it was not replaced.
func (e *Engine) restore(root, snap *ir.Node) {
	switch {
	case snap == nil:
		e.root = nil
	case e.root == root:
		snap.CloneTo(root)
	default:
		e.root = snap
	}
	clear(e.gen)
}
