// Package edit implements structural mutation of a document tree.
//
// An Engine owns a tree and applies path addressed operations to it:
// Edit, Add, AddKey, Insert, Delete, Move, SetAttr and ApplyPatch. Each
// operation either applies completely or leaves the tree untouched. The
// tree invariants (parent links, contiguous indices, no cycles) hold
// after every operation.
//
// Validators are registered per path pattern and run before a value is
// committed. They may be slow: Begin starts them in the background and
// Commit applies the result on the caller's goroutine, discarding it when
// the target changed in the meantime.
//
// Bulk groups operations so listeners see one aggregate event, and
// restores the tree when the group fails.
//
// The engine is not safe for concurrent use.
package edit
