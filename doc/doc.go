// Package doc ties a document's text and tree together.
//
// A Document is loaded from text in any registered format and then
// edited in one of two modes. In Structural mode the tree is
// authoritative: operations go through an edit.Engine and the text is
// derived on demand. In Source mode the text is authoritative and the
// tree is stale; switching back to Structural parses the text and
// either replaces the tree or fails, leaving the document in Source mode
// until the text is fixed. Whichever representation became
// authoritative last wins; nothing is merged.
//
// Like the engine, a Document is not safe for concurrent use. Listeners
// that hand events to other goroutines can use SinkListener.
package doc
