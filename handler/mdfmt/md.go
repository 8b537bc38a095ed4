// Package mdfmt implements the Markdown document handler.
//
// The tree follows the heading outline: a heading holds the blocks after
// it and the deeper headings up to the next heading of the same or a
// shallower level. Everything else is grouped into opaque Content nodes
// whose Block records the kind of block. Heading text is kept verbatim,
// inline markup included.
//
// A document with headings parses to a DocumentType root. Without any
// heading the whole text is a single Content root.
package mdfmt

import (
	"bytes"
	"encoding/json"
	"regexp"

	"github.com/signadot/tony-format/treedoc/debug"
	"github.com/signadot/tony-format/treedoc/format"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"
)

// Block kinds of Content nodes.
const (
	BlockParagraph = "paragraph"
	BlockCode      = "code"
	BlockList      = "list"
	BlockQuote     = "blockquote"
	BlockHTML      = "html"
	BlockTable     = "table"
	BlockRule      = "rule"
	// BlockDocument marks a heading-less document made of several blocks.
	BlockDocument = "document"
)

type Handler struct{}

func New() *Handler {
	return &Handler{}
}

func (h *Handler) Format() format.Format {
	return format.MarkdownFormat
}

func (h *Handler) Metadata() handler.Metadata {
	return handler.MetadataOf(format.MarkdownFormat)
}

func (h *Handler) Validate(d []byte) handler.Result {
	return handler.Validate(h, d)
}

// Parse never fails on non-empty input: any text is Markdown. Blank input
// is the empty document.
func (h *Handler) Parse(d []byte) (*ir.Node, error) {
	d = bytes.TrimPrefix(d, []byte("\xef\xbb\xbf"))
	if handler.Blank(d) {
		return nil, nil
	}
	items := scan(d)
	res := outline(items)
	if debug.Parse() {
		debug.Logf("markdown: %d blocks, root %s\n", len(items), res.Type)
	}
	return res, nil
}

var (
	signals = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^ {0,3}#{1,6}(?:[ \t]+\S|[ \t]*$)`),
		regexp.MustCompile(`(?m)^ {0,3}(?:` + "```" + `|~~~)`),
		regexp.MustCompile(`(?m)^\S[^\n]*\n {0,3}(?:=+|-+)[ \t]*$`),
		regexp.MustCompile(`(?m)^ {0,3}> `),
		regexp.MustCompile(`\[[^\]\n]+\]\([^)\n]*\)`),
		regexp.MustCompile(`(?:\*\*|__)\S[^\n]*?(?:\*\*|__)`),
		regexp.MustCompile(`(?m)^ {0,3}(?:[*+]|\d{1,9}[.)])[ \t]+\S`),
	}
)

// Detect looks for Markdown constructs: headings, fences, setext
// underlines, quotes, links, strong emphasis or list items. Every text
// parses as Markdown, so the window is sniffed rather than parsed. Input
// that opens like JSON or XML is left to those formats.
func (h *Handler) Detect(d []byte) bool {
	p := handler.Prefix(d)
	if len(p) == 0 {
		return false
	}
	switch p[0] {
	case '{', '<', '"':
		return false
	case '[':
		if !bytes.Contains(p, []byte("](")) {
			return false
		}
	}
	if len(p) < handler.DetectLimit && json.Valid(p) {
		return false
	}
	for _, re := range signals {
		if re.Match(p) {
			return true
		}
	}
	return false
}
