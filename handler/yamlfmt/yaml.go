// Package yamlfmt implements the YAML document handler.
//
// Parsing walks the github.com/goccy/go-yaml AST. Anchors, aliases and
// merge keys are resolved while walking, so the resulting tree holds
// plain copies and re-emitted YAML is flattened. Comments are dropped.
// Plain scalars follow YAML 1.1 conventions: yes/no/on/off are booleans.
//
// Encoding builds a gopkg.in/yaml.v3 node graph and lets its emitter
// decide quoting, so strings that would re-parse as another type come
// out quoted.
package yamlfmt

import (
	"bytes"
	"regexp"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/signadot/tony-format/treedoc/debug"
	"github.com/signadot/tony-format/treedoc/format"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"
)

type Handler struct{}

func New() *Handler {
	return &Handler{}
}

func (h *Handler) Format() format.Format {
	return format.YAMLFormat
}

func (h *Handler) Metadata() handler.Metadata {
	return handler.MetadataOf(format.YAMLFormat)
}

func (h *Handler) Validate(d []byte) handler.Result {
	return handler.Validate(h, d)
}

// Parse returns nil and no error for input holding only comments and
// whitespace.
func (h *Handler) Parse(d []byte) (*ir.Node, error) {
	d = bytes.TrimPrefix(d, []byte("\xef\xbb\xbf"))
	if handler.Blank(d) {
		return nil, nil
	}
	f, err := parser.ParseBytes(d, 0, parser.AllowDuplicateMapKey())
	if err != nil {
		return nil, wrap(d, err)
	}
	var res *ir.Node
	for _, doc := range f.Docs {
		if doc == nil || doc.Body == nil {
			continue
		}
		if _, ok := doc.Body.(*ast.CommentGroupNode); ok {
			continue
		}
		if res != nil {
			return nil, errAt(d, doc.Body, handler.SyntaxError, "more than one document")
		}
		b := &builder{d: d, anchors: map[string]*ir.Node{}}
		res, err = b.node(doc.Body)
		if err != nil {
			return nil, err
		}
	}
	if debug.Parse() {
		debug.Logf("yaml: parsed %d bytes into %v\n", len(d), debug.Node{Node: res})
	}
	return res, nil
}

var (
	mapLine    = regexp.MustCompile(`^(?:"[^"]*"|'[^']*'|[^\s#:\-?\[\]{},&*!|>'"%@` + "`" + `][^:#\s]*)[ \t]*:(?:[ \t]|$)`)
	seqLine    = regexp.MustCompile(`^-(?:[ \t]|$)`)
	headLine   = regexp.MustCompile(`^#{1,6}[ \t]+\S`)
	docMarker  = regexp.MustCompile(`^(?:---|\.\.\.)(?:[ \t]|$)`)
	directive  = regexp.MustCompile(`^%(?:YAML|TAG)[ \t]`)
	flowMapKey = regexp.MustCompile(`^\{[ \t\r\n]*[A-Za-z_]`)
)

// Detect looks at the unindented lines of the detection window: all of
// them must be mapping entries, sequence entries, comments or document
// markers. A sequence alone is not enough when the comments look like
// Markdown headings. After a leading "---" plain scalar lines are allowed.
func (h *Handler) Detect(d []byte) bool {
	p := handler.Prefix(d)
	if len(p) == 0 {
		return false
	}
	switch p[0] {
	case '{':
		return flowMapKey.Match(p)
	case '[', '<', '"':
		return false
	}
	lines := bytes.Split(p, []byte("\n"))
	if len(p) == handler.DetectLimit && len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}
	var maps, seqs, heads, plain int
	marker, started := false, false
	for _, l := range lines {
		l = bytes.TrimRight(l, " \t\r")
		if len(l) == 0 {
			continue
		}
		if l[0] == ' ' || l[0] == '\t' {
			continue
		}
		first := !started
		started = true
		switch {
		case l[0] == '#':
			if headLine.Match(l) {
				heads++
			}
			continue
		case docMarker.Match(l), directive.Match(l):
			if first || marker {
				marker = true
			}
			continue
		case seqLine.Match(l):
			seqs++
		case mapLine.Match(l):
			maps++
		case marker:
			plain++
		default:
			return false
		}
	}
	switch {
	case plain > 0:
		return heads == 0 && maps == 0 && seqs == 0
	case maps > 0, marker:
		return true
	case seqs > 0:
		return heads == 0
	}
	return false
}
