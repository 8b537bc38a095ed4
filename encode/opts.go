package encode

import "strings"

const DefaultIndent = "  "

// EncState is the resolved set of encode options.
type EncState struct {
	compact bool
	indent  string
	comment bool
}

type EncodeOption func(*EncState)

// Compact selects output without extraneous whitespace.
func Compact(v bool) EncodeOption {
	return func(es *EncState) { es.compact = v }
}

// Indent sets the string used for each nesting level. Only spaces and
// tabs are kept.
func Indent(s string) EncodeOption {
	return func(es *EncState) {
		es.indent = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' {
				return r
			}
			return -1
		}, s)
	}
}

// EncodeComments controls whether comment nodes are written by formats
// that can carry them.
func EncodeComments(v bool) EncodeOption {
	return func(es *EncState) { es.comment = v }
}

// NewEncState applies opts over the defaults.
func NewEncState(opts ...EncodeOption) *EncState {
	es := &EncState{indent: DefaultIndent, comment: true}
	for _, opt := range opts {
		opt(es)
	}
	if es.indent == "" {
		es.indent = DefaultIndent
	}
	return es
}

func (es *EncState) Compact() bool { return es.compact }
func (es *EncState) Comments() bool { return es.comment }
func (es *EncState) IndentStr() string { return es.indent }

// IndentWidth is the indent measured in columns, counting a tab as 8.
func (es *EncState) IndentWidth() int {
	w := 0
	for _, r := range es.indent {
		if r == '\t' {
			w += 8
			continue
		}
		w++
	}
	return w
}

// Prefix returns the indentation for nesting depth d, empty in compact
// mode.
func (es *EncState) Prefix(d int) string {
	if es.compact {
		return ""
	}
	return strings.Repeat(es.indent, d)
}

// Newline returns "\n", or "" in compact mode.
func (es *EncState) Newline() string {
	if es.compact {
		return ""
	}
	return "\n"
}
