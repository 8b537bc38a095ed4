package mdfmt

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	blocks = goldmark.New().Parser()

	atxRE      = regexp.MustCompile(`^ {0,3}#{1,6}(?:[ \t]|\n|$)`)
	tableDelim = regexp.MustCompile(`^ {0,3}\|?[ \t]*:?-+:?[ \t]*(?:\|[ \t]*:?-+:?[ \t]*)*\|?[ \t]*$`)
)

// item is a scanned heading or content block.
type item struct {
	heading bool
	level   int
	title   string
	setext  bool
	block   string
	lines   []string
}

func (it *item) text() string {
	return strings.Join(it.lines, "\n")
}

func blank(l string) bool {
	return strings.TrimSpace(l) == ""
}

// scan splits d into headings and content blocks. goldmark finds the top
// level blocks; the text of a block runs from its first line up to the
// first line of the next one, so content keeps its source spelling.
func scan(d []byte) []*item {
	d = bytes.ReplaceAll(d, []byte("\r\n"), []byte("\n"))
	doc := blocks.Parse(text.NewReader(d))
	type span struct {
		n  ast.Node
		at int
	}
	var spans []span
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if at := start(n); at >= 0 {
			spans = append(spans, span{n: n, at: lineStart(d, at)})
		}
	}
	if len(spans) == 0 {
		return appendText(nil, d)
	}
	res := appendText(nil, d[:spans[0].at])
	for i, s := range spans {
		end := len(d)
		if i+1 < len(spans) {
			end = spans[i+1].at
		}
		src := d[s.at:end]
		if h, ok := s.n.(*ast.Heading); ok {
			it, used := heading(h, d, src)
			res = append(res, it)
			res = appendText(res, src[used:])
			continue
		}
		lines := trimLines(src)
		if len(lines) == 0 {
			continue
		}
		res = append(res, &item{block: kind(s.n, lines), lines: lines})
	}
	return res
}

// start is the source offset of a block, taken from its first line when
// the parser recorded no position.
func start(n ast.Node) int {
	if p := n.Pos(); p >= 0 {
		return p
	}
	at := -1
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || c.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		if c.Lines().Len() > 0 {
			at = c.Lines().At(0).Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return at
}

func lineStart(d []byte, off int) int {
	return bytes.LastIndexByte(d[:off], '\n') + 1
}

// heading builds the item of h and returns how many bytes of src its
// lines take: one for ATX, the text lines and the underline for setext.
func heading(h *ast.Heading, d, src []byte) (*item, int) {
	it := &item{heading: true, level: h.Level}
	var parts []string
	for i := range h.Lines().Len() {
		seg := h.Lines().At(i)
		parts = append(parts, strings.TrimSpace(string(seg.Value(d))))
	}
	it.title = strings.Join(parts, " ")
	n := 1
	if !atxRE.Match(src) {
		it.setext = true
		n = h.Lines().Len() + 1
	}
	used := 0
	for range n {
		i := bytes.IndexByte(src[used:], '\n')
		if i < 0 {
			return it, len(src)
		}
		used += i + 1
	}
	return it, used
}

// appendText adds the non blank text s as a paragraph.
func appendText(res []*item, s []byte) []*item {
	lines := trimLines(s)
	if len(lines) == 0 {
		return res
	}
	return append(res, &item{block: kind(nil, lines), lines: lines})
}

func kind(n ast.Node, lines []string) string {
	if n != nil {
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			return BlockCode
		case ast.KindList:
			return BlockList
		case ast.KindBlockquote:
			return BlockQuote
		case ast.KindHTMLBlock:
			return BlockHTML
		case ast.KindThematicBreak:
			return BlockRule
		}
	}
	if len(lines) >= 2 && strings.Contains(lines[0], "|") && tableDelim.MatchString(lines[1]) {
		return BlockTable
	}
	return BlockParagraph
}

// trimLines splits s into lines without the blank lines around them.
func trimLines(s []byte) []string {
	lines := strings.Split(string(s), "\n")
	for len(lines) > 0 && blank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && blank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// paragraphText reports whether s reads back as a single paragraph, so it
// can be the text of a setext heading.
func paragraphText(s string) bool {
	doc := blocks.Parse(text.NewReader([]byte(s)))
	c := doc.FirstChild()
	return c != nil && c.NextSibling() == nil && c.Kind() == ast.KindParagraph
}
