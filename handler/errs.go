package handler

import (
	"errors"
	"fmt"

	"github.com/signadot/tony-format/treedoc/format"
)

var (
	ErrParse     = errors.New("parse error")
	ErrBadFormat = format.ErrBadFormat
	ErrEncode    = errors.New("encode error")
)

type ErrorKind int

const (
	SyntaxError ErrorKind = iota
	UnexpectedEnd
	UnknownEntity
	MismatchedTag
	BadIndentation
	DuplicateName
	EmptyDocument
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax"
	case UnexpectedEnd:
		return "unexpected end"
	case UnknownEntity:
		return "unknown entity"
	case MismatchedTag:
		return "mismatched tag"
	case BadIndentation:
		return "bad indentation"
	case DuplicateName:
		return "duplicate name"
	case EmptyDocument:
		return "empty document"
	}
	return "<unknown kind>"
}

// ParseError reports malformed input. Line and Col are 1 based, zero when
// unknown.
type ParseError struct {
	Format  format.Format
	Kind    ErrorKind
	Content string
	Msg     string
	Line    int
	Col     int
	Err     error
}

// NewParseError creates a parse error positioned at byte offset off of
// content; a negative offset leaves the position unknown.
func NewParseError(f format.Format, kind ErrorKind, content []byte, off int, msg string, args ...any) *ParseError {
	e := &ParseError{
		Format:  f,
		Kind:    kind,
		Content: string(content),
		Msg:     fmt.Sprintf(msg, args...),
	}
	if off >= 0 {
		e.Line, e.Col = LineCol(content, off)
	}
	return e
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s %s at %d:%d: %s: %s", e.Format, ErrParse, e.Line, e.Col, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Format, ErrParse, e.Kind, e.Msg)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// LineCol converts a byte offset into a 1 based line and column.
func LineCol(d []byte, off int) (int, int) {
	if off > len(d) {
		off = len(d)
	}
	line, col := 1, 1
	for _, c := range d[:off] {
		if c == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

// FormatError reports a request for a format without a handler.
type FormatError struct {
	Format string
	Msg    string
}

func (e *FormatError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %q: %s", ErrBadFormat, e.Format, e.Msg)
	}
	return fmt.Sprintf("%s: %q", ErrBadFormat, e.Format)
}

func (e *FormatError) Unwrap() error {
	return ErrBadFormat
}
