package ir

import "fmt"

type Type int

const (
	NullType Type = iota
	NumberType
	StringType
	BoolType
	ObjectType
	ArrayType
	DocumentType
	ElementType
	TextType
	CDataType
	CommentType
	ProcInstType
	HeadingType
	ContentType
)

var typeNames = map[Type]string{
	NullType:     "Null",
	NumberType:   "Number",
	StringType:   "String",
	BoolType:     "Bool",
	ObjectType:   "Object",
	ArrayType:    "Array",
	DocumentType: "Document",
	ElementType:  "Element",
	TextType:     "Text",
	CDataType:    "CData",
	CommentType:  "Comment",
	ProcInstType: "ProcInst",
	HeadingType:  "Heading",
	ContentType:  "Content",
}

func (t Type) String() string {
	s, ok := typeNames[t]
	if ok {
		return s
	}
	return "<unknown type>"
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(d []byte) error {
	for tt, name := range typeNames {
		if name == string(d) {
			*t = tt
			return nil
		}
	}
	return fmt.Errorf("unrecognized type %q", d)
}

func Types() []Type {
	return []Type{
		NullType,
		NumberType,
		StringType,
		BoolType,
		ObjectType,
		ArrayType,
		DocumentType,
		ElementType,
		TextType,
		CDataType,
		CommentType,
		ProcInstType,
		HeadingType,
		ContentType,
	}
}

// IsScalar reports whether t is one of the value kinds: null, bool,
// number or string.
func (t Type) IsScalar() bool {
	switch t {
	case NullType, BoolType, NumberType, StringType:
		return true
	}
	return false
}

// IsContainer reports whether nodes of type t may hold children.
func (t Type) IsContainer() bool {
	switch t {
	case ObjectType, ArrayType, DocumentType, ElementType, HeadingType:
		return true
	}
	return false
}

// HasText reports whether the node payload of t is raw text held in the
// String field.
func (t Type) HasText() bool {
	switch t {
	case TextType, CDataType, CommentType, ProcInstType, ContentType:
		return true
	}
	return false
}

// Named reports whether children of a container of type t are addressed
// by name in paths.
func (t Type) Named() bool {
	switch t {
	case ObjectType, DocumentType, ElementType, HeadingType:
		return true
	}
	return false
}

func (t Type) IsLeaf() bool {
	return !t.IsContainer()
}
