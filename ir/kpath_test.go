package ir

import (
	"errors"
	"testing"
)

func markupTree() *Node {
	return NewDocument(
		NewProcInst("xml", `version="1.0"`),
		NewElement("list", []Attr{{Name: "id", Value: "1"}},
			NewText("\n  "),
			NewElement("item", nil, NewText("one")),
			NewElement("item", nil, NewText("two")),
			NewComment(" c "),
			NewElement("0", nil),
		),
	)
}

func headingTree() *Node {
	return NewDocument(
		NewContent("paragraph", "intro"),
		NewHeading(1, "Title",
			NewContent("paragraph", "p"),
			NewHeading(2, "Sub"),
			NewHeading(2, "Sub"),
			NewHeading(2, "a.b"),
		),
	)
}

func TestPathSymmetry(t *testing.T) {
	trees := map[string]*Node{
		"object":  sampleObject(),
		"markup":  markupTree(),
		"heading": headingTree(),
		"keys": FromKeyVals([]KeyVal{
			{Key: "a.b", Val: FromInt(1)},
			{Key: "0", Val: FromSlice([]*Node{FromKeyVals([]KeyVal{{Key: "", Val: Null()}})})},
			{Key: "@x", Val: FromInt(2)},
			{Key: "it's", Val: FromInt(3)},
		}),
	}
	for name, root := range trees {
		t.Run(name, func(t *testing.T) {
			for n := range root.All() {
				p, err := PathOf(root, n)
				if err != nil {
					t.Fatal(err)
				}
				got, err := Resolve(root, p)
				if err != nil {
					t.Fatalf("%q: %v", p, err)
				}
				if got != n {
					t.Errorf("%q resolved to %q", p, got.KPath())
				}
			}
		})
	}
}

func TestKPathStrings(t *testing.T) {
	root := markupTree()
	tests := []struct {
		path string
		want string
	}{
		{"list", "list"},
		{"list.item", "list.item"},
		{"list[3]", "list[3]"},
		{"list.1", "list.item"},
		{"list.2", "list[2]"},
		{"list.0", "list.0"},
	}
	for _, tt := range tests {
		n, err := root.GetKPath(tt.path)
		if err != nil {
			t.Fatalf("%s: %v", tt.path, err)
		}
		if got := n.KPath(); got != tt.want {
			t.Errorf("%s: got %q want %q", tt.path, got, tt.want)
		}
	}
}

func TestResolveNotFound(t *testing.T) {
	root := sampleObject()
	for _, p := range []string{
		"missing",
		"user.missing",
		"tags.3",
		"tags.x",
		"user.name.deeper",
		"user.@id",
	} {
		_, err := Resolve(root, p)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%q: expected ErrNotFound, got %v", p, err)
		}
	}
	if _, err := Resolve(root, "user..x"); !errors.Is(err, ErrPath) {
		t.Errorf("expected ErrPath, got %v", err)
	}
	if _, err := Resolve(root, "tags.*"); !errors.Is(err, ErrPath) {
		t.Errorf("expected ErrPath, got %v", err)
	}
	var empty *Node
	if _, err := empty.GetKPath("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on empty document, got %v", err)
	}
	if _, err := PathOf(root, FromInt(1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign node, got %v", err)
	}
}

func TestPathOfSubtree(t *testing.T) {
	root := sampleObject()
	user := Get(root, "user")
	name := Get(user, "name")
	p, err := PathOf(user, name)
	if err != nil {
		t.Fatal(err)
	}
	if p != "name" {
		t.Errorf("got %q", p)
	}
}
