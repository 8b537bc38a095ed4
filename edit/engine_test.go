package edit

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/handler/jsonfmt"
	"github.com/signadot/tony-format/treedoc/handler/mdfmt"
	"github.com/signadot/tony-format/treedoc/handler/xmlfmt"
	"github.com/signadot/tony-format/treedoc/ir"
)

type recorder struct {
	events []Event
}

func (r *recorder) listen(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) types() []EventType {
	var res []EventType
	for _, ev := range r.events {
		res = append(res, ev.Type)
	}
	return res
}

func load(t *testing.T, h handler.Handler, src string, opts ...Option) (*Engine, *recorder) {
	t.Helper()
	n, err := h.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	e, err := New(n, append(opts, WithListener(rec.listen))...)
	if err != nil {
		t.Fatal(err)
	}
	return e, rec
}

func loadJSON(t *testing.T, src string, opts ...Option) (*Engine, *recorder) {
	t.Helper()
	return load(t, jsonfmt.New(), src, opts...)
}

func compactJSON(t *testing.T, e *Engine) string {
	t.Helper()
	checkTree(t, e)
	out, err := handler.Serialize(jsonfmt.New(), e.Root(), encode.Compact(true))
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func checkTree(t *testing.T, e *Engine) {
	t.Helper()
	if e.Root() == nil {
		return
	}
	if err := e.Root().Check(); err != nil {
		t.Fatal(err)
	}
}

func TestEditScalar(t *testing.T) {
	e, rec := loadJSON(t, `{"user":{"name":"John","age":30}}`)
	if err := e.Edit("user.name", "Jane"); err != nil {
		t.Fatal(err)
	}
	out, err := handler.Serialize(jsonfmt.New(), e.Root())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"name": "Jane"`, `"age": 30`} {
		if !strings.Contains(out, want) {
			t.Errorf("%q missing from\n%s", want, out)
		}
	}
	want := []Event{{Type: EventEdit, Path: "user.name", Old: "John", New: "Jane"}}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	checkTree(t, e)
}

func TestEditReplacesValue(t *testing.T) {
	e, _ := loadJSON(t, `{"a":1,"b":[1,2],"c":"x"}`)
	edits := []struct {
		path  string
		value any
	}{
		{"a", map[string]any{"k": true}},
		{"b.1", nil},
		{"c", 2.5},
	}
	for _, ed := range edits {
		if err := e.Edit(ed.path, ed.value); err != nil {
			t.Fatalf("%s: %v", ed.path, err)
		}
	}
	if got, want := compactJSON(t, e), `{"a":{"k":true},"b":[1,null],"c":2.5}`; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if err := e.Edit("", []any{1}); err != nil {
		t.Fatal(err)
	}
	if got, want := compactJSON(t, e), `[1]`; got != want {
		t.Errorf("got %s want %s", got, want)
	}
}

func TestEditErrors(t *testing.T) {
	tests := []struct {
		path  string
		value any
		want  error
	}{
		{"nope", 1, ErrNotFound},
		{"a.b", 1, ErrNotFound},
		{"a[", 1, ir.ErrPath},
		{"*", 1, ir.ErrPath},
		{"a", func() {}, ErrKind},
		{"a.@x", "v", ErrKind},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			e, rec := loadJSON(t, `{"a":1}`)
			err := e.Edit(tt.path, tt.value)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v want %v", err, tt.want)
			}
			var oe *OperationError
			if !errors.As(err, &oe) || oe.Op == "" {
				t.Errorf("%v is not an operation error", err)
			}
			if got := compactJSON(t, e); got != `{"a":1}` {
				t.Errorf("tree changed: %s", got)
			}
			if len(rec.events) != 0 {
				t.Errorf("events: %v", rec.types())
			}
		})
	}
}

func TestAdd(t *testing.T) {
	e, rec := loadJSON(t, `{"items":[1],"obj":{"a":1},"s":"x"}`)
	if err := e.Add("items", map[string]any{"b": 2}); err != nil {
		t.Fatal(err)
	}
	if err := e.Insert("items", 0, "first"); err != nil {
		t.Fatal(err)
	}
	if err := e.AddKey("obj", "z", []any{}); err != nil {
		t.Fatal(err)
	}
	want := `{"items":["first",1,{"b":2}],"obj":{"a":1,"z":[]},"s":"x"}`
	if got := compactJSON(t, e); got != want {
		t.Errorf("got %s want %s", got, want)
	}
	paths := []string{}
	for _, ev := range rec.events {
		paths = append(paths, ev.Path)
	}
	if diff := cmp.Diff([]string{"items.1", "items.0", "obj.z"}, paths); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}

	errTests := []struct {
		name string
		do   func() error
		want error
	}{
		{"scalar", func() error { return e.Add("s", 1) }, ErrNotContainer},
		{"missing", func() error { return e.Add("nope", 1) }, ErrNotFound},
		{"object without key", func() error { return e.Add("obj", 1) }, ErrKind},
		{"array with key", func() error { return e.AddKey("items", "k", 1) }, ErrKind},
		{"key exists", func() error { return e.AddKey("obj", "a", 2) }, ErrKeyExists},
		{"index", func() error { return e.Insert("items", 9, 1) }, ErrIndex},
		{"negative index", func() error { return e.Insert("items", -2, 1) }, ErrIndex},
		{"attribute", func() error { return e.Add("items.@x", 1) }, ErrNotContainer},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.do(); !errors.Is(err, tt.want) {
				t.Errorf("got %v want %v", err, tt.want)
			}
			if got := compactJSON(t, e); got != want {
				t.Errorf("tree changed: %s", got)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	e, rec := loadJSON(t, `{"a":[1,2,3],"b":{"c":true}}`)
	ok, err := e.Delete("a.0")
	if err != nil || !ok {
		t.Fatalf("delete a.0: %v %v", ok, err)
	}
	if got, want := compactJSON(t, e), `{"a":[2,3],"b":{"c":true}}`; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got := ir.Get(e.Root(), "a").Values[1].KPath(); got != "a.1" {
		t.Errorf("shifted element at %q", got)
	}
	if _, err := e.Delete(""); !errors.Is(err, ErrKind) {
		t.Errorf("deleting the root: %v", err)
	}
	want := []Event{{Type: EventDelete, Path: "a.0", Old: int64(1)}}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestDeleteMissingIsIdempotent(t *testing.T) {
	src := `{"a":[1],"b":{"c":"d"}}`
	e, rec := loadJSON(t, src)
	before, err := handler.Serialize(jsonfmt.New(), e.Root())
	if err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{"x", "a.5", "b.c.d", "b.x.y", "a.0.z", "b.@id"} {
		ok, err := e.Delete(path)
		if ok || err != nil {
			t.Errorf("%s: %v %v", path, ok, err)
		}
	}
	after, err := handler.Serialize(jsonfmt.New(), e.Root())
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Errorf("tree changed:\n%s", after)
	}
	if len(rec.events) != 0 {
		t.Errorf("events: %v", rec.types())
	}
	if _, err := e.Delete("a["); !errors.Is(err, ir.ErrPath) {
		t.Errorf("malformed path: %v", err)
	}
}

func TestMoveCycleRejected(t *testing.T) {
	src := `{"parent":{"child":{"grandchild":{}}}}`
	e, rec := loadJSON(t, src)
	for _, to := range []string{"parent.child", "parent.child.grandchild", "parent"} {
		err := e.Move("parent", to, 0)
		if !errors.Is(err, ErrCycle) {
			t.Errorf("move to %s: %v", to, err)
		}
		var oe *OperationError
		if errors.As(err, &oe) && (oe.Op != "move" || oe.Path != "parent" || oe.To != to) {
			t.Errorf("error context %+v", oe)
		}
	}
	if got := compactJSON(t, e); got != src {
		t.Errorf("tree changed: %s", got)
	}
	if len(rec.events) != 0 {
		t.Errorf("events: %v", rec.types())
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		from, to string
		index    int
		want     string
		path     string
	}{
		{
			name: "within array",
			src:  `[1,2,3]`, from: "0", to: "", index: -1,
			want: `[2,3,1]`, path: "2",
		},
		{
			name: "within array to front",
			src:  `[1,2,3]`, from: "2", to: "", index: 0,
			want: `[3,1,2]`, path: "0",
		},
		{
			name: "member to other object",
			src:  `{"a":{"x":1},"b":{"y":2}}`, from: "a.x", to: "b", index: 0,
			want: `{"a":{},"b":{"x":1,"y":2}}`, path: "b.x",
		},
		{
			name: "member into array",
			src:  `{"a":{"x":1},"l":[]}`, from: "a.x", to: "l", index: -1,
			want: `{"a":{},"l":[1]}`, path: "l.0",
		},
		{
			name: "member reorder",
			src:  `{"a":1,"b":2,"c":3}`, from: "c", to: "", index: 0,
			want: `{"c":3,"a":1,"b":2}`, path: "c",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := loadJSON(t, tt.src)
			if err := e.Move(tt.from, tt.to, tt.index); err != nil {
				t.Fatal(err)
			}
			if got := compactJSON(t, e); got != tt.want {
				t.Errorf("got %s want %s", got, tt.want)
			}
			if len(rec.events) != 1 {
				t.Fatalf("events: %v", rec.types())
			}
			ev := rec.events[0]
			if ev.Type != EventMove || ev.From != tt.from || ev.Path != tt.path {
				t.Errorf("event %+v", ev)
			}
		})
	}
}

func TestMoveRejected(t *testing.T) {
	src := `{"a":{"x":1},"b":{"x":2},"l":[{"k":1}],"s":"v"}`
	tests := []struct {
		name     string
		from, to string
		index    int
		want     error
	}{
		{"missing source", "nope", "b", 0, ErrNotFound},
		{"missing destination", "a.x", "nope", 0, ErrNotFound},
		{"scalar destination", "a.x", "s", 0, ErrNotContainer},
		{"key taken", "a.x", "b", 0, ErrKeyExists},
		{"element into object", "l.0", "a", 0, ErrKind},
		{"index too large", "a", "l", 3, ErrIndex},
		{"negative index", "a", "l", -4, ErrIndex},
		{"root", "", "l", 0, ErrKind},
		{"attribute", "a.@x", "l", 0, ErrKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := loadJSON(t, src)
			if err := e.Move(tt.from, tt.to, tt.index); !errors.Is(err, tt.want) {
				t.Errorf("got %v want %v", err, tt.want)
			}
			if got := compactJSON(t, e); got != src {
				t.Errorf("tree changed: %s", got)
			}
			if len(rec.events) != 0 {
				t.Errorf("events: %v", rec.types())
			}
		})
	}
}

func TestRequired(t *testing.T) {
	src := `{"user":{"id":7,"tags":["a","b"]},"other":{}}`
	e, _ := loadJSON(t, src, Required("user.id", "user.tags.*"))
	checks := []struct {
		name string
		do   func() error
	}{
		{"delete", func() error { _, err := e.Delete("user.id"); return err }},
		{"delete ancestor", func() error { _, err := e.Delete("user"); return err }},
		{"delete by pattern", func() error { _, err := e.Delete("user.tags.1"); return err }},
		{"move", func() error { return e.Move("user.id", "other", 0) }},
		{"move ancestor", func() error { return e.Move("user", "other", 0) }},
	}
	for _, c := range checks {
		if err := c.do(); !errors.Is(err, ErrRequired) {
			t.Errorf("%s: %v", c.name, err)
		}
	}
	if got := compactJSON(t, e); got != src {
		t.Errorf("tree changed: %s", got)
	}
	if err := e.Edit("user.id", 8); err != nil {
		t.Errorf("required nodes stay editable: %v", err)
	}
	if _, err := New(nil, Required("a[")); !errors.Is(err, ir.ErrPath) {
		t.Errorf("bad pattern: %v", err)
	}
}

func TestReadOnly(t *testing.T) {
	src := `{"a":[1],"b":{}}`
	e, rec := loadJSON(t, src, Editable(false))
	ops := map[string]func() error{
		"edit":   func() error { return e.Edit("a.0", 2) },
		"add":    func() error { return e.Add("a", 2) },
		"addkey": func() error { return e.AddKey("b", "k", 2) },
		"delete": func() error { _, err := e.Delete("a.0"); return err },
		"move":   func() error { return e.Move("a", "b", 0) },
		"patch":  func() error { return e.ApplyPatch([]byte(`[{"op":"remove","path":"/a"}]`)) },
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, ErrReadOnly) {
			t.Errorf("%s: %v", name, err)
		}
	}
	if got := compactJSON(t, e); got != src {
		t.Errorf("tree changed: %s", got)
	}
	if len(rec.events) != 0 {
		t.Errorf("events: %v", rec.types())
	}
	e.SetEditable(true)
	if err := e.Edit("a.0", 2); err != nil {
		t.Error(err)
	}
}

func TestListenerPanicIsContained(t *testing.T) {
	e, rec := loadJSON(t, `{"a":1}`)
	e.AddListener(func(Event) { panic("boom") })
	e.AddListener(rec.listen)
	if err := e.Edit("a", 2); err != nil {
		t.Fatal(err)
	}
	if len(rec.events) != 2 {
		t.Errorf("events: %v", rec.types())
	}
}

func TestXMLAttributes(t *testing.T) {
	e, rec := load(t, xmlfmt.New(), `<user id="123" active="true"><name>John</name></user>`)
	if err := e.SetAttr("user", "active", "false"); err != nil {
		t.Fatal(err)
	}
	if err := e.Edit("user.@role", "admin"); err != nil {
		t.Fatal(err)
	}
	if err := e.Edit("user.name", "Jane"); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e)
	out, err := handler.Serialize(xmlfmt.New(), e.Root(), encode.Compact(true))
	if err != nil {
		t.Fatal(err)
	}
	want := `<user id="123" active="false" role="admin"><name>Jane</name></user>`
	if out != want {
		t.Errorf("got %s want %s", out, want)
	}
	ok, err := e.Delete("user.@id")
	if err != nil || !ok {
		t.Fatalf("delete attribute: %v %v", ok, err)
	}
	if _, has := ir.Get(e.Root(), "user").Attr("id"); has {
		t.Error("id kept")
	}
	wantTypes := []EventType{EventAttr, EventAttr, EventEdit, EventDelete}
	if diff := cmp.Diff(wantTypes, rec.types()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if rec.events[0].Old != "true" || rec.events[1].Old != nil {
		t.Errorf("old values %v %v", rec.events[0].Old, rec.events[1].Old)
	}

	errTests := []struct {
		path string
		want error
	}{
		{"user.name.@x y", ErrKind},
		{"user.nope.@x", ErrNotFound},
	}
	for _, tt := range errTests {
		if err := e.Edit(tt.path, "v"); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v want %v", tt.path, err, tt.want)
		}
	}
}

func TestXMLStructure(t *testing.T) {
	e, _ := load(t, xmlfmt.New(), `<list><item>a</item><item>b</item><note/></list>`)
	if err := e.AddKey("list", "item", "c"); err != nil {
		t.Fatal(err)
	}
	if err := e.Move("list.note", "list", 0); err != nil {
		t.Fatal(err)
	}
	if err := e.Add("list.item", "!"); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e)
	out, err := handler.Serialize(xmlfmt.New(), e.Root(), encode.Compact(true))
	if err != nil {
		t.Fatal(err)
	}
	want := `<list><note/><item>a!</item><item>b</item><item>c</item></list>`
	if out != want {
		t.Errorf("got %s want %s", out, want)
	}
	if err := e.Edit("list", "text"); !errors.Is(err, ErrKind) {
		t.Errorf("text over child elements: %v", err)
	}
	if err := e.AddKey("", "second", nil); !errors.Is(err, ErrKind) {
		t.Errorf("second root: %v", err)
	}
	if err := e.Add("list", []any{1}); !errors.Is(err, ErrKind) {
		t.Errorf("data under an element: %v", err)
	}
}

func TestMarkdownMoveRelevels(t *testing.T) {
	src := "# A\n\n## B\n\ntext\n\n### C\n\n# D\n"
	e, _ := load(t, mdfmt.New(), src)
	if err := e.Move("A.B", "", -1); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e)
	b, err := e.Root().GetKPath("B")
	if err != nil {
		t.Fatal(err)
	}
	if b.Level != 1 || ir.Get(b, "C").Level != 2 {
		t.Errorf("levels %d %d", b.Level, ir.Get(b, "C").Level)
	}
	if err := e.AddKey("D", "E", "more"); err != nil {
		t.Fatal(err)
	}
	if err := e.Add("D", "para"); err != nil {
		t.Fatal(err)
	}
	out, err := handler.Serialize(mdfmt.New(), e.Root())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"\n# B\n", "\n## C\n", "\n## E\n\nmore\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("%q missing from\n%s", want, out)
		}
	}
	if err := e.Edit("D", "two\nlines"); !errors.Is(err, ErrKind) {
		t.Errorf("multi line heading: %v", err)
	}
	if err := e.Edit("D", "Renamed"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Root().GetKPath("Renamed"); err != nil {
		t.Error(err)
	}
}

func TestXMLRootElementRequired(t *testing.T) {
	e, rec := load(t, xmlfmt.New(), `<!--c--><a x="1"/>`)
	if ok, err := e.Delete("a"); ok || !errors.Is(err, ErrRequired) {
		t.Fatalf("delete root element: %v %v", ok, err)
	}
	if ir.Get(e.Root(), "a") == nil {
		t.Fatal("root element removed")
	}
	if err := e.Add("", "some text"); !errors.Is(err, ErrKind) {
		t.Errorf("text at the top level: %v", err)
	}
	if ok, err := e.Delete("[0]"); !ok || err != nil {
		t.Fatalf("delete comment: %v %v", ok, err)
	}
	if ok, err := e.Delete("a.@x"); !ok || err != nil {
		t.Fatalf("delete attribute: %v %v", ok, err)
	}
	checkTree(t, e)
	out, err := handler.Serialize(xmlfmt.New(), e.Root(), encode.Compact(true))
	if err != nil {
		t.Fatal(err)
	}
	if out != `<a/>` {
		t.Errorf("got %s", out)
	}
	wantTypes := []EventType{EventDelete, EventDelete}
	if diff := cmp.Diff(wantTypes, rec.types()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestMarkdownAddBeforeSubHeadings(t *testing.T) {
	tests := []struct {
		src  string
		path string
		at   int
	}{
		{"# A\n\nintro\n\n## B\n\nb text\n", "A", 1},
		{"# A\n\n## B\n", "A", 0},
		{"# A\n\nintro\n", "A", 1},
		{"intro\n\n# A\n", "", 1},
	}
	for _, tt := range tests {
		e, _ := load(t, mdfmt.New(), tt.src)
		if err := e.Add(tt.path, "appended"); err != nil {
			t.Fatalf("%q: %v", tt.src, err)
		}
		checkTree(t, e)
		parent, err := e.Root().GetKPath(tt.path)
		if err != nil {
			t.Fatal(err)
		}
		got := parent.Values[tt.at]
		if got.Type != ir.ContentType || got.String != "appended" {
			t.Errorf("%q: child %d is %s %q", tt.src, tt.at, got.Type, got.String)
		}
		out, err := handler.Serialize(mdfmt.New(), e.Root())
		if err != nil {
			t.Fatal(err)
		}
		again, err := mdfmt.New().Parse([]byte(out))
		if err != nil {
			t.Fatal(err)
		}
		if !ir.Equal(e.Root(), again) {
			t.Errorf("%q: reparse of\n%s\ndiffers", tt.src, out)
		}
	}
}
