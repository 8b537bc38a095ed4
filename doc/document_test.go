package doc

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	events "github.com/docker/go-events"
	"github.com/google/go-cmp/cmp"

	"github.com/signadot/tony-format/treedoc/edit"
	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/format"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"
)

type watcher struct {
	events []edit.Event
	errs   []error
}

func newDoc(t *testing.T, opts ...Option) (*Document, *watcher) {
	t.Helper()
	w := &watcher{}
	opts = append(opts,
		OnChange(func(ev edit.Event) { w.events = append(w.events, ev) }),
		OnError(func(err error) { w.errs = append(w.errs, err) }))
	d, err := New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return d, w
}

func (w *watcher) types() []edit.EventType {
	var res []edit.EventType
	for _, ev := range w.events {
		res = append(res, ev.Type)
	}
	return res
}

func TestJSONEditScenario(t *testing.T) {
	d, w := newDoc(t)
	if err := d.Load([]byte(`{"user":{"name":"John","age":30}}`), ""); err != nil {
		t.Fatal(err)
	}
	if d.Handler().Format() != format.JSONFormat {
		t.Fatalf("detected %s", d.Handler().Format())
	}
	if err := d.Edit("user.name", "Jane"); err != nil {
		t.Fatal(err)
	}
	out, err := d.SourceText()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"name": "Jane"`, `"age": 30`} {
		if !strings.Contains(out, want) {
			t.Errorf("%q missing from\n%s", want, out)
		}
	}
	if diff := cmp.Diff([]edit.EventType{edit.EventLoad, edit.EventEdit}, w.types()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestXMLAttributeScenario(t *testing.T) {
	d, _ := newDoc(t)
	if err := d.Load([]byte(`<user id="123" active="true"><name>John</name></user>`), "xml"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetAttr("user", "active", "false"); err != nil {
		t.Fatal(err)
	}
	out, err := d.SourceText()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`active="false"`, `id="123"`} {
		if !strings.Contains(out, want) {
			t.Errorf("%q missing from\n%s", want, out)
		}
	}
}

func TestModeSwitchSafety(t *testing.T) {
	d, w := newDoc(t, WithEncodeOptions(encode.Compact(true)))
	if err := d.Load([]byte(`{"a":1}`), "json"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetMode(Source); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.SourceText(); got != `{"a":1}` {
		t.Errorf("source %q", got)
	}
	if err := d.SetSource(`{invalid json}`); err != nil {
		t.Fatal(err)
	}
	err := d.SetMode(Structural)
	var mse *ModeSwitchError
	if !errors.As(err, &mse) {
		t.Fatalf("got %v", err)
	}
	if mse.From != Source || mse.To != Structural {
		t.Errorf("modes %s %s", mse.From, mse.To)
	}
	var pe *handler.ParseError
	if !errors.As(err, &pe) || pe.Format != format.JSONFormat {
		t.Errorf("no parse error in %v", err)
	}
	if d.Mode() != Source {
		t.Fatalf("mode %s", d.Mode())
	}
	if got, _ := d.SourceText(); got != `{invalid json}` {
		t.Errorf("text lost: %q", got)
	}
	if len(w.errs) != 1 || !errors.As(w.errs[0], &mse) {
		t.Errorf("error callback got %v", w.errs)
	}

	if err := d.SetSource(`{"a":2,"b":[]}`); err != nil {
		t.Fatal(err)
	}
	if err := d.SetMode(Structural); err != nil {
		t.Fatal(err)
	}
	if d.Mode() != Structural {
		t.Fatalf("mode %s", d.Mode())
	}
	if got, _ := d.SourceText(); got != `{"a":2,"b":[]}` {
		t.Errorf("tree not reconciled: %q", got)
	}
	want := []edit.EventType{edit.EventLoad, edit.EventMode, EventSource, EventSource, edit.EventMode}
	if diff := cmp.Diff(want, w.types()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestModeGuards(t *testing.T) {
	d, w := newDoc(t)
	if err := d.Load([]byte("a: 1\nb: [x]\n"), ""); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSource("c: 3\n"); !errors.Is(err, ErrWrongMode) {
		t.Errorf("source edit in structural mode: %v", err)
	}
	if err := d.SetMode(Source); err != nil {
		t.Fatal(err)
	}
	checks := map[string]func() error{
		"edit":     func() error { return d.Edit("a", 2) },
		"add":      func() error { return d.Add("b", "y") },
		"delete":   func() error { _, err := d.Delete("a"); return err },
		"move":     func() error { return d.Move("a", "b", 0) },
		"snapshot": func() error { _, err := d.Snapshot(); return err },
	}
	for name, check := range checks {
		if err := check(); !errors.Is(err, ErrWrongMode) {
			t.Errorf("%s in source mode: %v", name, err)
		}
	}
	if err := d.SetMode(Source); err != nil {
		t.Errorf("same mode: %v", err)
	}
	// one for the source edit above
	if len(w.errs) != len(checks)+1 {
		t.Errorf("%d errors reported", len(w.errs))
	}
}

func TestSourceWinsOverStaleTree(t *testing.T) {
	d, _ := newDoc(t)
	if err := d.Load([]byte("# Title\n\ntext\n"), "markdown"); err != nil {
		t.Fatal(err)
	}
	p, err := d.Begin(context.Background(), "Title", "Renamed")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.SetMode(Source); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSource("# Other\n\nmore\n"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetMode(Structural); err != nil {
		t.Fatal(err)
	}
	if err := d.Commit(p); !errors.Is(err, edit.ErrStale) {
		t.Errorf("pending edit across a source round trip: %v", err)
	}
	if _, err := d.Get("Other"); err != nil {
		t.Error(err)
	}
	if _, err := d.Get("Title"); err == nil {
		t.Error("stale tree kept")
	}
}

func TestReentrantTransition(t *testing.T) {
	var inner error
	var d *Document
	d, _ = newDoc(t, OnChange(func(ev edit.Event) {
		if ev.Type == edit.EventMode {
			inner = d.SetMode(Structural)
		}
	}))
	if err := d.Load([]byte(`[1]`), "json"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetMode(Source); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(inner, ErrTransitionPending) {
		t.Errorf("nested transition: %v", inner)
	}
	if d.Mode() != Source {
		t.Errorf("mode %s", d.Mode())
	}
}

func TestLoadFailureKeepsDocument(t *testing.T) {
	d, w := newDoc(t)
	if err := d.Load([]byte(`{"a":1}`), ""); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		text, hint string
		want       error
	}{
		{`{"a":`, "json", handler.ErrParse},
		{`<a><b></a>`, "xml", handler.ErrParse},
		{`x`, "toml", handler.ErrBadFormat},
		{"   ", "", handler.ErrBadFormat},
	}
	for _, tt := range tests {
		if err := d.Load([]byte(tt.text), tt.hint); !errors.Is(err, tt.want) {
			t.Errorf("%q: got %v want %v", tt.text, err, tt.want)
		}
	}
	if got, _ := d.SourceText(); !strings.Contains(got, `"a": 1`) {
		t.Errorf("document changed: %s", got)
	}
	if len(w.errs) != len(tests) {
		t.Errorf("%d errors reported", len(w.errs))
	}
}

func TestBulkThroughDocument(t *testing.T) {
	d, w := newDoc(t)
	if err := d.Load([]byte(`{"l":[]}`), ""); err != nil {
		t.Fatal(err)
	}
	err := d.Bulk(func() error {
		for i := range 5 {
			if err := d.Add("l", i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.events) != 2 || w.events[1].Type != edit.EventBulk || w.events[1].Count != 5 {
		t.Errorf("events %+v", w.events)
	}
}

func TestValidate(t *testing.T) {
	d, _ := newDoc(t)
	res, err := d.Validate([]byte(`<a>`), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid || len(res.Errors) != 1 || res.Errors[0].Format != format.XMLFormat {
		t.Errorf("result %+v", res)
	}
	res, err = d.Validate([]byte("k: v\n"), "yaml")
	if err != nil || !res.Valid {
		t.Errorf("%+v %v", res, err)
	}
	if _, err := d.Validate([]byte("x"), "ini"); !errors.Is(err, handler.ErrBadFormat) {
		t.Errorf("unknown format: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	d, w := newDoc(t)
	if err := d.Load([]byte(`{}`), ""); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if err := d.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.Edit("a", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("edit after close: %v", err)
	}
	if _, err := d.SourceText(); !errors.Is(err, ErrClosed) {
		t.Errorf("source after close: %v", err)
	}
	if len(w.events) != 1 {
		t.Errorf("events after close: %v", w.types())
	}
}

func TestCallbackPanicsAreContained(t *testing.T) {
	d, err := New(
		OnChange(func(edit.Event) { panic("listener") }),
		OnError(func(error) { panic("callback") }))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Load([]byte(`{"a":1}`), ""); err != nil {
		t.Fatal(err)
	}
	if err := d.Edit("nope", 1); !errors.Is(err, edit.ErrNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestSinkListener(t *testing.T) {
	ch := events.NewChannel(4)
	defer ch.Close()
	d, _ := newDoc(t, OnChange(SinkListener(ch, nil)))
	if err := d.Load([]byte(`{"a":1}`), ""); err != nil {
		t.Fatal(err)
	}
	if err := d.Edit("a", 2); err != nil {
		t.Fatal(err)
	}
	var got []edit.EventType
	for range 2 {
		select {
		case ev := <-ch.C:
			got = append(got, ev.(edit.Event).Type)
		case <-time.After(time.Second):
			t.Fatal("no event")
		}
	}
	if diff := cmp.Diff([]edit.EventType{edit.EventLoad, edit.EventEdit}, got); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestXMLRootElementSurvives(t *testing.T) {
	d, w := newDoc(t)
	if err := d.Load([]byte(`<a x="1"/>`), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Delete("a"); !errors.Is(err, edit.ErrRequired) {
		t.Errorf("delete root element: %v", err)
	}
	if err := d.Add("", "some text"); !errors.Is(err, edit.ErrKind) {
		t.Errorf("top level text: %v", err)
	}
	if err := d.SetMode(Source); err != nil {
		t.Fatal(err)
	}
	text, err := d.SourceText()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, `<a x="1"/>`) {
		t.Errorf("source %q", text)
	}
	if len(w.errs) != 2 {
		t.Errorf("errors %v", w.errs)
	}
}

func TestMarkdownAddSurvivesModeSwitch(t *testing.T) {
	d, _ := newDoc(t)
	if err := d.Load([]byte("# A\n\nintro\n\n## B\n\nb text\n"), ""); err != nil {
		t.Fatal(err)
	}
	if err := d.Add("A", "appended"); err != nil {
		t.Fatal(err)
	}
	before, err := d.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if got := before.Values[0].Values[1]; got.String != "appended" {
		t.Errorf("added at %d", got.ParentIndex)
	}
	if err := d.SetMode(Source); err != nil {
		t.Fatal(err)
	}
	if err := d.SetMode(Structural); err != nil {
		t.Fatal(err)
	}
	after, err := d.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(before, after) {
		text, _ := d.SourceText()
		t.Errorf("tree changed across a mode switch:\n%s", text)
	}
}

func TestValidateAfterClose(t *testing.T) {
	d, _ := newDoc(t)
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Validate([]byte(`{}`), ""); !errors.Is(err, ErrClosed) {
		t.Errorf("validate after close: %v", err)
	}
}

func TestBulkReportsOnce(t *testing.T) {
	d, w := newDoc(t)
	if err := d.Load([]byte(`{"a":1}`), ""); err != nil {
		t.Fatal(err)
	}
	stop := errors.New("stop")
	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"fn error", func() error { return stop }, stop},
		{"inner op", func() error { return d.Move("a", "nope", 0) }, edit.ErrNotFound},
	}
	for _, tt := range tests {
		w.errs = nil
		if err := d.Bulk(tt.fn); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v want %v", tt.name, err, tt.want)
		}
		if len(w.errs) != 1 {
			t.Errorf("%s: reported %d times", tt.name, len(w.errs))
		}
	}
	if _, err := d.Get("a"); err != nil {
		t.Errorf("rolled back: %v", err)
	}
}
