package jsonfmt

import (
	"errors"
	"testing"

	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/ir"

	jsonpatch "github.com/evanphx/json-patch"
)

var corpus = []string{
	`null`,
	`true`,
	`-12.5e3`,
	`"héllo \"there\"\n\t\u0001"`,
	`{}`,
	`[]`,
	`{"a":1,"b":[1,2,{"c":null}],"d":{"e":"f"}}`,
	`[[[]],{},[{"x":[true,false]}]]`,
	`{"z":1,"a":2,"m":3}`,
	`{"big":123456789012345678901234567890,"f":1.50,"neg":-0}`,
	`{"": "empty key", "a.b": "dotted"}`,
}

func TestRoundTrip(t *testing.T) {
	h := New()
	for _, in := range corpus {
		t.Run(in, func(t *testing.T) {
			n1, err := h.Parse([]byte(in))
			if err != nil {
				t.Fatal(err)
			}
			if err := n1.Check(); err != nil {
				t.Fatal(err)
			}
			for _, opts := range [][]encode.EncodeOption{
				nil,
				{encode.Compact(true)},
				{encode.Indent("    ")},
			} {
				out, err := handler.Serialize(h, n1, opts...)
				if err != nil {
					t.Fatal(err)
				}
				container := in[0] == '{' || in[0] == '['
				if container && !jsonpatch.Equal([]byte(in), []byte(out)) {
					t.Errorf("not equal:\n%s\n%s", in, out)
				}
				n2, err := h.Parse([]byte(out))
				if err != nil {
					t.Fatalf("reparse %q: %v", out, err)
				}
				if !ir.Equal(n1, n2) {
					t.Errorf("tree changed through %q", out)
				}
			}
		})
	}
}

func TestKeyOrderAndNumbers(t *testing.T) {
	h := New()
	in := `{"z":1,"a":1.50,"m":{"y":2,"b":3}}`
	n, err := h.Parse([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	out, err := handler.Serialize(h, n, encode.Compact(true))
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("got %s want %s", out, in)
	}
	a := ir.Get(n, "a")
	if a.Type != ir.NumberType || a.Float64 == nil || *a.Float64 != 1.5 {
		t.Errorf("a is %s %q", a.Type, a.Scalar())
	}
}

func TestIndentedOutput(t *testing.T) {
	h := New()
	n, err := h.Parse([]byte(`{"user":{"name":"John","tags":["a"]},"e":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	out, err := handler.Serialize(h, n)
	if err != nil {
		t.Fatal(err)
	}
	want := `{
  "user": {
    "name": "John",
    "tags": [
      "a"
    ]
  },
  "e": []
}
`
	if out != want {
		t.Errorf("got\n%s\nwant\n%s", out, want)
	}
}

func TestDuplicateKeysLastWins(t *testing.T) {
	n, err := New().Parse([]byte(`{"a":1,"b":2,"a":3}`))
	if err != nil {
		t.Fatal(err)
	}
	out, _ := handler.Serialize(New(), n, encode.Compact(true))
	if out != `{"a":3,"b":2}` {
		t.Errorf("got %s", out)
	}
}

func TestNullIsAValue(t *testing.T) {
	n, err := New().Parse([]byte(`{"a":null}`))
	if err != nil {
		t.Fatal(err)
	}
	a := ir.Get(n, "a")
	if a == nil || a.Type != ir.NullType {
		t.Fatalf("expected null node, got %v", a)
	}
	if ir.Get(n, "b") != nil {
		t.Error("absent key resolved")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		kind handler.ErrorKind
	}{
		{``, handler.EmptyDocument},
		{"  \n", handler.EmptyDocument},
		{`{invalid json}`, handler.SyntaxError},
		{`{"a":1,}`, handler.SyntaxError},
		{`[1,2`, handler.UnexpectedEnd},
		{`{"a":`, handler.UnexpectedEnd},
		{`{} x`, handler.SyntaxError},
		{`{}{}`, handler.SyntaxError},
		{`"unterminated`, handler.UnexpectedEnd},
	}
	h := New()
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := h.Parse([]byte(tt.in))
			if n != nil {
				t.Errorf("partial tree returned")
			}
			var pe *handler.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("kind %s want %s (%v)", pe.Kind, tt.kind, err)
			}
			if !errors.Is(err, handler.ErrParse) {
				t.Errorf("not ErrParse")
			}
			res := h.Validate([]byte(tt.in))
			if res.Valid || len(res.Errors) != 1 {
				t.Errorf("validate: %+v", res)
			}
		})
	}
	if res := h.Validate([]byte(`{"a":1}`)); !res.Valid || res.Err() != nil {
		t.Errorf("validate ok: %+v", res)
	}
}

func TestDetect(t *testing.T) {
	h := New()
	tests := []struct {
		in   string
		want bool
	}{
		{`{"a":1}`, true},
		{"  \n{\n  \"a\": 1\n}", true},
		{`[1, 2]`, true},
		{`"str"`, true},
		{`{a: 1}`, false},
		{`[link](http://x)`, false},
		{`a: 1`, false},
		{`<a/>`, false},
		{`# Title`, false},
		{``, false},
		{"   ", false},
	}
	for _, tt := range tests {
		if got := h.Detect([]byte(tt.in)); got != tt.want {
			t.Errorf("Detect(%q) = %v", tt.in, got)
		}
	}
}

func TestEncodeMarkupFails(t *testing.T) {
	_, err := handler.Serialize(New(), ir.NewElement("a", nil))
	if !errors.Is(err, handler.ErrEncode) {
		t.Errorf("expected ErrEncode, got %v", err)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", `""`},
		{"a\"b\\c\n\x01", `"a\"b\\c\n\u0001"`},
		{"caf\u00e9", "\"caf\u00e9\""},
		{"x\u2028y\u2029", `"x\u2028y\u2029"`},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %s want %s", tt.in, got, tt.want)
		}
	}
}

func TestNumberFallback(t *testing.T) {
	n := ir.FromInt(7)
	n.Number = "0x7"
	s, err := Number(n)
	if err != nil || s != "7" {
		t.Errorf("got %q %v", s, err)
	}
}
