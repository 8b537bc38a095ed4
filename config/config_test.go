package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/signadot/tony-format/treedoc/doc"
	"github.com/signadot/tony-format/treedoc/edit"
)

const sample = `
format = "json"
indent = "    "
required = ["user.id"]

[[validator]]
name = "age"
path = "user.age"
rule = "value >= 0 && value < 150"

[[validator]]
name = "user"
path = "user"
schema = "user.schema.json"
`

const userSchema = `{"type": "object", "required": ["id"]}`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "user.schema.json"), []byte(userSchema), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "treedoc.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		Format:   "json",
		Indent:   "    ",
		Required: []string{"user.id"},
		Validators: []Validator{
			{Name: "age", Path: "user.age", Rule: "value >= 0 && value < 150"},
			{Name: "user", Path: "user", Schema: "user.schema.json"},
		},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestDocOptions(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	opts, err := cfg.DocOptions()
	if err != nil {
		t.Fatal(err)
	}
	d, err := doc.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Load([]byte(`{"user":{"id":1,"age":30}}`), cfg.Format); err != nil {
		t.Fatal(err)
	}
	var ve *edit.ValidationError
	if err := d.Edit("user.age", 200); !errors.As(err, &ve) || ve.Validator != "age" {
		t.Errorf("rule: %v", err)
	}
	if err := d.Edit("user", map[string]any{"age": 1}); !errors.As(err, &ve) || ve.Validator != "user" {
		t.Errorf("schema: %v", err)
	}
	if _, err := d.Delete("user.id"); !errors.Is(err, edit.ErrRequired) {
		t.Errorf("required: %v", err)
	}
	if err := d.Edit("user.age", 31); err != nil {
		t.Fatal(err)
	}
	out, err := d.SourceText()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "\n        \"age\": 31") {
		t.Errorf("indent not applied:\n%s", out)
	}
}

func TestReadOnly(t *testing.T) {
	cfg, err := Parse("editable = false\ncompact = true\n")
	if err != nil {
		t.Fatal(err)
	}
	opts, err := cfg.DocOptions()
	if err != nil {
		t.Fatal(err)
	}
	d, err := doc.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Load([]byte(`{"a": 1}`), ""); err != nil {
		t.Fatal(err)
	}
	if err := d.Edit("a", 2); !errors.Is(err, edit.ErrReadOnly) {
		t.Errorf("got %v", err)
	}
	if out, _ := d.SourceText(); out != `{"a":1}` {
		t.Errorf("compact output %q", out)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, text string
	}{
		{"syntax", "format = "},
		{"unknown key", "colour = true\n"},
		{"bad format", `format = "ini"`},
		{"validator without path", "[[validator]]\nrule = \"true\"\n"},
		{"validator with both", "[[validator]]\npath = \"a\"\nrule = \"true\"\nschema = \"s.json\"\n"},
		{"validator with neither", "[[validator]]\npath = \"a\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.text); !errors.Is(err, ErrConfig) {
				t.Errorf("got %v", err)
			}
		})
	}
	cfg, err := Parse("[[validator]]\npath = \"a\"\nrule = \"value +\"\n")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.EditOptions(); err == nil {
		t.Error("expected rule compile error")
	}
}

func TestComments(t *testing.T) {
	cfg, err := Parse("comments = false\ncompact = true\n")
	if err != nil {
		t.Fatal(err)
	}
	opts, err := cfg.DocOptions()
	if err != nil {
		t.Fatal(err)
	}
	d, err := doc.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Load([]byte(`<!--c--><a><!--d--><b/></a>`), ""); err != nil {
		t.Fatal(err)
	}
	if out, _ := d.SourceText(); out != `<a><b/></a>` {
		t.Errorf("output %q", out)
	}
}
