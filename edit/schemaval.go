package edit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator checks values against a JSON schema.
type SchemaValidator struct {
	name   string
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles a JSON schema document.
func NewSchemaValidator(name string, schema []byte) (*SchemaValidator, error) {
	url := name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &SchemaValidator{name: name, schema: s}, nil
}

// NewSchemaValidatorFile compiles the JSON schema in a file; the
// validator is named after the file.
func NewSchemaValidatorFile(path string) (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	s, err := compiler.Compile(path)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SchemaValidator{name: path, schema: s}, nil
}

func (v *SchemaValidator) Name() string {
	return v.name
}

func (v *SchemaValidator) Validate(_ context.Context, _ string, value any) error {
	d, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	var inst any
	if err := dec.Decode(&inst); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	err = v.schema.Validate(inst)
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return firstCause(ve)
	}
	return err
}

// firstCause reduces a validation error tree to its first leaf.
func firstCause(ve *jsonschema.ValidationError) error {
	for len(ve.Causes) != 0 {
		ve = ve.Causes[0]
	}
	loc := strings.TrimPrefix(ve.InstanceLocation, "/")
	if loc == "" {
		return errors.New(ve.Message)
	}
	return fmt.Errorf("%s: %s", loc, ve.Message)
}
