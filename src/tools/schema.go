package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	schemacheck "github.com/santhosh-tekuri/jsonschema/v6"
)

// ReflectSchema derives a plain-map JSON schema from a parameter struct.
// The schema is inlined (no $ref indirection) so it can be embedded
// directly in a tool spec and rendered into prompts.
func ReflectSchema(params any) map[string]any {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	raw, err := json.Marshal(r.Reflect(params))
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	return schema
}

// Validator answers whether a parameter map conforms to a compiled schema.
type Validator struct {
	schema *schemacheck.Schema
}

// NewValidator compiles the schema map once for repeated validation.
func NewValidator(schema map[string]any) (*Validator, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := schemacheck.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := schemacheck.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Valid reports whether params conforms to the schema. The map is
// round-tripped through JSON so numeric and nested types line up with
// what the validator expects.
func (v *Validator) Valid(params map[string]any) bool {
	if v == nil || v.schema == nil {
		return params != nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return false
	}
	doc, err := schemacheck.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return false
	}
	return v.schema.Validate(doc) == nil
}

// mustValidator compiles a schema produced by our own reflection; a
// failure there is a programming error, not an input error.
func mustValidator(schema map[string]any) *Validator {
	v, err := NewValidator(schema)
	if err != nil {
		panic(fmt.Sprintf("tools: compile built-in schema: %v", err))
	}
	return v
}

// DecodeParams round-trips a parameter map into a typed struct.
func DecodeParams(params map[string]any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}
