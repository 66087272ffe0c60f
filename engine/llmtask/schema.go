package llmtask

import (
	"encoding/json"
	"fmt"
)

// FieldType is the set of primitive/container types the hand-rolled schema
// validator understands. The spec's structured-call schemas are flat
// records, occasionally with one level of nested arrays (e.g. debt
// facilities, segment data) — never deeply nested or recursive — so a full
// JSON-Schema implementation is more machinery than the grammar needs; see
// DESIGN.md for the per-dependency justification.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBool    FieldType = "bool"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
)

// Field describes one property of a Schema.
type Field struct {
	Type     FieldType
	Required bool
	// Items describes the element schema when Type == TypeArray.
	Items *Schema
	// Properties describes nested fields when Type == TypeObject.
	Properties map[string]Field
}

// Schema is a flat, shallow description of the JSON object an LLM
// structured call must return.
type Schema struct {
	Properties map[string]Field
}

// Validate checks that raw (already-parsed JSON) satisfies the schema.
// Returns a descriptive error identifying the first violation found.
func (s Schema) Validate(raw any) error {
	obj, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("expected JSON object at top level, got %T", raw)
	}
	return validateObject(obj, s.Properties, "")
}

func validateObject(obj map[string]any, props map[string]Field, path string) error {
	for name, field := range props {
		fpath := name
		if path != "" {
			fpath = path + "." + name
		}
		v, present := obj[name]
		if !present {
			if field.Required {
				return fmt.Errorf("missing required field %q", fpath)
			}
			continue
		}
		if v == nil {
			if field.Required {
				return fmt.Errorf("required field %q is null", fpath)
			}
			continue
		}
		if err := validateField(v, field, fpath); err != nil {
			return err
		}
	}
	return nil
}

func validateField(v any, field Field, path string) error {
	switch field.Type {
	case TypeString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("field %q: expected string, got %T", path, v)
		}
	case TypeNumber:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("field %q: expected number, got %T", path, v)
		}
	case TypeBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("field %q: expected bool, got %T", path, v)
		}
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("field %q: expected object, got %T", path, v)
		}
		return validateObject(obj, field.Properties, path)
	case TypeArray:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("field %q: expected array, got %T", path, v)
		}
		if field.Items != nil {
			for i, elem := range arr {
				if err := validateObjectOrField(elem, *field.Items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("field %q: unknown schema type %q", path, field.Type)
	}
	return nil
}

func validateObjectOrField(v any, s Schema, path string) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("field %q: expected object, got %T", path, v)
	}
	return validateObject(obj, s.Properties, path)
}

// ErrSchemaViolation marks an error as a schema mismatch rather than a JSON
// syntax error, so callers can tell the two failure modes apart: invalid
// JSON retries once, a schema violation fails the stage immediately.
type ErrSchemaViolation struct{ Err error }

func (e *ErrSchemaViolation) Error() string { return e.Err.Error() }
func (e *ErrSchemaViolation) Unwrap() error { return e.Err }

// ParseAndValidate unmarshals data as JSON and validates it against s.
func ParseAndValidate(data []byte, s Schema) (map[string]any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.Validate(raw); err != nil {
		return nil, &ErrSchemaViolation{Err: fmt.Errorf("schema violation: %w", err)}
	}
	obj, _ := raw.(map[string]any)
	return obj, nil
}
