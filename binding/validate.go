package binding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/StrayDragon/flask-x-openapi-schema-sub001/openapi"
)

// compiledSchemas caches one compiled validator per body struct type.
// Validation keywords carry no localized text, so the cache is not keyed
// by language.
var compiledSchemas sync.Map // reflect.Type -> compiledEntry

type compiledEntry struct {
	schema *jsonschema.Schema
	err    error
}

// validatorFor compiles a JSON Schema validator for a body struct type.
func validatorFor(t reflect.Type) (*jsonschema.Schema, error) {
	if entry, ok := compiledSchemas.Load(t); ok {
		e := entry.(compiledEntry)
		return e.schema, e.err
	}

	schema, err := compileSchema(t)
	entry, _ := compiledSchemas.LoadOrStore(t, compiledEntry{schema: schema, err: err})
	e := entry.(compiledEntry)
	return e.schema, e.err
}

func compileSchema(t reflect.Type) (*jsonschema.Schema, error) {
	doc := validationSchema(openapi.SchemaOf(reflect.New(t).Elem().Interface()))
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema for %s: %w", t, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft4
	if err := compiler.AddResource("schema.json", bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("load schema for %s: %w", t, err)
	}

	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", t, err)
	}
	return schema, nil
}

// validateBody checks a decoded JSON value against the schema compiled for
// the body struct type.
func validateBody(t reflect.Type, value any) error {
	schema, err := validatorFor(t)
	if err != nil {
		return err
	}

	if err := schema.Validate(value); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{cause: verr}
		}
		return err
	}
	return nil
}

// validationSchema lowers a document schema to JSON Schema Draft 4 for
// validation. The nullable keyword becomes a type array, and annotation
// keywords the draft does not know are dropped.
func validationSchema(s *openapi.Schema) map[string]any {
	if s == nil {
		return map[string]any{}
	}

	out := make(map[string]any)

	if s.Type != "" {
		if s.Nullable {
			out["type"] = []string{s.Type, "null"}
		} else {
			out["type"] = s.Type
		}
	}
	if s.Format != "" {
		out["format"] = s.Format
	}

	if s.MultipleOf != nil {
		out["multipleOf"] = *s.MultipleOf
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
		if s.ExclusiveMaximum {
			out["exclusiveMaximum"] = true
		}
	}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
		if s.ExclusiveMinimum {
			out["exclusiveMinimum"] = true
		}
	}

	if s.MaxLength != nil {
		out["maxLength"] = *s.MaxLength
	}
	if s.MinLength != nil {
		out["minLength"] = *s.MinLength
	}
	if s.Pattern != "" {
		out["pattern"] = s.Pattern
	}

	if s.Items != nil {
		out["items"] = validationSchema(s.Items)
	}
	if s.MaxItems != nil {
		out["maxItems"] = *s.MaxItems
	}
	if s.MinItems != nil {
		out["minItems"] = *s.MinItems
	}
	if s.UniqueItems {
		out["uniqueItems"] = true
	}

	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = validationSchema(prop)
		}
		out["properties"] = props
	}
	if s.AdditionalProperties != nil {
		out["additionalProperties"] = validationSchema(s.AdditionalProperties)
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.MaxProperties != nil {
		out["maxProperties"] = *s.MaxProperties
	}
	if s.MinProperties != nil {
		out["minProperties"] = *s.MinProperties
	}

	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}

	if len(s.AllOf) > 0 {
		out["allOf"] = validationSchemas(s.AllOf)
	}
	if len(s.OneOf) > 0 {
		out["oneOf"] = validationSchemas(s.OneOf)
	}
	if len(s.AnyOf) > 0 {
		out["anyOf"] = validationSchemas(s.AnyOf)
	}
	if s.Not != nil {
		out["not"] = validationSchema(s.Not)
	}

	return out
}

func validationSchemas(schemas []*openapi.Schema) []any {
	out := make([]any, len(schemas))
	for i, s := range schemas {
		out[i] = validationSchema(s)
	}
	return out
}
