package openapi

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/StrayDragon/flask-x-openapi-schema-sub001/i18n"
)

// Exampler can be implemented by types to provide an example value
// for the generated schema. The returned value is set as the "example"
// field on the component schema.
//
//	func (u User) OpenAPIExample() any {
//	    return User{ID: "550e8400-e29b-41d4-a716-446655440000", Name: "Alice"}
//	}
//
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
type Exampler interface {
	OpenAPIExample() any
}

// Enumer can be implemented by types to declare the closed set of values
// the type admits. The returned values populate the "enum" field of the
// component schema.
type Enumer interface {
	OpenAPIEnum() []any
}

// OneOfer can be implemented by types to declare alternative payload
// shapes. Each returned value is generated as a schema and the results are
// combined under "oneOf".
type OneOfer interface {
	OpenAPIOneOf() []any
}

// SchemaGenerator converts Go types to Schema Objects and collects named
// types into a component schemas map for $ref deduplication. The generator
// carries a language tag so that localized descriptions (declared with the
// descriptionKey tag option) resolve against the message catalog.
//
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
// See: https://spec.openapis.org/oas/v3.0.3#components-object (schemas)
type SchemaGenerator struct {
	lang      language.Tag
	schemas   map[string]*Schema
	visited   map[reflect.Type]bool
	typeNames map[reflect.Type]string // type -> chosen schema name
	nameTypes map[string]reflect.Type // schema name -> type that claimed it

	// inline disables $ref collection: named structs are expanded in
	// place, with active guarding against type cycles.
	inline bool
	active map[reflect.Type]bool
}

// NewSchemaGenerator creates a schema generator resolving localized
// descriptions against the process-wide default language.
func NewSchemaGenerator() *SchemaGenerator {
	return NewSchemaGeneratorLang(i18n.Default())
}

// NewSchemaGeneratorLang creates a schema generator resolving localized
// descriptions against the given language.
func NewSchemaGeneratorLang(lang language.Tag) *SchemaGenerator {
	return &SchemaGenerator{
		lang:      lang,
		schemas:   make(map[string]*Schema),
		visited:   make(map[reflect.Type]bool),
		typeNames: make(map[reflect.Type]string),
		nameTypes: make(map[string]reflect.Type),
	}
}

// newInlineGenerator creates a generator that expands named structs in
// place instead of collecting them as components. Used by the schema cache,
// where a schema must be self-contained.
func newInlineGenerator(lang language.Tag) *SchemaGenerator {
	g := NewSchemaGeneratorLang(lang)
	g.inline = true
	g.active = make(map[reflect.Type]bool)
	return g
}

// Language returns the language the generator resolves localized text with.
func (g *SchemaGenerator) Language() language.Tag {
	return g.lang
}

// Schemas returns the collected component schemas.
//
// See: https://spec.openapis.org/oas/v3.0.3#components-object (schemas)
func (g *SchemaGenerator) Schemas() map[string]*Schema {
	return g.schemas
}

// Generate produces a Schema for the given Go value. Named struct types
// are stored in the generator's component schemas and referenced via $ref.
//
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
func (g *SchemaGenerator) Generate(v any) *Schema {
	if v == nil {
		return nil
	}
	return g.GenerateType(reflect.TypeOf(v))
}

// GenerateType produces a Schema for the given Go type, using $ref for
// named struct types and inline schemas for primitives, slices, maps, and
// anonymous structs.
//
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
func (g *SchemaGenerator) GenerateType(t reflect.Type) *Schema {
	// Unwrap pointer and mark nullable.
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	// Uploaded file fields are always inline binary strings, never
	// components.
	if isFileType(t) {
		return &Schema{Type: "string", Format: "binary", Nullable: nullable}
	}

	// Named struct types → $ref (except special cases mapped to strings).
	if t.Kind() == reflect.Struct && t != timeType && t != uuidType {
		if g.inline {
			if g.active[t] {
				// Recursive type: break the cycle with an open object.
				return &Schema{Type: "object", Nullable: nullable}
			}
			g.active[t] = true
			schema := g.generateNamedSchema(t)
			delete(g.active, t)
			if nullable && schema != nil {
				schema.Nullable = true
			}
			return schema
		}

		name := g.schemaName(t)
		if name != "" {
			// Generate the schema if not already visited.
			if !g.visited[t] {
				g.visited[t] = true
				schema := g.generateNamedSchema(t)
				g.schemas[name] = schema
			}

			ref := &Schema{Ref: "#/components/schemas/" + name}
			if nullable {
				// OAS 3.0 forbids sibling keywords next to $ref, so
				// nullable refs are wrapped in allOf.
				return &Schema{
					AllOf:    []*Schema{ref},
					Nullable: true,
				}
			}
			return ref
		}
	}

	schema := g.generateInlineType(t)
	if schema == nil {
		return nil
	}

	// Named non-struct types can still declare a closed value set.
	if t.Kind() != reflect.Struct && t.PkgPath() != "" {
		if en, ok := reflect.New(t).Interface().(Enumer); ok {
			schema.Enum = en.OpenAPIEnum()
		}
	}

	if nullable {
		schema.Nullable = true
	}
	return schema
}

// generateNamedSchema builds the component schema for a named struct type,
// honoring the Exampler, Enumer, and OneOfer interfaces.
func (g *SchemaGenerator) generateNamedSchema(t reflect.Type) *Schema {
	iface := reflect.New(t).Interface()

	if of, ok := iface.(OneOfer); ok {
		alternatives := of.OpenAPIOneOf()
		schema := &Schema{OneOf: make([]*Schema, 0, len(alternatives))}
		for _, alt := range alternatives {
			schema.OneOf = append(schema.OneOf, g.Generate(alt))
		}
		return schema
	}

	schema := g.generateStructSchema(t)

	if en, ok := iface.(Enumer); ok {
		schema.Enum = en.OpenAPIEnum()
	}
	if ex, ok := iface.(Exampler); ok {
		schema.Example = ex.OpenAPIExample()
	}

	return schema
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// generateInlineType maps Go primitive and composite types to schema types.
//
// See: https://spec.openapis.org/oas/v3.0.3#data-types
func (g *SchemaGenerator) generateInlineType(t reflect.Type) *Schema {
	// Special cases first.
	switch t {
	case timeType:
		return &Schema{Type: "string", Format: "date-time"}
	case uuidType:
		return &Schema{Type: "string", Format: "uuid"}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Schema{Type: "integer"}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: "string", Format: "byte"}
		}
		return &Schema{
			Type:  "array",
			Items: g.GenerateType(t.Elem()),
		}

	case reflect.Array:
		return &Schema{
			Type:  "array",
			Items: g.GenerateType(t.Elem()),
		}

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return &Schema{Type: "object"}
		}
		return &Schema{
			Type:                 "object",
			AdditionalProperties: g.GenerateType(t.Elem()),
		}

	case reflect.Struct:
		return g.generateStructSchema(t)

	case reflect.Interface:
		return &Schema{}
	}

	return nil
}

// generateStructSchema builds an object schema from struct fields.
//
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
func (g *SchemaGenerator) generateStructSchema(t reflect.Type) *Schema {
	schema := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema),
	}

	g.collectFields(t, schema, false)

	if len(schema.Properties) == 0 {
		schema.Properties = nil
	}

	return schema
}

// collectFields recursively collects struct fields into the schema.
// When allOptional is true, all fields are treated as optional regardless
// of their json tags. This is used for pointer-embedded structs where the
// entire embedded struct can be nil and thus all its fields may be absent.
func (g *SchemaGenerator) collectFields(t reflect.Type, schema *Schema, allOptional bool) {
	for i := range t.NumField() {
		field := t.Field(i)

		// Skip unexported fields.
		if !field.IsExported() {
			continue
		}

		// Handle embedded structs: inline only when the field has no
		// explicit json tag name. encoding/json treats an anonymous field
		// with a tag name as a regular named field, not inlined.
		if field.Anonymous {
			jsonName, _ := parseJSONTag(field.Tag.Get("json"))
			if jsonName == "" {
				ft := field.Type
				isPtr := ft.Kind() == reflect.Pointer
				if isPtr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					// Pointer-embedded structs: all inlined fields become
					// optional because the pointer can be nil, omitting
					// all fields from JSON output.
					g.collectFields(ft, schema, allOptional || isPtr)
					continue
				}
			}
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name, opts := parseJSONTag(jsonTag)
		if name == "" {
			name = field.Name
		}

		fieldSchema := g.GenerateType(field.Type)
		if fieldSchema == nil {
			continue
		}

		applyOpenAPITag(fieldSchema, field.Tag.Get("openapi"), g.lang)

		// The encoding/json ",string" option encodes numeric and boolean
		// values as JSON strings. Override the schema type accordingly.
		if opts.stringEncode && fieldSchema.Ref == "" && len(fieldSchema.AllOf) == 0 {
			if fieldSchema.Type != "" {
				fieldSchema.Type = "string"
				fieldSchema.Format = ""
			}
		}

		schema.Properties[name] = fieldSchema

		if !opts.omitempty && !allOptional {
			schema.Required = append(schema.Required, name)
		}
	}
}

type jsonTagOpts struct {
	omitempty    bool
	stringEncode bool // encoding/json ",string" option
}

func parseJSONTag(tag string) (string, jsonTagOpts) {
	if tag == "" {
		return "", jsonTagOpts{}
	}
	name, rest, _ := strings.Cut(tag, ",")
	return name, jsonTagOpts{
		omitempty:    strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero"),
		stringEncode: strings.Contains(rest, "string"),
	}
}

// applyOpenAPITag parses the `openapi` struct tag and applies constraints
// to the schema. Tag keys map to Schema Object keywords. The lang argument
// resolves descriptionKey entries through the message catalog.
//
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
func applyOpenAPITag(schema *Schema, tag string, lang language.Tag) {
	if tag == "" {
		return
	}

	for part := range strings.SplitSeq(tag, ",") {
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if hasValue {
			value = strings.TrimSpace(value)
		}

		switch key {
		case "description":
			schema.Description = value
		case "descriptionKey":
			schema.Description = i18n.T(lang, value)
		case "example":
			schema.Example = parseTagValue(schema, value)
		case "default":
			schema.Default = parseTagValue(schema, value)
		case "format":
			schema.Format = value
		case "minimum":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Minimum = &v
			}
		case "maximum":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Maximum = &v
			}
		case "exclusiveMinimum":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Minimum = &v
				schema.ExclusiveMinimum = true
			}
		case "exclusiveMaximum":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Maximum = &v
				schema.ExclusiveMaximum = true
			}
		case "minLength":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MinLength = &v
			}
		case "maxLength":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MaxLength = &v
			}
		case "pattern":
			schema.Pattern = value
		case "enum":
			values := strings.Split(value, "|")
			schema.Enum = make([]any, len(values))
			for i, v := range values {
				schema.Enum[i] = parseTagValue(schema, v)
			}
		case "deprecated":
			schema.Deprecated = true
		case "readOnly":
			schema.ReadOnly = true
		case "writeOnly":
			schema.WriteOnly = true
		case "nullable":
			schema.Nullable = true
		case "title":
			schema.Title = value
		case "multipleOf":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				schema.MultipleOf = &v
			}
		case "minItems":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MinItems = &v
			}
		case "maxItems":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MaxItems = &v
			}
		case "uniqueItems":
			schema.UniqueItems = true
		case "minProperties":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MinProperties = &v
			}
		case "maxProperties":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MaxProperties = &v
			}
		}
	}
}

// parseTagValue converts a string tag value to the appropriate Go type
// based on the schema's type field.
func parseTagValue(schema *Schema, value string) any {
	switch schema.Type {
	case "integer":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}

// schemaName returns a unique schema name for the given type. If two types
// from different packages share the same simple name (e.g., models.User and
// api.User), the second type gets a qualified name using its package's last
// path segment as a prefix (e.g., "ApiUser"). When the prefixed name still
// collides (e.g., three packages with the same suffix, or generic
// instantiations from the same package with different type arguments that
// sanitize to the same name), a numeric suffix is appended (e.g., "ApiUser2").
// Names are used as keys in the Components Object schemas map and in $ref URIs.
//
// See: https://spec.openapis.org/oas/v3.0.3#components-object (schemas)
func (g *SchemaGenerator) schemaName(t reflect.Type) string {
	simple := sanitizeSchemaName(t.Name())
	if simple == "" || t.PkgPath() == "" {
		return ""
	}

	if name, ok := g.typeNames[t]; ok {
		return name
	}

	name := simple
	if existing, ok := g.nameTypes[name]; ok && existing != t {
		name = pkgPrefix(t.PkgPath()) + simple
		// If the prefixed name still collides, append a numeric suffix.
		if existing, ok := g.nameTypes[name]; ok && existing != t {
			base := name
			for i := 2; ; i++ {
				candidate := base + strconv.Itoa(i)
				if _, ok := g.nameTypes[candidate]; !ok {
					name = candidate
					break
				}
			}
		}
	}

	g.typeNames[t] = name
	g.nameTypes[name] = t
	return name
}

// pkgPrefix extracts the last segment of a Go package path and capitalizes
// it for use as a schema name prefix (e.g., "net/http" -> "Http").
func pkgPrefix(pkgPath string) string {
	if idx := strings.LastIndexByte(pkgPath, '/'); idx >= 0 {
		pkgPath = pkgPath[idx+1:]
	}
	if len(pkgPath) == 0 {
		return ""
	}
	pkgPath = strings.ReplaceAll(pkgPath, "-", "_")
	pkgPath = strings.ReplaceAll(pkgPath, ".", "_")
	return strings.ToUpper(pkgPath[:1]) + pkgPath[1:]
}

// sanitizeSchemaName cleans up Go type names for use as OpenAPI component
// schema keys. Generic type names like "ResponseData[User]" are converted
// to "ResponseDataUser", and "ResponseData[[]User]" becomes
// "ResponseDataUserList". Package paths in type parameters are stripped.
//
// See: https://spec.openapis.org/oas/v3.0.3#components-object (schemas)
func sanitizeSchemaName(name string) string {
	idx := strings.IndexByte(name, '[')
	if idx < 0 {
		return name
	}

	base := name[:idx]
	inner := name[idx+1 : len(name)-1]

	isList := strings.HasPrefix(inner, "[]")
	inner = strings.TrimPrefix(inner, "[]")

	// Strip package path: "github.com/foo/bar.User" → "User".
	if dot := strings.LastIndexByte(inner, '.'); dot >= 0 {
		inner = inner[dot+1:]
	}

	result := base + inner
	if isList {
		result += "List"
	}

	return result
}
