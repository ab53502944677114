package openapi

import (
	"reflect"
	"sync"

	"golang.org/x/text/language"

	"github.com/StrayDragon/flask-x-openapi-schema-sub001/i18n"
)

// schemaCache memoizes self-contained schemas per (type, language) pair.
// Generation walks the full type graph through reflection, so repeated
// lookups for the same type would otherwise redo that work on every
// request.
type schemaCache struct {
	mu      sync.RWMutex
	entries map[schemaCacheKey]*Schema
}

type schemaCacheKey struct {
	t    reflect.Type
	lang language.Tag
}

var typeSchemas = schemaCache{entries: make(map[schemaCacheKey]*Schema)}

// SchemaOf returns a self-contained schema for the type of v, resolving
// localized descriptions against the process-wide default language. The
// result contains no $ref entries; recursive types are truncated with an
// open object schema. Results are cached per type and language for the
// lifetime of the process, so callers must not mutate the returned schema.
func SchemaOf(v any) *Schema {
	return SchemaOfLang(v, i18n.Default())
}

// SchemaOfLang is SchemaOf with an explicit language.
func SchemaOfLang(v any, lang language.Tag) *Schema {
	if v == nil {
		return nil
	}

	key := schemaCacheKey{t: reflect.TypeOf(v), lang: lang}

	typeSchemas.mu.RLock()
	schema, ok := typeSchemas.entries[key]
	typeSchemas.mu.RUnlock()
	if ok {
		return schema
	}

	schema = newInlineGenerator(lang).GenerateType(key.t)

	typeSchemas.mu.Lock()
	// Another goroutine may have generated the same schema concurrently.
	// Both results are identical, so keeping the first one wins.
	if existing, ok := typeSchemas.entries[key]; ok {
		schema = existing
	} else {
		typeSchemas.entries[key] = schema
	}
	typeSchemas.mu.Unlock()

	return schema
}

// ClearSchemaCache drops all memoized schemas. Call it after changing the
// message catalog so that localized descriptions regenerate.
func ClearSchemaCache() {
	typeSchemas.mu.Lock()
	typeSchemas.entries = make(map[schemaCacheKey]*Schema)
	typeSchemas.mu.Unlock()
}
