package openapi

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"golang.org/x/text/language"

	"github.com/StrayDragon/flask-x-openapi-schema-sub001/i18n"
)

// localizedText carries either a plain string or a per-language variant
// map, resolved at document build time.
type localizedText struct {
	plain     string
	localized i18n.String
}

func (t localizedText) resolve(lang language.Tag) string {
	if len(t.localized) > 0 {
		return t.localized.In(lang)
	}
	return t.plain
}

func (t localizedText) isZero() bool {
	return t.plain == "" && len(t.localized) == 0
}

// operationMeta stores metadata collected via the fluent builder
// before the final document is built. Fields correspond to the
// Operation Object.
//
// See: https://spec.openapis.org/oas/v3.0.3#operation-object
type operationMeta struct {
	operationID  string
	summary      localizedText
	description  localizedText
	tags         []string
	deprecated   bool
	parameters   []*Parameter
	security     []SecurityRequirement
	externalDocs *ExternalDocs
	callbacks    map[string]*Callback
	servers      []Server

	input any // request input struct prototype, classified via PlanOf

	requestContents      map[string]any                   // contentType -> body
	requestDescription   localizedText                    // request body description
	requestRequired      *bool                            // nil = default (true), non-nil = explicit
	responseContents     map[string]map[string]any        // statusKey -> contentType -> body
	responseDescriptions map[string]localizedText         // statusKey -> custom description
	responseHeaders      map[string]map[string]*Header    // statusKey -> headerName -> header
	responseLinks        map[string]map[string]*Link      // statusKey -> linkName -> link
}

// OperationBuilder provides a fluent API for attaching OpenAPI metadata
// to a named route. It assembles an Operation Object.
//
// See: https://spec.openapis.org/oas/v3.0.3#operation-object
type OperationBuilder struct {
	meta *operationMeta
}

func newOperationBuilder() *OperationBuilder {
	return &OperationBuilder{
		meta: &operationMeta{
			requestContents:  make(map[string]any),
			responseContents: make(map[string]map[string]any),
		},
	}
}

// OperationID sets a custom operation ID, overriding the auto-detected route
// name. This is useful with Route() where the route may not have a name.
func (b *OperationBuilder) OperationID(id string) *OperationBuilder {
	b.meta.operationID = id
	return b
}

// Summary sets the operation summary.
func (b *OperationBuilder) Summary(s string) *OperationBuilder {
	b.meta.summary = localizedText{plain: s}
	return b
}

// SummaryLocalized sets a per-language operation summary, resolved against
// the build language.
func (b *OperationBuilder) SummaryLocalized(s i18n.String) *OperationBuilder {
	b.meta.summary = localizedText{localized: s}
	return b
}

// Description sets the operation description.
func (b *OperationBuilder) Description(d string) *OperationBuilder {
	b.meta.description = localizedText{plain: d}
	return b
}

// DescriptionLocalized sets a per-language operation description.
func (b *OperationBuilder) DescriptionLocalized(d i18n.String) *OperationBuilder {
	b.meta.description = localizedText{localized: d}
	return b
}

// Tags adds one or more tags to the operation.
func (b *OperationBuilder) Tags(tags ...string) *OperationBuilder {
	b.meta.tags = append(b.meta.tags, tags...)
	return b
}

// Deprecated marks the operation as deprecated.
func (b *OperationBuilder) Deprecated() *OperationBuilder {
	b.meta.deprecated = true
	return b
}

// Input derives the operation's parameters and request body from a request
// input struct. Field naming conventions (Body, Query, Form, Path<Name>,
// File<Name>) determine where each value appears in the document. The same
// struct type drives request binding, so documentation and runtime behavior
// stay in sync.
func (b *OperationBuilder) Input(v any) *OperationBuilder {
	b.meta.input = v
	return b
}

// Request registers an application/json request body type for the operation.
// This is a shortcut for RequestContent("application/json", body).
func (b *OperationBuilder) Request(body any) *OperationBuilder {
	b.meta.requestContents["application/json"] = body
	return b
}

// RequestContent registers a request body with the given content type.
// The body can be a Go type (schema generated via reflection), a *Schema
// for explicit schema control, or nil for a content type with no schema.
func (b *OperationBuilder) RequestContent(contentType string, body any) *OperationBuilder {
	b.meta.requestContents[contentType] = body
	return b
}

// RequestDescription sets the description for the request body.
func (b *OperationBuilder) RequestDescription(desc string) *OperationBuilder {
	b.meta.requestDescription = localizedText{plain: desc}
	return b
}

// RequestDescriptionLocalized sets a per-language request body description.
func (b *OperationBuilder) RequestDescriptionLocalized(desc i18n.String) *OperationBuilder {
	b.meta.requestDescription = localizedText{localized: desc}
	return b
}

// RequestRequired sets whether the request body is required.
// By default, request bodies are required (true).
func (b *OperationBuilder) RequestRequired(required bool) *OperationBuilder {
	b.meta.requestRequired = &required
	return b
}

// Response registers an application/json response type for the given HTTP
// status code. Pass nil body for responses with no content (e.g., 204).
// This is a shortcut for ResponseContent(statusCode, "application/json", body)
// when body is non-nil.
func (b *OperationBuilder) Response(statusCode int, body any) *OperationBuilder {
	key := strconv.Itoa(statusCode)
	if body != nil {
		if b.meta.responseContents[key] == nil {
			b.meta.responseContents[key] = make(map[string]any)
		}
		b.meta.responseContents[key]["application/json"] = body
	} else {
		b.meta.responseContents[key] = nil
	}
	return b
}

// ResponseContent registers a response with the given status code and content
// type. The body can be a Go type (schema generated via reflection), a *Schema
// for explicit schema control, or nil for a content type with no schema.
func (b *OperationBuilder) ResponseContent(statusCode int, contentType string, body any) *OperationBuilder {
	key := strconv.Itoa(statusCode)
	if b.meta.responseContents[key] == nil {
		b.meta.responseContents[key] = make(map[string]any)
	}
	b.meta.responseContents[key][contentType] = body
	return b
}

// DefaultResponse registers an application/json response for the "default"
// status key. The default response catches any status code not covered by
// specific responses. Pass nil body for a default response with no content.
func (b *OperationBuilder) DefaultResponse(body any) *OperationBuilder {
	if body != nil {
		if b.meta.responseContents["default"] == nil {
			b.meta.responseContents["default"] = make(map[string]any)
		}
		b.meta.responseContents["default"]["application/json"] = body
	} else {
		b.meta.responseContents["default"] = nil
	}
	return b
}

// DefaultResponseContent registers a response with the given content type
// for the "default" status key.
func (b *OperationBuilder) DefaultResponseContent(contentType string, body any) *OperationBuilder {
	if b.meta.responseContents["default"] == nil {
		b.meta.responseContents["default"] = make(map[string]any)
	}
	b.meta.responseContents["default"][contentType] = body
	return b
}

// ResponseHeader adds a header to the response for the given HTTP status code.
func (b *OperationBuilder) ResponseHeader(statusCode int, name string, h *Header) *OperationBuilder {
	key := strconv.Itoa(statusCode)
	if b.meta.responseHeaders == nil {
		b.meta.responseHeaders = make(map[string]map[string]*Header)
	}
	if b.meta.responseHeaders[key] == nil {
		b.meta.responseHeaders[key] = make(map[string]*Header)
	}
	b.meta.responseHeaders[key][name] = h
	return b
}

// ResponseLink adds a link to the response for the given HTTP status code.
func (b *OperationBuilder) ResponseLink(statusCode int, name string, l *Link) *OperationBuilder {
	key := strconv.Itoa(statusCode)
	if b.meta.responseLinks == nil {
		b.meta.responseLinks = make(map[string]map[string]*Link)
	}
	if b.meta.responseLinks[key] == nil {
		b.meta.responseLinks[key] = make(map[string]*Link)
	}
	b.meta.responseLinks[key][name] = l
	return b
}

// ResponseDescription overrides the auto-generated description for a response.
// By default, descriptions are derived from HTTP status text (e.g., "OK",
// "Not Found").
func (b *OperationBuilder) ResponseDescription(statusCode int, desc string) *OperationBuilder {
	key := strconv.Itoa(statusCode)
	if b.meta.responseDescriptions == nil {
		b.meta.responseDescriptions = make(map[string]localizedText)
	}
	b.meta.responseDescriptions[key] = localizedText{plain: desc}
	return b
}

// ResponseDescriptionLocalized sets a per-language response description for
// the given HTTP status code.
func (b *OperationBuilder) ResponseDescriptionLocalized(statusCode int, desc i18n.String) *OperationBuilder {
	key := strconv.Itoa(statusCode)
	if b.meta.responseDescriptions == nil {
		b.meta.responseDescriptions = make(map[string]localizedText)
	}
	b.meta.responseDescriptions[key] = localizedText{localized: desc}
	return b
}

// DefaultResponseDescription overrides the auto-generated description for the
// default response.
func (b *OperationBuilder) DefaultResponseDescription(desc string) *OperationBuilder {
	if b.meta.responseDescriptions == nil {
		b.meta.responseDescriptions = make(map[string]localizedText)
	}
	b.meta.responseDescriptions["default"] = localizedText{plain: desc}
	return b
}

// Parameter adds a custom parameter to the operation.
func (b *OperationBuilder) Parameter(param *Parameter) *OperationBuilder {
	b.meta.parameters = append(b.meta.parameters, param)
	return b
}

// Security sets operation-level security requirements.
// Call with no arguments to explicitly mark the operation as unauthenticated
// (overrides document-level security).
func (b *OperationBuilder) Security(reqs ...SecurityRequirement) *OperationBuilder {
	if reqs == nil {
		reqs = []SecurityRequirement{}
	}
	b.meta.security = reqs
	return b
}

// ExternalDocs sets external documentation for the operation.
func (b *OperationBuilder) ExternalDocs(url, description string) *OperationBuilder {
	b.meta.externalDocs = &ExternalDocs{URL: url, Description: description}
	return b
}

// Callback adds a callback to the operation.
func (b *OperationBuilder) Callback(name string, cb *Callback) *OperationBuilder {
	if b.meta.callbacks == nil {
		b.meta.callbacks = make(map[string]*Callback)
	}
	b.meta.callbacks[name] = cb
	return b
}

// Server adds a server override for the operation.
func (b *OperationBuilder) Server(server Server) *OperationBuilder {
	b.meta.servers = append(b.meta.servers, server)
	return b
}

// mergeParameters combines parameter lists pairwise. Later parameters with
// the same name and location override earlier ones; everything else is
// kept. OpenAPI requires parameter uniqueness by name+in.
func mergeParameters(auto, custom []*Parameter) []*Parameter {
	if len(auto) == 0 && len(custom) == 0 {
		return nil
	}

	overrides := make(map[[2]string]struct{}, len(custom))
	for _, p := range custom {
		overrides[[2]string{p.Name, p.In}] = struct{}{}
	}

	var merged []*Parameter
	for _, p := range auto {
		if _, ok := overrides[[2]string{p.Name, p.In}]; !ok {
			merged = append(merged, p)
		}
	}

	merged = append(merged, custom...)
	return merged
}

// resolveSchema returns a Schema for the given body value. If body is a
// *Schema it is used directly; otherwise the schema generator produces one
// via reflection.
func resolveSchema(gen *SchemaGenerator, body any) *Schema {
	if body == nil {
		return nil
	}
	if s, ok := body.(*Schema); ok {
		return s
	}
	return gen.Generate(body)
}

// responseDescription returns a human-readable description for a response key.
func responseDescription(key string) string {
	if key == "default" {
		return "Default response"
	}
	code, err := strconv.Atoi(key)
	if err == nil {
		if text := http.StatusText(code); text != "" {
			return text
		}
	}
	return key
}

// paramSchema generates the schema for a single query, form, or path
// parameter, applying its openapi tag constraints.
func paramSchema(gen *SchemaGenerator, p ParamField) *Schema {
	schema := gen.GenerateType(p.Type)
	if schema == nil {
		schema = &Schema{Type: "string"}
	}
	applyOpenAPITag(schema, p.OpenAPITag, gen.lang)
	return schema
}

// inputParameters derives query and path parameters from an input plan.
func inputParameters(gen *SchemaGenerator, plan *InputPlan) []*Parameter {
	var params []*Parameter

	for _, p := range plan.Path {
		params = append(params, &Parameter{
			Name:     p.Name,
			In:       "path",
			Required: true,
			Schema:   paramSchema(gen, p),
		})
	}

	for _, p := range plan.Query {
		params = append(params, &Parameter{
			Name:     p.Name,
			In:       "query",
			Required: !p.Optional,
			Schema:   paramSchema(gen, p),
		})
	}

	return params
}

// inputRequestBody derives the request body from an input plan. File fields
// force multipart/form-data; a Form struct without files produces
// application/x-www-form-urlencoded; a lone Body produces application/json.
//
// See: https://spec.openapis.org/oas/v3.0.3#considerations-for-file-uploads
func inputRequestBody(gen *SchemaGenerator, plan *InputPlan) *RequestBody {
	if len(plan.Files) > 0 {
		schema := &Schema{
			Type:       "object",
			Properties: make(map[string]*Schema),
		}

		for _, f := range plan.Files {
			fileSchema := &Schema{Type: "string", Format: "binary"}
			if f.Accept != nil && len(f.Accept.ContentTypes) > 0 {
				fileSchema.Description = "Accepted content types: " + joinComma(f.Accept.ContentTypes)
			}
			schema.Properties[f.Name] = fileSchema
			schema.Required = append(schema.Required, f.Name)
		}

		for _, p := range plan.Form {
			schema.Properties[p.Name] = paramSchema(gen, p)
			if !p.Optional {
				schema.Required = append(schema.Required, p.Name)
			}
		}

		// A JSON body next to files is flattened into the multipart
		// object, one part per property.
		if plan.Body != nil {
			body := gen.generateStructSchema(plan.Body.Type)
			for name, prop := range body.Properties {
				schema.Properties[name] = prop
			}
			if !plan.Body.Optional {
				schema.Required = append(schema.Required, body.Required...)
			}
		}

		return &RequestBody{
			Required: true,
			Content:  map[string]*MediaType{"multipart/form-data": {Schema: schema}},
		}
	}

	if plan.HasForm {
		schema := &Schema{
			Type:       "object",
			Properties: make(map[string]*Schema),
		}
		for _, p := range plan.Form {
			schema.Properties[p.Name] = paramSchema(gen, p)
			if !p.Optional {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		return &RequestBody{
			Required: true,
			Content:  map[string]*MediaType{"application/x-www-form-urlencoded": {Schema: schema}},
		}
	}

	if plan.Body != nil {
		return &RequestBody{
			Required: !plan.Body.Optional,
			Content: map[string]*MediaType{
				"application/json": {Schema: gen.GenerateType(plan.Body.Type)},
			},
		}
	}

	return nil
}

func joinComma(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}

// buildOperation converts the collected metadata into an Operation Object
// using the given schema generator.
func (b *OperationBuilder) buildOperation(gen *SchemaGenerator, operationID string, pathParams []*Parameter) (*Operation, error) {
	if b.meta.operationID != "" {
		operationID = b.meta.operationID
	}
	op := &Operation{
		OperationID:  operationID,
		Summary:      b.meta.summary.resolve(gen.lang),
		Description:  b.meta.description.resolve(gen.lang),
		Tags:         b.meta.tags,
		Deprecated:   b.meta.deprecated,
		Security:     b.meta.security,
		ExternalDocs: b.meta.externalDocs,
		Callbacks:    b.meta.callbacks,
		Servers:      b.meta.servers,
	}

	// Input-derived parameters override auto path parameters (which carry
	// only a default string schema), and explicit parameters override both.
	autoParams := pathParams
	if b.meta.input != nil {
		plan, err := PlanOf(reflect.TypeOf(b.meta.input))
		if err != nil {
			return nil, fmt.Errorf("operation %s: %w", operationID, err)
		}
		autoParams = mergeParameters(autoParams, inputParameters(gen, plan))
		op.RequestBody = inputRequestBody(gen, plan)
	}
	op.Parameters = mergeParameters(autoParams, b.meta.parameters)

	// Explicitly registered request contents extend or replace the
	// input-derived body.
	if len(b.meta.requestContents) > 0 {
		required := true
		if b.meta.requestRequired != nil {
			required = *b.meta.requestRequired
		}
		if op.RequestBody == nil {
			op.RequestBody = &RequestBody{
				Content: make(map[string]*MediaType, len(b.meta.requestContents)),
			}
		}
		op.RequestBody.Required = required
		for ct, body := range b.meta.requestContents {
			mt := &MediaType{}
			if schema := resolveSchema(gen, body); schema != nil {
				mt.Schema = schema
			}
			op.RequestBody.Content[ct] = mt
		}
	}
	if op.RequestBody != nil && !b.meta.requestDescription.isZero() {
		op.RequestBody.Description = b.meta.requestDescription.resolve(gen.lang)
	}

	// Build responses.
	if len(b.meta.responseContents) > 0 {
		op.Responses = make(map[string]*Response, len(b.meta.responseContents))
		for key, contents := range b.meta.responseContents {
			desc := responseDescription(key)
			if custom, ok := b.meta.responseDescriptions[key]; ok {
				desc = custom.resolve(gen.lang)
			}
			resp := &Response{
				Description: desc,
			}
			if len(contents) > 0 {
				resp.Content = make(map[string]*MediaType, len(contents))
				for ct, body := range contents {
					mt := &MediaType{}
					if schema := resolveSchema(gen, body); schema != nil {
						mt.Schema = schema
					}
					resp.Content[ct] = mt
				}
			}
			if headers, ok := b.meta.responseHeaders[key]; ok && len(headers) > 0 {
				resp.Headers = headers
			}
			if links, ok := b.meta.responseLinks[key]; ok && len(links) > 0 {
				resp.Links = links
			}
			op.Responses[key] = resp
		}
	}

	return op, nil
}
