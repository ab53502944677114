// Package openapi provides automatic OpenAPI v3.0.3 document generation
// from router routes using Go reflection and struct tags.
//
// The package targets the OpenAPI Specification v3.0.3, where each schema
// has a single type string, null is expressed with the nullable keyword,
// and exclusive numeric bounds are booleans. It produces a complete
// document from registered routes with zero external schema files.
//
// See: https://spec.openapis.org/oas/v3.0.3
//
// # Spec Builder
//
// Create a spec, attach metadata to routes, and build the document:
//
//	spec := openapi.NewSpec(openapi.Info{Title: "My API", Version: "1.0.0"})
//
// Use Op to annotate existing named routes:
//
//	r := router.New()
//	r.HandleFunc("GET /users", listUsers).Name("listUsers")
//	r.HandleFunc("POST /users", createUser).Name("createUser")
//
//	spec.Op("listUsers").
//	    Summary("List all users").
//	    Tags("users").
//	    Response(http.StatusOK, []User{})
//
// Or use Route to attach metadata to a route handle directly:
//
//	spec.Route(r.HandleFunc("POST /users", createUser)).
//	    Summary("Create a user").
//	    Tags("users").
//	    Request(CreateUserInput{}).
//	    Response(http.StatusCreated, User{})
//
// # Request Input Structs
//
// Input derives parameters and the request body from a single struct whose
// field names declare where each value comes from:
//
//	type createPetInput struct {
//	    PathOwnerID uuid.UUID         // path parameter "owner_id"
//	    Query       listQuery         // struct of query parameters
//	    Body        createPetBody     // JSON request body
//	    FileAvatar  openapi.ImageFile // multipart file part "avatar"
//	}
//
//	spec.Op("createPet").Input(createPetInput{})
//
// The same struct type drives request binding (see the binding package),
// so the documented contract and the runtime behavior cannot drift apart.
// File fields switch the request body to multipart/form-data; a Form
// struct without files produces application/x-www-form-urlencoded; a lone
// Body produces application/json.
//
// # Route Groups
//
// Use Group to apply shared OpenAPI metadata defaults to a logical group
// of operations. Groups are a metadata concept only -- they do not affect
// routing. Routes created through a group inherit the group's tags,
// security, servers, parameters, responses, and external docs.
//
//	pets := spec.Group().
//	    Tags("pets").
//	    Response(http.StatusNotFound, ErrorResponse{})
//
//	pets.Op("getPet").
//	    Summary("Get a pet").
//	    Response(http.StatusOK, Pet{})
//
// Override/merge semantics per field:
//
//   - Tags: append (group tags + operation tags combined)
//   - Security: replace (operation-level Security call overrides group value)
//   - Deprecated: one-way latch (group deprecation cannot be undone per-operation)
//   - Servers: append (group servers + operation servers combined)
//   - Parameters: append (group parameters + operation parameters combined)
//   - Responses: merge (group responses + operation responses; operation overrides per status code)
//   - ExternalDocs: replace (operation-level ExternalDocs call overrides group value)
//
// # Localized Documents
//
// Summaries, descriptions, and response descriptions accept per-language
// variants that resolve at build time:
//
//	spec.Op("getPet").SummaryLocalized(i18n.String{
//	    "en":      "Get a pet",
//	    "zh-Hans": "获取宠物",
//	})
//
// Field descriptions can reference message catalog keys with the
// descriptionKey tag entry:
//
//	Name string `json:"name" openapi:"descriptionKey=pet.name"`
//
// BuildLang builds the document for an explicit language; the endpoints
// registered by Handle pick the language from the lang query parameter or
// the Accept-Language header and cache one serialized document per
// language.
//
// # Struct Tags
//
// Use the "openapi" struct tag to enrich schema output:
//
//	type CreateUserInput struct {
//	    Name  string `json:"name" openapi:"description=User name,minLength=1,maxLength=100"`
//	    Email string `json:"email" openapi:"format=email"`
//	    Age   int    `json:"age,omitempty" openapi:"minimum=0,maximum=150"`
//	    Role  string `json:"role" openapi:"enum=admin|user|guest"`
//	}
//
// Supported tag keys: description, descriptionKey, example, default,
// format, title, minimum, maximum, exclusiveMinimum, exclusiveMaximum,
// minLength, maxLength, pattern, multipleOf, minItems, maxItems,
// uniqueItems, minProperties, maxProperties, nullable, enum
// (pipe-separated), deprecated, readOnly, writeOnly, name.
//
// # Schema Generation
//
// Go types are converted to Schema Objects via reflection:
//
//   - bool -> {type: "boolean"}
//   - int/uint variants -> {type: "integer"}
//   - float32/float64 -> {type: "number"}
//   - string -> {type: "string"}
//   - []byte -> {type: "string", format: "byte"}
//   - time.Time -> {type: "string", format: "date-time"}
//   - uuid.UUID -> {type: "string", format: "uuid"}
//   - openapi.File -> {type: "string", format: "binary"}
//   - *T -> schema(T) with nullable: true
//   - []T -> {type: "array", items: schema(T)}
//   - map[string]V -> {type: "object", additionalProperties: schema(V)}
//   - struct -> {type: "object", properties: {...}, required: [...]}
//
// Named struct types are deduplicated into #/components/schemas/{TypeName}
// and referenced via $ref. A nullable reference is wrapped in allOf because
// OAS 3.0 forbids sibling keywords next to $ref.
//
// Implement Exampler, Enumer, or OneOfer on a type to provide a component
// example, a closed value set, or alternative payload shapes:
//
//	func (User) OpenAPIExample() any {
//	    return User{ID: "550e8400-...", Name: "Alice"}
//	}
//
// SchemaOf returns a self-contained, $ref-free schema for a single type,
// memoized per (type, language) pair for the lifetime of the process.
//
// # Serving the Document
//
// Handle registers all OpenAPI endpoints under a base path. The config
// parameter is optional -- pass nil for defaults:
//
//	spec.Handle(r, "/swagger", nil)
//
// This registers three routes:
//
//	/swagger/            - interactive HTML docs
//	/swagger/schema.json - document as JSON
//	/swagger/schema.yaml - document as YAML
//
// Choose the docs UI via HandleConfig:
//
//	openapi.DocsSwaggerUI (default)
//	openapi.DocsRapiDoc
//	openapi.DocsRedoc
//
// # Building the Document
//
// Build walks the router and assembles a complete *Document. This is
// called automatically by Handle, but can be used directly:
//
//	doc, err := spec.Build(r)
//	data, _ := json.MarshalIndent(doc, "", "  ")
package openapi
