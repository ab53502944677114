package openapi

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// Request input structs declare where each value comes from through field
// naming alone:
//
//	type createPetInput struct {
//	    PathOwnerID uuid.UUID // path parameter "owner_id"
//	    Query       petQuery  // struct of query parameters
//	    Body        petBody   // JSON request body
//	    FileAvatar  openapi.ImageFile // multipart file field "avatar"
//	}
//
// Body, Query, and Form name whole payload structs. Fields starting with
// Path bind a single path parameter whose wire name is the snake_case
// remainder. Fields starting with File, or typed as File, bind a single
// multipart file part. Any other exported field is a classification error,
// reported when the plan is first built. Body and Form may only coexist
// when file fields force a multipart request; otherwise the two would
// compete for the single request body.

// InputPlan is the binding layout derived from an input struct type.
type InputPlan struct {
	Type  reflect.Type
	Body  *BodyField
	Query []ParamField
	Form  []ParamField
	Path  []ParamField
	Files []FileField

	// HasForm distinguishes an empty Form struct from no Form field.
	HasForm bool
}

// BodyField locates the JSON body field of an input struct.
type BodyField struct {
	Index    int
	Type     reflect.Type // struct type, pointer already unwrapped
	Optional bool         // declared as a pointer
}

// ParamField describes one query, form, or path parameter.
type ParamField struct {
	Index      []int        // input struct field, then group struct field for query/form
	Name       string       // wire name
	Type       reflect.Type // pointer already unwrapped
	Optional   bool
	OpenAPITag string
}

// FileField describes one multipart file part.
type FileField struct {
	Index  int
	Name   string // multipart form field name
	Type   reflect.Type
	Accept *FileAccept // nil when the type declares no restrictions
}

var inputPlans sync.Map // reflect.Type -> planEntry

type planEntry struct {
	plan *InputPlan
	err  error
}

// PlanOf classifies the fields of an input struct type. Plans are built
// once per type and cached for the lifetime of the process. A
// classification error is sticky: every later call for the same type
// returns it again.
func PlanOf(t reflect.Type) (*InputPlan, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input type %s is not a struct", t)
	}

	if entry, ok := inputPlans.Load(t); ok {
		e := entry.(planEntry)
		return e.plan, e.err
	}

	plan, err := buildPlan(t)
	entry, _ := inputPlans.LoadOrStore(t, planEntry{plan: plan, err: err})
	e := entry.(planEntry)
	return e.plan, e.err
}

func buildPlan(t reflect.Type) (*InputPlan, error) {
	plan := &InputPlan{Type: t}

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		ft := field.Type
		optional := ft.Kind() == reflect.Pointer
		if optional {
			ft = ft.Elem()
		}

		switch {
		case field.Name == "Body":
			if ft.Kind() != reflect.Struct {
				return nil, fmt.Errorf("%s.Body must be a struct, got %s", t, field.Type)
			}
			plan.Body = &BodyField{Index: i, Type: ft, Optional: optional}

		case field.Name == "Query":
			params, err := groupParams(t, field, ft)
			if err != nil {
				return nil, err
			}
			plan.Query = params

		case field.Name == "Form":
			params, err := groupParams(t, field, ft)
			if err != nil {
				return nil, err
			}
			plan.Form = params
			plan.HasForm = true

		case strings.HasPrefix(field.Name, "Path"):
			rest := strings.TrimPrefix(field.Name, "Path")
			if rest == "" {
				return nil, fmt.Errorf("%s.Path needs a parameter name suffix, e.g. PathID", t)
			}
			name := tagName(field.Tag.Get("openapi"))
			if name == "" {
				name = snakeCase(rest)
			}
			plan.Path = append(plan.Path, ParamField{
				Index:      []int{i},
				Name:       name,
				Type:       ft,
				OpenAPITag: field.Tag.Get("openapi"),
			})

		case strings.HasPrefix(field.Name, "File") || isFileType(ft):
			if !isFileType(ft) {
				return nil, fmt.Errorf("%s.%s must be a file type, got %s", t, field.Name, field.Type)
			}
			name := tagName(field.Tag.Get("openapi"))
			if name == "" {
				rest := strings.TrimPrefix(field.Name, "File")
				if rest == "" {
					name = "file"
				} else {
					name = snakeCase(rest)
				}
			}
			ff := FileField{Index: i, Name: name, Type: ft}
			if accepter, ok := reflect.New(ft).Interface().(FileAccepter); ok {
				accept := accepter.Accept()
				ff.Accept = &accept
			}
			plan.Files = append(plan.Files, ff)

		default:
			return nil, fmt.Errorf("%s.%s does not match any binding convention (Body, Query, Form, Path<Name>, File<Name>)", t, field.Name)
		}
	}

	// Without files there is only one request body: an urlencoded Form and
	// a JSON Body cannot both be satisfied.
	if plan.Body != nil && plan.HasForm && len(plan.Files) == 0 {
		return nil, fmt.Errorf("%s declares both Body and Form without file fields; a request has a single body", t)
	}

	return plan, nil
}

// groupParams expands the fields of a Query or Form struct into parameters.
func groupParams(owner reflect.Type, field reflect.StructField, ft reflect.Type) ([]ParamField, error) {
	if ft.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s.%s must be a struct, got %s", owner, field.Name, field.Type)
	}

	params := make([]ParamField, 0, ft.NumField())
	for i := range ft.NumField() {
		sub := ft.Field(i)
		if !sub.IsExported() {
			continue
		}

		st := sub.Type
		optional := st.Kind() == reflect.Pointer
		if optional {
			st = st.Elem()
		}

		jsonTag := sub.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name, opts := parseJSONTag(jsonTag)
		if name == "" {
			name = snakeCase(sub.Name)
		}

		params = append(params, ParamField{
			Index:      []int{field.Index[0], i},
			Name:       name,
			Type:       st,
			Optional:   optional || opts.omitempty,
			OpenAPITag: sub.Tag.Get("openapi"),
		})
	}

	return params, nil
}

// tagName extracts the name= entry from an openapi struct tag.
func tagName(tag string) string {
	for part := range strings.SplitSeq(tag, ",") {
		if value, ok := strings.CutPrefix(part, "name="); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// snakeCase converts an exported Go name to its wire form, keeping
// acronym runs together: PetID -> pet_id, AvatarURL -> avatar_url,
// HTTPServer -> http_server.
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && !unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
