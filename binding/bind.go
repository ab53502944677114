package binding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/StrayDragon/flask-x-openapi-schema-sub001/openapi"
)

// maxMultipartMemory bounds how much of a multipart body is held in memory
// before spilling to temp files.
const maxMultipartMemory = 32 << 20

// Bind fills an input struct from the request. v must be a non-nil pointer
// to a struct following the input naming conventions (Body, Query, Form,
// Path<Name>, File<Name>). JSON bodies are validated against the schema
// generated for the Body type before strict decoding; unknown fields and
// trailing data are rejected.
func Bind(r *http.Request, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("bind target must be a non-nil pointer, got %T", v)
	}
	rv = rv.Elem()

	plan, err := openapi.PlanOf(rv.Type())
	if err != nil {
		return err
	}

	if len(plan.Files) > 0 {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return &Error{Source: "form", Err: err}
		}
	} else if plan.HasForm {
		if err := r.ParseForm(); err != nil {
			return &Error{Source: "form", Err: err}
		}
	}

	for _, p := range plan.Path {
		raw := r.PathValue(p.Name)
		if raw == "" {
			return &Error{Source: "path", Field: p.Name, Err: errors.New("missing value")}
		}
		if err := setValues(fieldByIndex(rv, p.Index), []string{raw}); err != nil {
			return &Error{Source: "path", Field: p.Name, Err: err}
		}
	}

	if len(plan.Query) > 0 {
		if err := bindParams(rv, plan.Query, r.URL.Query(), "query"); err != nil {
			return err
		}
	}

	if plan.HasForm {
		form := r.PostForm
		if r.MultipartForm != nil {
			form = url.Values(r.MultipartForm.Value)
		}
		if err := bindParams(rv, plan.Form, form, "form"); err != nil {
			return err
		}
	}

	for _, f := range plan.Files {
		if err := bindFile(rv, f, r); err != nil {
			return err
		}
	}

	if plan.Body != nil {
		if len(plan.Files) > 0 {
			return bindFormBody(rv, plan, r)
		}
		return bindJSONBody(rv, plan, r)
	}

	return nil
}

// bindParams fills the fields of a Query or Form group struct.
func bindParams(rv reflect.Value, params []openapi.ParamField, values url.Values, source string) error {
	for _, p := range params {
		vals, ok := values[p.Name]
		if !ok || len(vals) == 0 {
			if p.Optional {
				continue
			}
			return &Error{Source: source, Field: p.Name, Err: errors.New("missing value")}
		}
		if err := setValues(fieldByIndex(rv, p.Index), vals); err != nil {
			return &Error{Source: source, Field: p.Name, Err: err}
		}
	}
	return nil
}

// bindFile resolves one multipart file part and stores it in its field.
func bindFile(rv reflect.Value, f openapi.FileField, r *http.Request) error {
	headers := r.MultipartForm.File[f.Name]
	if len(headers) == 0 {
		return &Error{Source: "file", Field: f.Name, Err: errors.New("missing file")}
	}
	header := headers[0]

	file := openapi.File{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Header:      header,
	}

	if f.Accept != nil {
		if err := f.Accept.Validate(file.Filename, file.ContentType); err != nil {
			return &Error{Source: "file", Field: f.Name, Err: err}
		}
	}

	field := rv.Field(f.Index)
	if field.Type() == reflect.TypeOf(openapi.File{}) {
		field.Set(reflect.ValueOf(file))
		return nil
	}

	// Wrapper types embed File; set the embedded field.
	for i := range field.NumField() {
		if field.Type().Field(i).Anonymous && field.Type().Field(i).Type == reflect.TypeOf(openapi.File{}) {
			field.Field(i).Set(reflect.ValueOf(file))
			return nil
		}
	}
	return &Error{Source: "file", Field: f.Name, Err: fmt.Errorf("unsupported file field type %s", field.Type())}
}

// bindJSONBody validates and decodes an application/json request body.
func bindJSONBody(rv reflect.Value, plan *openapi.InputPlan, r *http.Request) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return &Error{Source: "body", Err: err}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		if plan.Body.Optional {
			return nil
		}
		return &Error{Source: "body", Err: errors.New("request body is required")}
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return &Error{Source: "body", Err: err}
	}

	if err := validateBody(plan.Body.Type, decoded); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return &Error{Source: "body", Err: err}
	}

	return decodeStrict(data, bodyTarget(rv, plan))
}

// bindFormBody fills the Body struct from multipart form values. Each body
// property arrives as its own form part; values that parse as JSON keep
// their JSON type, everything else stays a string.
func bindFormBody(rv reflect.Value, plan *openapi.InputPlan, r *http.Request) error {
	decoded := make(map[string]any, len(r.MultipartForm.Value))
	for name, vals := range r.MultipartForm.Value {
		if len(vals) == 0 {
			continue
		}
		decoded[name] = formValue(vals[0])
	}

	// Form group fields share the namespace; strip them so the body
	// validator only sees its own properties.
	for _, p := range plan.Form {
		delete(decoded, p.Name)
	}

	// An optional body whose parts are all absent stays nil, matching the
	// multipart schema where its properties are not required.
	if len(decoded) == 0 && plan.Body.Optional {
		return nil
	}

	if err := validateBody(plan.Body.Type, decoded); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return &Error{Source: "body", Err: err}
	}

	data, err := json.Marshal(decoded)
	if err != nil {
		return &Error{Source: "body", Err: err}
	}
	return decodeStrict(data, bodyTarget(rv, plan))
}

// bodyTarget returns a pointer to the Body struct, allocating it when the
// field is declared as a pointer.
func bodyTarget(rv reflect.Value, plan *openapi.InputPlan) any {
	field := rv.Field(plan.Body.Index)
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			field.Set(reflect.New(plan.Body.Type))
		}
		return field.Interface()
	}
	return field.Addr().Interface()
}

// decodeStrict decodes JSON into v, rejecting unknown fields and trailing
// data. Exactly one JSON value must be present.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return &Error{Source: "body", Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &Error{Source: "body", Err: errors.New("unexpected trailing data after JSON value")}
	}
	return nil
}

// formValue interprets a form field: valid JSON keeps its type so numbers,
// booleans, arrays, and objects validate correctly; everything else is a
// plain string.
func formValue(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '{', '[', 't', 'f', 'n', '"', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return s
}

func fieldByIndex(rv reflect.Value, index []int) reflect.Value {
	field := rv
	for _, i := range index {
		if field.Kind() == reflect.Pointer {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			field = field.Elem()
		}
		field = field.Field(i)
	}
	return field
}

// setValues parses raw string values into a field. Slices consume all
// values (repeated keys); scalars use the first.
func setValues(field reflect.Value, vals []string) error {
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		field = field.Elem()
	}

	if field.Kind() == reflect.Slice && field.Type().Elem().Kind() != reflect.Uint8 {
		slice := reflect.MakeSlice(field.Type(), len(vals), len(vals))
		for i, raw := range vals {
			if err := setScalar(slice.Index(i), raw); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	return setScalar(field, vals[0])
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

func setScalar(field reflect.Value, raw string) error {
	switch field.Type() {
	case timeType:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q (want RFC 3339)", raw)
		}
		field.Set(reflect.ValueOf(t))
		return nil
	case uuidType:
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid UUID %q", raw)
		}
		field.Set(reflect.ValueOf(id))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)

	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		field.SetBool(v)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(v)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetUint(v)

	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid number %q", raw)
		}
		field.SetFloat(v)

	default:
		return fmt.Errorf("unsupported parameter type %s", field.Type())
	}

	return nil
}
