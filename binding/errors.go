package binding

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Error reports a failure to bind one part of the request. Source names
// where the value came from: "body", "query", "form", "path", or "file".
type Error struct {
	Source string
	Field  string
	Err    error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("bind %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("bind %s parameter %q: %v", e.Source, e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError reports that a request body parsed as JSON but violated
// its schema. It wraps the underlying jsonschema error and exposes
// per-field details suitable for an error response.
type ValidationError struct {
	cause *jsonschema.ValidationError
}

func (e *ValidationError) Error() string {
	return "request body does not match schema: " + e.cause.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Details flattens the violation tree into one entry per leaf cause.
func (e *ValidationError) Details() []ErrorDetail {
	var details []ErrorDetail
	collectCauses(e.cause, &details)
	return details
}

func collectCauses(err *jsonschema.ValidationError, details *[]ErrorDetail) {
	if len(err.Causes) == 0 {
		*details = append(*details, ErrorDetail{
			Field:   instanceField(err.InstanceLocation),
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectCauses(cause, details)
	}
}

// instanceField converts a JSON pointer instance location to a dotted
// field path ("/pet/name" -> "pet.name").
func instanceField(location string) string {
	return strings.ReplaceAll(strings.TrimPrefix(location, "/"), "/", ".")
}

// ErrorDetail pins an error message to the field that caused it.
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON error body written by bound handlers when a
// request fails to bind or validate.
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}
