package binding

import (
	"errors"
	"net/http"

	"github.com/StrayDragon/flask-x-openapi-schema-sub001/router"
)

// HandlerFunc adapts a typed handler into an http.HandlerFunc. The input
// struct is bound from the request before the handler runs. Malformed
// requests get a 400 with a JSON error body; requests whose JSON body
// parses but violates its schema get a 422 with per-field details.
func HandlerFunc[I any](fn func(http.ResponseWriter, *http.Request, I)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in I
		if err := Bind(r, &in); err != nil {
			writeBindError(w, err)
			return
		}
		fn(w, r, in)
	}
}

func writeBindError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		router.ResponseJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Code:    "validation_failed",
			Message: "request body does not match schema",
			Details: verr.Details(),
		})
		return
	}

	resp := ErrorResponse{
		Code:    "bad_request",
		Message: err.Error(),
	}
	var berr *Error
	if errors.As(err, &berr) && berr.Field != "" {
		resp.Details = []ErrorDetail{{Field: berr.Field, Message: berr.Err.Error()}}
	}
	router.ResponseJSON(w, http.StatusBadRequest, resp)
}
