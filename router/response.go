package router

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// ResponseJSON encodes v as JSON and writes it to the response with the given
// status code. The Content-Type header is set to "application/json".
// If encoding fails, an HTTP 500 Internal Server Error is written instead.
func ResponseJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}

// ResponseError writes a JSON error body with a machine-readable code and a
// human-readable message:
//
//	{"code": "not_found", "message": "no such pet"}
func ResponseError(w http.ResponseWriter, statusCode int, code, message string) {
	ResponseJSON(w, statusCode, map[string]string{
		"code":    code,
		"message": message,
	})
}
