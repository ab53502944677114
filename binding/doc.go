// Package binding fills request input structs from incoming HTTP requests.
//
// An input struct declares where each value comes from through its field
// names, following the same conventions the openapi package uses for
// document generation:
//
//	type createPetInput struct {
//	    PathOwnerID uuid.UUID         // path parameter "owner_id"
//	    Query       listQuery         // struct of query parameters
//	    Body        createPetBody     // JSON request body
//	    FileAvatar  openapi.ImageFile // multipart file part "avatar"
//	}
//
// Bind resolves path parameters via Request.PathValue, query and form
// parameters from their string forms (string, bool, integers, floats,
// time.Time in RFC 3339, uuid.UUID, and slices of these for repeated
// keys), and file parts from the parsed multipart form.
//
// JSON bodies are checked against the schema generated for the Body type
// before decoding, so schema constraints declared in openapi struct tags
// (minimum, pattern, enum, ...) hold at runtime. Decoding is strict:
// unknown fields and trailing data are rejected.
//
// HandlerFunc wraps a typed handler so binding failures turn into JSON
// error responses automatically:
//
//	r.Handle("POST /pets/{owner_id}", binding.HandlerFunc(
//	    func(w http.ResponseWriter, r *http.Request, in createPetInput) {
//	        // in is fully populated and validated here
//	    },
//	))
package binding
