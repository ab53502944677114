package binding

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrayDragon/flask-x-openapi-schema-sub001/openapi"
	"github.com/StrayDragon/flask-x-openapi-schema-sub001/router"
)

type listQuery struct {
	Limit int      `json:"limit,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

type listPetsInput struct {
	PathOwnerID uuid.UUID
	Query       listQuery
}

type petBody struct {
	Name string `json:"name"`
	Age  int    `json:"age,omitempty" openapi:"minimum=0"`
}

type createPetInput struct {
	PathOwnerID uuid.UUID
	Body        petBody
}

// bindVia routes the request through a mux so path values resolve.
func bindVia(t *testing.T, pattern string, req *http.Request, v any) error {
	t.Helper()

	var bindErr error
	r := router.New()
	r.HandleFunc(pattern, func(_ http.ResponseWriter, req *http.Request) {
		bindErr = Bind(req, v)
	})
	r.ServeHTTP(httptest.NewRecorder(), req)
	return bindErr
}

func TestBindPathAndQuery(t *testing.T) {
	ownerID := uuid.New()
	target := fmt.Sprintf("/owners/%s/pets?limit=10&tags=cat&tags=dog", ownerID)
	req := httptest.NewRequest(http.MethodGet, target, nil)

	var in listPetsInput
	require.NoError(t, bindVia(t, "GET /owners/{owner_id}/pets", req, &in))

	assert.Equal(t, ownerID, in.PathOwnerID)
	assert.Equal(t, 10, in.Query.Limit)
	assert.Equal(t, []string{"cat", "dog"}, in.Query.Tags)
}

func TestBindQueryErrors(t *testing.T) {
	type strictQuery struct {
		Limit  int  `json:"limit,omitempty"`
		Strict bool `json:"strict"`
	}
	type input struct {
		Query strictQuery
	}

	t.Run("missing required", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/pets?limit=5", nil)

		var in input
		err := bindVia(t, "GET /pets", req, &in)
		var berr *Error
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "query", berr.Source)
		assert.Equal(t, "strict", berr.Field)
	})

	t.Run("invalid integer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/pets?limit=lots&strict=true", nil)

		var in input
		err := bindVia(t, "GET /pets", req, &in)
		var berr *Error
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "limit", berr.Field)
	})

	t.Run("invalid path uuid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/owners/not-a-uuid/pets", nil)

		var in listPetsInput
		err := bindVia(t, "GET /owners/{owner_id}/pets", req, &in)
		var berr *Error
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "path", berr.Source)
		assert.Equal(t, "owner_id", berr.Field)
	})
}

func TestBindJSONBody(t *testing.T) {
	ownerID := uuid.New()
	pattern := "POST /owners/{owner_id}/pets"
	target := "/owners/" + ownerID.String() + "/pets"

	post := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("valid body", func(t *testing.T) {
		var in createPetInput
		require.NoError(t, bindVia(t, pattern, post(`{"name": "Rex", "age": 3}`), &in))
		assert.Equal(t, "Rex", in.Body.Name)
		assert.Equal(t, 3, in.Body.Age)
	})

	t.Run("missing required property", func(t *testing.T) {
		var in createPetInput
		err := bindVia(t, pattern, post(`{"age": 3}`), &in)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		details := verr.Details()
		require.NotEmpty(t, details)
		assert.Contains(t, details[0].Message, "name")
	})

	t.Run("constraint violation", func(t *testing.T) {
		var in createPetInput
		err := bindVia(t, pattern, post(`{"name": "Rex", "age": -1}`), &in)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		details := verr.Details()
		require.NotEmpty(t, details)
		assert.Equal(t, "age", details[0].Field)
	})

	t.Run("wrong property type", func(t *testing.T) {
		var in createPetInput
		err := bindVia(t, pattern, post(`{"name": "Rex", "age": "three"}`), &in)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("unknown field", func(t *testing.T) {
		var in createPetInput
		err := bindVia(t, pattern, post(`{"name": "Rex", "color": "brown"}`), &in)

		var berr *Error
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "body", berr.Source)
	})

	t.Run("trailing data", func(t *testing.T) {
		var in createPetInput
		err := bindVia(t, pattern, post(`{"name": "Rex"} {"name": "Fido"}`), &in)

		var berr *Error
		require.ErrorAs(t, err, &berr)
		assert.Contains(t, berr.Err.Error(), "trailing")
	})

	t.Run("malformed json", func(t *testing.T) {
		var in createPetInput
		err := bindVia(t, pattern, post(`{"name": `), &in)

		var berr *Error
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "body", berr.Source)
	})

	t.Run("empty body required", func(t *testing.T) {
		var in createPetInput
		err := bindVia(t, pattern, post(""), &in)

		var berr *Error
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "body", berr.Source)
	})
}

func TestBindOptionalBody(t *testing.T) {
	type input struct {
		Body *petBody
	}

	t.Run("absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(""))

		var in input
		require.NoError(t, bindVia(t, "POST /pets", req, &in))
		assert.Nil(t, in.Body)
	})

	t.Run("present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(`{"name": "Rex"}`))

		var in input
		require.NoError(t, bindVia(t, "POST /pets", req, &in))
		require.NotNil(t, in.Body)
		assert.Equal(t, "Rex", in.Body.Name)
	})
}

func TestBindForm(t *testing.T) {
	type loginForm struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Remember bool   `json:"remember,omitempty"`
	}
	type input struct {
		Form loginForm
	}

	form := url.Values{
		"username": {"alice"},
		"password": {"s3cret"},
		"remember": {"true"},
	}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var in input
	require.NoError(t, bindVia(t, "POST /login", req, &in))
	assert.Equal(t, "alice", in.Form.Username)
	assert.Equal(t, "s3cret", in.Form.Password)
	assert.True(t, in.Form.Remember)
}

// multipartBody builds a multipart request body. File parts carry an
// explicit content type so accept rules see the real value.
type filePart struct {
	field, filename, contentType, data string
}

func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestBindMultipartFile(t *testing.T) {
	type captionForm struct {
		Caption string `json:"caption,omitempty"`
	}
	type input struct {
		Form       captionForm
		FileAvatar openapi.ImageFile
	}

	t.Run("accepted upload", func(t *testing.T) {
		body, contentType := multipartBody(t,
			map[string]string{"caption": "new avatar"},
			filePart{"avatar", "me.png", "image/png", "\x89PNG"},
		)
		req := httptest.NewRequest(http.MethodPost, "/avatar", body)
		req.Header.Set("Content-Type", contentType)

		var in input
		require.NoError(t, bindVia(t, "POST /avatar", req, &in))
		assert.Equal(t, "new avatar", in.Form.Caption)
		assert.Equal(t, "me.png", in.FileAvatar.Filename)
		assert.Equal(t, "image/png", in.FileAvatar.ContentType)
		assert.Equal(t, int64(4), in.FileAvatar.Size)

		f, err := in.FileAvatar.Open()
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "\x89PNG", string(data))
	})

	t.Run("rejected extension", func(t *testing.T) {
		body, contentType := multipartBody(t, nil,
			filePart{"avatar", "notes.txt", "text/plain", "hello"},
		)
		req := httptest.NewRequest(http.MethodPost, "/avatar", body)
		req.Header.Set("Content-Type", contentType)

		var in input
		err := bindVia(t, "POST /avatar", req, &in)
		var berr *Error
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "file", berr.Source)
		assert.Equal(t, "avatar", berr.Field)
	})

	t.Run("missing file", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"caption": "no file"})
		req := httptest.NewRequest(http.MethodPost, "/avatar", body)
		req.Header.Set("Content-Type", contentType)

		var in input
		err := bindVia(t, "POST /avatar", req, &in)
		var berr *Error
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "file", berr.Source)
	})
}

func TestBindMultipartBody(t *testing.T) {
	type uploadMeta struct {
		Name  string `json:"name"`
		Count int    `json:"count,omitempty"`
	}
	type input struct {
		Body     uploadMeta
		FileData openapi.File
	}

	t.Run("body parts typed by sniffing", func(t *testing.T) {
		body, contentType := multipartBody(t,
			map[string]string{"name": "report", "count": "3"},
			filePart{"data", "report.csv", "text/csv", "a,b\n"},
		)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)

		var in input
		require.NoError(t, bindVia(t, "POST /upload", req, &in))
		assert.Equal(t, "report", in.Body.Name)
		assert.Equal(t, 3, in.Body.Count)
	})

	t.Run("missing required body part", func(t *testing.T) {
		body, contentType := multipartBody(t,
			map[string]string{"count": "3"},
			filePart{"data", "report.csv", "text/csv", "a,b\n"},
		)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)

		var in input
		err := bindVia(t, "POST /upload", req, &in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestBindMultipartOptionalBody(t *testing.T) {
	type uploadMeta struct {
		Name string `json:"name"`
	}
	type input struct {
		Body     *uploadMeta
		FileData openapi.File
	}

	t.Run("absent body parts stay nil", func(t *testing.T) {
		body, contentType := multipartBody(t, nil,
			filePart{"data", "report.csv", "text/csv", "a,b\n"},
		)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)

		var in input
		require.NoError(t, bindVia(t, "POST /upload", req, &in))
		assert.Nil(t, in.Body)
		assert.Equal(t, "report.csv", in.FileData.Filename)
	})

	t.Run("present body parts still validate", func(t *testing.T) {
		body, contentType := multipartBody(t,
			map[string]string{"name": "42"},
			filePart{"data", "report.csv", "text/csv", "a,b\n"},
		)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)

		var in input
		err := bindVia(t, "POST /upload", req, &in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestBindTargetErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/pets", nil)

	var in listPetsInput
	assert.Error(t, Bind(req, in))  // not a pointer
	assert.Error(t, Bind(req, nil)) // nil target
}

func TestHandlerFunc(t *testing.T) {
	pattern := "POST /owners/{owner_id}/pets"
	ownerID := uuid.New()
	target := "/owners/" + ownerID.String() + "/pets"

	r := router.New()
	r.HandleFunc(pattern, HandlerFunc(func(w http.ResponseWriter, _ *http.Request, in createPetInput) {
		router.ResponseJSON(w, http.StatusCreated, map[string]any{
			"owner": in.PathOwnerID,
			"name":  in.Body.Name,
		})
	}))

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("success", func(t *testing.T) {
		rec := post(`{"name": "Rex"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "Rex")
	})

	t.Run("schema violation gets 422", func(t *testing.T) {
		rec := post(`{"age": 3}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "validation_failed")
	})

	t.Run("malformed body gets 400", func(t *testing.T) {
		rec := post(`{"name": `)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "bad_request")
	})
}
