package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/StrayDragon/flask-x-openapi-schema-sub001/i18n"
	"github.com/StrayDragon/flask-x-openapi-schema-sub001/router"
)

func newHandleFixture(t *testing.T) (*router.Router, *Spec) {
	t.Helper()

	r := router.New()
	r.HandleFunc("GET /pets", noopHandler).Name("listPets")

	spec := NewSpec(Info{Title: "Petstore", Version: "1.0.0"})
	spec.Op("listPets").
		Summary("List pets").
		Response(http.StatusOK, []pet{})

	return r, spec
}

func TestHandleDefaults(t *testing.T) {
	r, spec := newHandleFixture(t)
	spec.Handle(r, "/swagger", nil)

	t.Run("json document", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/schema.json", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var doc Document
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, Version, doc.OpenAPI)
		assert.Contains(t, doc.Paths, "/pets")
	})

	t.Run("yaml document", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/schema.yaml", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))

		var doc map[string]any
		require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, Version, doc["openapi"])
	})

	t.Run("docs ui", func(t *testing.T) {
		for _, path := range []string{"/swagger", "/swagger/"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusOK, rec.Code, path)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "swagger-ui")
			assert.Contains(t, rec.Body.String(), "/swagger/schema.json")
		}
	})
}

func TestHandleDisabledEndpoints(t *testing.T) {
	r, spec := newHandleFixture(t)
	spec.Handle(r, "/docs", &HandleConfig{
		YAMLFilename: "-",
		DisableDocs:  true,
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/schema.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/schema.yaml", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAbsoluteFilename(t *testing.T) {
	r, spec := newHandleFixture(t)
	spec.Handle(r, "/swagger", &HandleConfig{
		JSONFilename: "/api/v1/swagger.json",
		YAMLFilename: "-",
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/swagger.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// The docs UI points at the absolute document path.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/swagger.json")
}

func TestHandleAlternativeUIs(t *testing.T) {
	tests := []struct {
		name string
		ui   DocsUI
		want string
	}{
		{"rapidoc", DocsRapiDoc, "<rapi-doc"},
		{"redoc", DocsRedoc, "<redoc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, spec := newHandleFixture(t)
			spec.Handle(r, "/docs", &HandleConfig{UI: tt.ui})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestHandleSwaggerUIConfig(t *testing.T) {
	r, spec := newHandleFixture(t)
	spec.Handle(r, "/docs", &HandleConfig{
		Title:           "Pets & Friends",
		SwaggerUIConfig: map[string]any{"docExpansion": "none", "deepLinking": true},
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Pets &amp; Friends")
	assert.Contains(t, body, `deepLinking: true`)
	assert.Contains(t, body, `docExpansion: "none"`)
}

func TestHandleLanguageSelection(t *testing.T) {
	t.Cleanup(i18n.Reset)
	i18n.Register(language.English, map[string]string{
		"pets.list": "List pets",
	})
	i18n.Register(language.SimplifiedChinese, map[string]string{
		"pets.list": "列出宠物",
	})

	r := router.New()
	r.HandleFunc("GET /pets", noopHandler).Name("listPets")

	spec := NewSpec(Info{Title: "Petstore", Version: "1.0.0"})
	spec.Op("listPets").
		SummaryLocalized(i18n.String{
			"en":      "List pets",
			"zh-Hans": "列出宠物",
		}).
		Response(http.StatusOK, nil)
	spec.Handle(r, "/swagger", nil)

	fetch := func(target string, header http.Header) string {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, target)
		return rec.Body.String()
	}

	t.Run("query parameter", func(t *testing.T) {
		body := fetch("/swagger/schema.json?lang=zh-Hans", nil)
		assert.Contains(t, body, "列出宠物")
	})

	t.Run("accept language header", func(t *testing.T) {
		body := fetch("/swagger/schema.json", http.Header{
			"Accept-Language": {"zh-CN,zh;q=0.9,en;q=0.8"},
		})
		assert.Contains(t, body, "列出宠物")
	})

	t.Run("default language", func(t *testing.T) {
		body := fetch("/swagger/schema.json", nil)
		assert.Contains(t, body, "List pets")
		assert.False(t, strings.Contains(body, "列出宠物"))
	})
}
