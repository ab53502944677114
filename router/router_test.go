package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPattern(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		wantMethod string
		wantPath   string
	}{
		{name: "method and path", pattern: "GET /pets/{id}", wantMethod: http.MethodGet, wantPath: "/pets/{id}"},
		{name: "path only", pattern: "/pets", wantMethod: "", wantPath: "/pets"},
		{name: "wildcard", pattern: "GET /files/{path...}", wantMethod: http.MethodGet, wantPath: "/files/{path...}"},
		{name: "host pattern", pattern: "GET example.com/pets", wantMethod: http.MethodGet, wantPath: "/pets"},
		{name: "delete", pattern: "DELETE /pets/{id}", wantMethod: http.MethodDelete, wantPath: "/pets/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, path := splitPattern(tt.pattern)
			assert.Equal(t, tt.wantMethod, method)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestRouterDispatch(t *testing.T) {
	r := New()
	r.HandleFunc("GET /pets/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(req.PathValue("id")))
	})

	t.Run("matched route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pets/42", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", rec.Body.String())
	})

	t.Run("unmatched path returns 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong method returns 405", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pets/42", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestRouterRecordsRoutes(t *testing.T) {
	r := New()
	noop := func(http.ResponseWriter, *http.Request) {}

	r.HandleFunc("GET /pets", noop).Name("listPets")
	r.HandleFunc("POST /pets", noop).Name("createPet")
	r.HandleFunc("/health", noop)

	routes := r.Routes()
	require.Len(t, routes, 3)

	assert.Equal(t, http.MethodGet, routes[0].Method())
	assert.Equal(t, "/pets", routes[0].PathTemplate())
	assert.Equal(t, "listPets", routes[0].GetName())

	assert.Equal(t, "", routes[2].Method())
	assert.Equal(t, "/health", routes[2].PathTemplate())

	t.Run("named lookup", func(t *testing.T) {
		assert.Same(t, routes[1], r.Get("createPet"))
		assert.Nil(t, r.Get("missing"))
	})
}

func TestRouterWalk(t *testing.T) {
	r := New()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.HandleFunc("GET /a", noop)
	r.HandleFunc("GET /b", noop)
	r.HandleFunc("GET /c", noop)

	t.Run("visits all routes in order", func(t *testing.T) {
		var paths []string
		err := r.Walk(func(route *Route) error {
			paths = append(paths, route.PathTemplate())
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"/a", "/b", "/c"}, paths)
	})

	t.Run("stops on error", func(t *testing.T) {
		sentinel := errors.New("stop")
		var count int
		err := r.Walk(func(*Route) error {
			count++
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, count)
	})
}

func TestRouterMiddleware(t *testing.T) {
	r := New()
	var order []string

	mw := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, req)
			})
		}
	}

	r.Use(mw("outer"), mw("inner"))
	r.HandleFunc("GET /", func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestResponseJSON(t *testing.T) {
	t.Run("writes body and headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ResponseJSON(rec, http.StatusCreated, map[string]string{"id": "1"})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":"1"}`, rec.Body.String())
	})

	t.Run("encoding failure returns 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ResponseJSON(rec, http.StatusOK, func() {})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestResponseError(t *testing.T) {
	rec := httptest.NewRecorder()
	ResponseError(rec, http.StatusNotFound, "not_found", "no such pet")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":"not_found","message":"no such pet"}`, rec.Body.String())
}
