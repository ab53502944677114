// Package router provides a small recording router on top of net/http's
// ServeMux. Routes registered through it keep their method, path template
// and optional name, so the openapi package can walk them at document build
// time. Request matching and path variable extraction are delegated to
// ServeMux pattern routing; variables are read with http.Request.PathValue.
package router

import (
	"net/http"
	"strings"
	"sync"
)

// MiddlewareFunc is a function which receives an http.Handler and returns
// another http.Handler. It can be used to wrap handlers with additional
// behavior such as request IDs, recovery or language negotiation.
type MiddlewareFunc func(http.Handler) http.Handler

// WalkFunc is the type of the function called for each route visited by Walk.
type WalkFunc func(route *Route) error

// Router registers routes to be matched and dispatches a handler.
//
// It implements the http.Handler interface, so it can be registered to serve
// requests:
//
//	r := router.New()
//	r.HandleFunc("GET /pets/{id}", getPet)
//	http.ListenAndServe(":8080", r)
type Router struct {
	// NotFoundHandler is invoked via the inner ServeMux default behavior;
	// ServeMux replies 404 for unmatched paths and 405 with an Allow header
	// for matched paths with the wrong method.

	mux    *http.ServeMux
	routes []*Route
	named  map[string]*Route

	middlewares []MiddlewareFunc

	// chain is the middleware-wrapped mux, built on first request.
	chainOnce sync.Once
	chain     http.Handler
}

// Route stores a single registered route: its method, path template, name
// and handler.
type Route struct {
	method  string
	path    string
	name    string
	handler http.Handler
	router  *Router
}

// New returns a new router instance.
func New() *Router {
	return &Router{
		mux:   http.NewServeMux(),
		named: make(map[string]*Route),
	}
}

// ServeHTTP dispatches the handler registered in the matched route.
// The middleware chain is composed once, on the first request; Use calls
// after serving has started are ignored.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.chainOnce.Do(func() {
		var h http.Handler = r.mux
		for i := len(r.middlewares) - 1; i >= 0; i-- {
			h = r.middlewares[i](h)
		}
		r.chain = h
	})
	r.chain.ServeHTTP(w, req)
}

// Use appends middleware to the chain. Middleware wraps every request,
// including unmatched ones, mirroring how the host ServeMux is normally
// wrapped. Must be called before the first request is served.
func (r *Router) Use(mwf ...MiddlewareFunc) {
	r.middlewares = append(r.middlewares, mwf...)
}

// Handle registers a handler for the given ServeMux pattern. The pattern
// may carry a leading HTTP method ("GET /pets/{id}") or apply to all
// methods ("/pets/{id}"). The returned Route records the split method and
// path template for document generation.
//
// Registration rules (conflicts, duplicate patterns) are ServeMux's own;
// an invalid or duplicate pattern panics at registration time.
func (r *Router) Handle(pattern string, handler http.Handler) *Route {
	method, path := splitPattern(pattern)
	route := &Route{
		method:  method,
		path:    path,
		handler: handler,
		router:  r,
	}
	r.routes = append(r.routes, route)
	r.mux.Handle(pattern, handler)
	return route
}

// HandleFunc registers a handler function for the given ServeMux pattern.
func (r *Router) HandleFunc(pattern string, f func(http.ResponseWriter, *http.Request)) *Route {
	return r.Handle(pattern, http.HandlerFunc(f))
}

// Routes returns all registered routes in registration order.
func (r *Router) Routes() []*Route {
	out := make([]*Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Get returns a route registered with the given name, or nil.
func (r *Router) Get(name string) *Route {
	return r.named[name]
}

// Walk calls walkFn for each registered route in registration order.
// Returning a non-nil error stops the walk and propagates the error.
func (r *Router) Walk(walkFn WalkFunc) error {
	for _, route := range r.routes {
		if err := walkFn(route); err != nil {
			return err
		}
	}
	return nil
}

// Name sets the route name. Named routes can be looked up on the router
// and are used as default OpenAPI operation IDs.
func (rt *Route) Name(name string) *Route {
	rt.name = name
	rt.router.named[name] = rt
	return rt
}

// GetName returns the route name, which may be empty.
func (rt *Route) GetName() string {
	return rt.name
}

// Method returns the HTTP method the route is constrained to, or the empty
// string when the route matches all methods.
func (rt *Route) Method() string {
	return rt.method
}

// PathTemplate returns the ServeMux path template the route was registered
// with (host and method prefix stripped), e.g. "/pets/{id}".
func (rt *Route) PathTemplate() string {
	return rt.path
}

// Handler returns the handler registered for the route.
func (rt *Route) Handler() http.Handler {
	return rt.handler
}

// splitPattern splits a ServeMux pattern into its method and path parts.
// Patterns are "[METHOD ][HOST]/path"; the optional host is kept out of the
// path template since OpenAPI paths are host-relative.
func splitPattern(pattern string) (method, path string) {
	path = pattern
	if first, rest, ok := strings.Cut(pattern, " "); ok && isMethod(first) {
		method = first
		path = strings.TrimLeft(rest, " ")
	}
	if idx := strings.IndexByte(path, '/'); idx > 0 {
		// Strip the host prefix.
		path = path[idx:]
	}
	return method, path
}

// isMethod reports whether s looks like an HTTP method token.
func isMethod(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
