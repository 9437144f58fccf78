package server

import (
	"net/http"
	"strings"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing. Several methods may share a path.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	methods     map[string]map[string]http.Handler
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
		methods:     map[string]map[string]http.Handler{},
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// Middleware must be added before routes are registered.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the specified HTTP method and path.
//
// Requests with any other method get a JSON 405. Middleware runs before the method check so
// CORS preflights and request logging see every request.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	byMethod, ok := r.methods[path]
	if !ok {
		byMethod = map[string]http.Handler{}
		r.methods[path] = byMethod

		methodHandler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			h, ok := byMethod[strings.ToUpper(req.Method)]
			if !ok && req.Method == http.MethodHead {
				h, ok = byMethod[http.MethodGet]
			}
			if !ok {
				w.Header().Set("Allow", allowed(byMethod))
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			h.ServeHTTP(w, req)
		})
		r.mux.Handle(path, r.Apply(methodHandler))
	}
	byMethod[strings.ToUpper(method)] = handler
}

// HandleFunc registers a handler function for the specified HTTP method and path.
func (r *BasicRouter) HandleFunc(method, path string, handler http.HandlerFunc) {
	r.Handle(method, path, handler)
}

// Handler registers a custom Handler implementation.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}

func allowed(byMethod map[string]http.Handler) string {
	methods := make([]string, 0, len(byMethod))
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete} {
		if _, ok := byMethod[m]; ok || (m == http.MethodHead && byMethod[http.MethodGet] != nil) {
			methods = append(methods, m)
		}
	}
	return strings.Join(methods, ", ")
}
