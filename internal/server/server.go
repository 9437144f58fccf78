// package server contains the router, middleware and handlers for the links web service
package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that owns a set of route patterns.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// NewHandler assembles the API and static routes behind logging, panic recovery and CORS middleware.
func NewHandler(api *API, static *StaticHandler, logger *log.Logger, origins []string) *BasicRouter {
	r := NewBasicRouter()
	r.Use(Logging(logger), Recovery(logger), CORS(origins))
	api.Register(r)
	r.Handler(static)
	return r
}
