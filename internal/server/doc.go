// Package server provides HTTP routing, middleware and handlers for the links service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering. Unmatched methods get a
// JSON 405 after middleware has run, so CORS preflights reach [CORS].
//
// # Routes
//
// [API.Register] mounts the links document (/links.json, /links, /links.m3u), its admin overwrite (/update), the
// artist list (/get_artists, /add_artist, /remove_artist), refresh controls (/process_artists, /trigger_update)
// and status (/health, /api/refreshes).
//
// [StaticHandler] owns "/" and serves the configured static directory, falling back to the embedded player page.
//
// # Errors
//
// Every error reply has the shape {"status":"error","message":"..."}. Only empty or malformed input is reported
// as 400; failures of the catalog or extractor stay inside the refresh result.
package server
