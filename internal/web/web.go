// Package web holds the fallback player page served at "/" when no static directory provides an index.html.
//
// The page fetches /links.json and renders an audio element per track, plus a small form posting to /add_artist
// and a button posting to /trigger_update.
package web

import (
	"bytes"
	_ "embed"
	"net/http"
	"time"
)

//go:embed index.html
var index []byte

var built = time.Now()

// Index returns the embedded page.
func Index() []byte {
	return index
}

// ServeIndex writes the embedded page, honouring conditional and range requests.
func ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", built, bytes.NewReader(index))
}
