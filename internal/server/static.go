package server

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ytlinks/internal/web"
)

// StaticHandler serves "/" and files under a directory.
//
// The index falls back to the embedded player page when the directory has no index.html.
// Dotfiles, directories and paths passed to [StaticHandler.Hide] are never served.
type StaticHandler struct {
	dir    string
	root   fs.FS
	hidden map[string]bool
}

// NewStaticHandler serves files from dir. An empty dir serves only the index.
func NewStaticHandler(dir string) *StaticHandler {
	h := &StaticHandler{dir: dir, hidden: map[string]bool{}}
	if dir != "" {
		h.root = os.DirFS(dir)
	}
	return h
}

// Hide refuses to serve the given files even when they sit under the static directory.
//
// Paths are compared after resolving them to absolute form; sqlite sidecar files of each path are hidden too.
func (h *StaticHandler) Hide(paths ...string) *StaticHandler {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
			h.hidden[abs+suffix] = true
		}
	}
	return h
}

// Routes implements [Handler].
func (h *StaticHandler) Routes() []string {
	return []string{"/"}
}

// ServeHTTP implements [http.Handler].
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || name == "index.html" {
		if h.isFile("index.html") {
			h.serveFile(w, r, "index.html")
			return
		}
		web.ServeIndex(w, r)
		return
	}

	if hidden(name) || h.private(name) || !h.isFile(name) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	h.serveFile(w, r, name)
}

func (h *StaticHandler) isFile(name string) bool {
	if h.root == nil {
		return false
	}
	info, err := fs.Stat(h.root, name)
	return err == nil && info.Mode().IsRegular()
}

func (h *StaticHandler) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	f, err := h.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to open file")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open file")
		return
	}
	rs, ok := f.(io.ReadSeeker)
	if !ok {
		writeError(w, http.StatusInternalServerError, "file is not seekable")
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), rs)
}

func (h *StaticHandler) private(name string) bool {
	if len(h.hidden) == 0 {
		return false
	}
	abs, err := filepath.Abs(filepath.Join(h.dir, filepath.FromSlash(name)))
	return err != nil || h.hidden[abs]
}

func hidden(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
