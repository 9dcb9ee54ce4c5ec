package handler

import (
	"net/http"
	"os"
	"path/filepath"
)

// SPAHandler serves the built frontend from a directory, falling back to
// index.html for client-side routes.
type SPAHandler struct {
	staticDir  string
	fileServer http.Handler
}

// NewSPAHandler creates a new SPAHandler for the given directory.
func NewSPAHandler(staticDir string) *SPAHandler {
	return &SPAHandler{
		staticDir:  staticDir,
		fileServer: http.FileServer(http.Dir(staticDir)),
	}
}

// ServeHTTP serves the requested file when it exists, index.html otherwise.
func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.staticDir, filepath.Clean("/"+r.URL.Path))

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		// Missing assets are a real 404; anything else is a client-side
		// route handled by the app's router.
		if filepath.Ext(r.URL.Path) != "" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(h.staticDir, "index.html"))
		return
	}

	h.fileServer.ServeHTTP(w, r)
}
