package handler

import (
	"net/http"
	"os"
	"path/filepath"
)

// PageHandler serves one HTML page from the static directory.
type PageHandler struct {
	path string
}

func NewPageHandler(staticDir, name string) *PageHandler {
	return &PageHandler{path: filepath.Join(staticDir, name)}
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	info, err := os.Stat(h.path)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, h.path)
}

// AssetServer serves the remaining files under staticDir, never directory
// listings.
func AssetServer(staticDir string) http.Handler {
	fs := http.FileServer(http.Dir(staticDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := os.Stat(filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path)))
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
