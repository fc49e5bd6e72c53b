package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const fallbackShell = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>TutorHub</title></head>
<body><div id="root"></div><noscript>TutorHub needs JavaScript.</noscript></body>
</html>
`

// PagesHandler serves the single page app. Client side routing owns every
// page path, so anything that is not a built asset gets index.html.
type PagesHandler struct {
	dir    string
	assets http.Handler
}

func NewPagesHandler(staticDir string) *PagesHandler {
	h := &PagesHandler{dir: staticDir}
	if staticDir != "" {
		h.assets = http.FileServer(http.Dir(staticDir))
	}
	return h
}

func (h *PagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.dir == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fallbackShell))
		return
	}

	if strings.HasPrefix(r.URL.Path, "/assets/") || h.isFile(r.URL.Path) {
		h.assets.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}

func (h *PagesHandler) isFile(urlPath string) bool {
	if urlPath == "/" || !strings.Contains(filepath.Base(urlPath), ".") {
		return false
	}
	fi, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(filepath.Clean("/"+urlPath))))
	return err == nil && !fi.IsDir()
}
