package devserver

import (
	"net/http"
	"path"
	"strings"
)

// StaticConfig configures static file serving
type StaticConfig struct {
	// APIPrefix excludes paths starting with this prefix from static serving
	APIPrefix string
}

// StaticHandler serves build output from dir. Responses are never cached so
// userscript managers always fetch the latest bundle.
func StaticHandler(dir string, config StaticConfig) http.Handler {
	if config.APIPrefix == "" {
		config.APIPrefix = "/api/"
	}
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, config.APIPrefix) {
			http.NotFound(w, r)
			return
		}

		setContentType(w, r.URL.Path)
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		files.ServeHTTP(w, r)
	})
}

var contentTypes = map[string]string{
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
}

func setContentType(w http.ResponseWriter, p string) {
	if ct, ok := contentTypes[path.Ext(p)]; ok {
		w.Header().Set("Content-Type", ct)
	}
}
