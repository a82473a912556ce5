package http

import (
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Frontend serves the learner and instructor pages. Static files are looked
// up in each root in order; the first hit wins.
type Frontend struct {
	Dir         string
	StaticRoots []string
}

func MountFrontend(r chi.Router, fe Frontend) {
	r.Get("/", fe.page("index.html"))
	r.Get("/index-simple", fe.page("index-simple.html"))
	r.Get("/dashboard", fe.page("dashboard.html"))

	// GET /static/*  -> first root holding the path
	r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
		sub := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if root, ok := fe.find(sub); ok {
			http.ServeFileFS(w, r, os.DirFS(root), sub)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "static file not found: " + sub})
	})

	favicon := func(w http.ResponseWriter, r *http.Request) {
		for _, name := range []string{"favicon.svg", "favicon.ico"} {
			if root, ok := fe.find(name); ok {
				http.ServeFileFS(w, r, os.DirFS(root), name)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
	r.Get("/favicon.ico", favicon)
	r.Get("/favicon.svg", favicon)
}

func (fe Frontend) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if isFile(filepath.Join(fe.Dir, name)) {
			http.ServeFileFS(w, r, os.DirFS(fe.Dir), name)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": name + " not found"})
	}
}

func (fe Frontend) find(sub string) (string, bool) {
	if !fs.ValidPath(sub) || sub == "." {
		return "", false
	}
	for _, root := range fe.StaticRoots {
		if isFile(filepath.Join(root, filepath.FromSlash(sub))) {
			return root, true
		}
	}
	return "", false
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
