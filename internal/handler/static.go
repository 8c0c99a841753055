package handler

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// pages maps page routes to their HTML file under STATIC_DIR/views.
var pages = map[string]string{
	"/":       "login.html",
	"/login":  "login.html",
	"/signup": "signup.html",
	"/chat":   "chat.html",
	"/rooms":  "rooms.html",
}

// mountStatic serves the HTML pages and the asset tree of staticDir.
func mountStatic(r chi.Router, staticDir string) {
	for route, file := range pages {
		page := filepath.Join(staticDir, "views", file)
		r.Get(route, func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, page)
		})
	}

	assets := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
	r.Get("/static/*", assets.ServeHTTP)
}
