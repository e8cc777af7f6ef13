package api

import (
	"embed"
	"net/http"
)

// staticFS holds the browser dashboard. It only talks to the JSON routes.
//
//go:embed static
var staticFS embed.FS

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFileFS(w, r, staticFS, "static/index.html")
}
