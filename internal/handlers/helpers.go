package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/Marton0710/Web-Pro/internal/middleware"
	"github.com/Marton0710/Web-Pro/internal/models"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// render writes a full page. Template names are the file base names.
// The page is rendered into a buffer first so a failure can still
// answer with a clean 500 instead of a truncated 200.
func render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("template rendering failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// writeFragment writes a raw inline HTML fragment. Registration and
// login failures answer with these instead of templated pages.
func writeFragment(w http.ResponseWriter, markup string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, markup)
}

// renderNotFound serves the dedicated not-found page.
func renderNotFound(w http.ResponseWriter) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "404.html", nil); err != nil {
		log.Error().Err(err).Msg("template rendering failed")
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	buf.WriteTo(w)
}

// currentUser resolves the session cookie on routes that are not behind
// RequireUser, so public pages can still show who is logged in.
func currentUser(repo *db.Repository, r *http.Request) *models.User {
	return middleware.ResolveUser(repo, r)
}
