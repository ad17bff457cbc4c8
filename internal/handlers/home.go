package handlers

import (
	"net/http"

	"github.com/Marton0710/Web-Pro/internal/config"
	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/rs/zerolog"
)

// HomeHandler handles the public pages: home, about and not-found.
type HomeHandler struct {
	repo *db.Repository
	log  zerolog.Logger
	cfg  *config.Config
}

func NewHomeHandler(repo *db.Repository, log zerolog.Logger, cfg *config.Config) *HomeHandler {
	return &HomeHandler{repo: repo, log: log, cfg: cfg}
}

// Index features one random gallery photo, or the configured default
// image when no photos exist.
func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	address := h.cfg.DefaultHomeImage
	if photo, err := h.repo.GetRandomPhoto(); err == nil {
		address = photo.Address
	}

	render(w, "index.html", map[string]any{
		"PhotoAddress": address,
		"User":         currentUser(h.repo, r),
	})
}

// About renders the static about page.
func (h *HomeHandler) About(w http.ResponseWriter, r *http.Request) {
	render(w, "about.html", map[string]any{"User": currentUser(h.repo, r)})
}

// NotFound serves the dedicated 404 page for unmatched paths.
func (h *HomeHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderNotFound(w)
}
