package handlers

import (
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/Marton0710/Web-Pro/internal/config"
	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/Marton0710/Web-Pro/internal/middleware"
	"github.com/Marton0710/Web-Pro/internal/models"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// PhotoHandler handles the admin gallery: photo upload and deletion.
type PhotoHandler struct {
	repo *db.Repository
	log  zerolog.Logger
	cfg  *config.Config
}

func NewPhotoHandler(repo *db.Repository, log zerolog.Logger, cfg *config.Config) *PhotoHandler {
	return &PhotoHandler{repo: repo, log: log, cfg: cfg}
}

// Upload stores an image under the photo directory and inserts a row
// pointing at its public path. A duplicate address is discarded
// silently: the admin lands back on the upload form either way.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if !user.Has(models.CapAdminister) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		render(w, "uploads_photo.html", map[string]any{"User": user})
	case http.MethodPost:
		filename, err := saveUpload(r, "photo", h.cfg.PhotoDir)
		if err != nil {
			writeFragment(w, "<h1>Only jpg, jpeg, png and gif files are accepted, please <a href='/uploads_photo'>try again</a></h1>")
			return
		}

		address := "/static/photo/" + filename
		if err := h.repo.CreatePhoto(address); err != nil {
			// The file write and the insert are not atomic: on a
			// duplicate address the row is discarded but the freshly
			// written file stays behind.
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
				h.log.Warn().Str("address", address).Msg("duplicate photo address discarded")
			} else {
				h.log.Error().Err(err).Str("address", address).Msg("photo insert failed")
			}
		} else {
			h.log.Info().Str("address", address).Int("user_id", user.ID).Msg("photo uploaded")
		}
		http.Redirect(w, r, "/uploads_photo", http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Delete removes the photo row and then the backing file. Failures on
// either step are logged and swallowed; the admin is redirected to the
// dashboard regardless of outcome.
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if !user.Has(models.CapAdminister) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	photoID, err := strconv.Atoi(r.PathValue("photoID"))
	if err != nil || photoID <= 0 {
		http.Redirect(w, r, "/admit", http.StatusSeeOther)
		return
	}

	photo, err := h.repo.GetPhotoByID(photoID)
	if err != nil {
		http.Redirect(w, r, "/admit", http.StatusSeeOther)
		return
	}
	if err := h.repo.DeletePhoto(photoID); err != nil {
		h.log.Error().Err(err).Int("photo_id", photoID).Msg("photo row deletion failed")
		http.Redirect(w, r, "/admit", http.StatusSeeOther)
		return
	}
	if err := os.Remove(filepath.Join(h.cfg.PhotoDir, path.Base(photo.Address))); err != nil {
		h.log.Warn().Err(err).Str("address", photo.Address).Msg("photo file removal failed")
	}

	h.log.Info().Int("photo_id", photoID).Int("user_id", user.ID).Msg("photo deleted")
	http.Redirect(w, r, "/admit", http.StatusSeeOther)
}
