package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Marton0710/Web-Pro/internal/config"
	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/Marton0710/Web-Pro/internal/middleware"
	"github.com/rs/zerolog"
)

// allowedImageExts are the accepted upload extensions. Checked by
// extension only; the content is not sniffed.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// ProfileHandler handles profile viewing, editing and avatar upload.
type ProfileHandler struct {
	repo *db.Repository
	log  zerolog.Logger
	cfg  *config.Config
}

func NewProfileHandler(repo *db.Repository, log zerolog.Logger, cfg *config.Config) *ProfileHandler {
	return &ProfileHandler{repo: repo, log: log, cfg: cfg}
}

// Detail shows any user's profile to any authenticated user.
func (h *ProfileHandler) Detail(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	targetID, err := strconv.Atoi(r.PathValue("userID"))
	if err != nil || targetID <= 0 {
		renderNotFound(w)
		return
	}
	profile, err := h.repo.GetUserByID(targetID)
	if err != nil {
		renderNotFound(w)
		return
	}

	render(w, "user_detail.html", map[string]any{
		"Profile": profile,
		"User":    user,
	})
}

// EditDetail updates sex, email, address and bio. Only the profile
// owner may submit; everyone else is sent home.
func (h *ProfileHandler) EditDetail(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	targetID, err := strconv.Atoi(r.PathValue("userID"))
	if err != nil || targetID != user.ID {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		render(w, "edit_detail.html", map[string]any{"User": user})
	case http.MethodPost:
		sex := r.FormValue("sex")
		email := r.FormValue("email")
		address := r.FormValue("address")
		info := r.FormValue("info")
		if err := h.repo.UpdateUserDetails(user.ID, sex, email, address, info); err != nil {
			h.log.Error().Err(err).Int("user_id", user.ID).Msg("profile update failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/user_detail/"+strconv.Itoa(user.ID), http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// EditAvatar stores an uploaded image under the avatar directory, keyed
// by the uploaded filename, and records the filename on the user row.
func (h *ProfileHandler) EditAvatar(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	targetID, err := strconv.Atoi(r.PathValue("userID"))
	if err != nil || targetID != user.ID {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		render(w, "edit_avatar.html", map[string]any{"User": user})
	case http.MethodPost:
		filename, err := saveUpload(r, "avatar", h.cfg.AvatarDir)
		if err != nil {
			writeFragment(w, "<h1>Only jpg, jpeg, png and gif files are accepted, please <a href='/edit_avatar/"+strconv.Itoa(user.ID)+"'>try again</a></h1>")
			return
		}
		if err := h.repo.UpdateUserAvatar(user.ID, filename); err != nil {
			h.log.Error().Err(err).Int("user_id", user.ID).Msg("avatar update failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		h.log.Info().Int("user_id", user.ID).Str("avatar", filename).Msg("avatar updated")
		http.Redirect(w, r, "/user_detail/"+strconv.Itoa(user.ID), http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// saveUpload validates the extension of the uploaded file and writes it
// into dir under its original filename. Existing files with the same
// name are overwritten.
func saveUpload(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !allowedImageExts[strings.ToLower(filepath.Ext(filename))] {
		return "", os.ErrInvalid
	}

	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return filename, nil
}
