package handlers

import (
	"net/http"
	"strconv"

	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/Marton0710/Web-Pro/internal/middleware"
	"github.com/Marton0710/Web-Pro/internal/models"
	"github.com/rs/zerolog"
)

// AdminHandler handles the admin dashboard and the user flag toggles.
type AdminHandler struct {
	repo *db.Repository
	log  zerolog.Logger
}

func NewAdminHandler(repo *db.Repository, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{repo: repo, log: log}
}

// Dashboard lists all users and all photos.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if !user.Has(models.CapAdminister) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	users, err := h.repo.GetAllUsers()
	if err != nil {
		h.log.Error().Err(err).Msg("loading users failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	photos, err := h.repo.GetAllPhotos()
	if err != nil {
		h.log.Error().Err(err).Msg("loading photos failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	render(w, "admit.html", map[string]any{
		"Users":  users,
		"Photos": photos,
		"User":   user,
	})
}

// ToggleBan sets or clears the ban flag on the target user. Flag 0 bans
// the user, 1 lifts the ban, anything else is a no-op.
func (h *AdminHandler) ToggleBan(w http.ResponseWriter, r *http.Request) {
	h.toggleFlag(w, r, "is_banned", func(targetID int, flag string) error {
		switch flag {
		case "0":
			return h.repo.SetUserBanned(targetID, true)
		case "1":
			return h.repo.SetUserBanned(targetID, false)
		}
		return nil
	})
}

// TogglePosting sets or clears the posting permission. Flag 0 disables
// posting, 1 enables it, anything else is a no-op.
func (h *AdminHandler) TogglePosting(w http.ResponseWriter, r *http.Request) {
	h.toggleFlag(w, r, "can_post", func(targetID int, flag string) error {
		switch flag {
		case "0":
			return h.repo.SetUserCanPost(targetID, false)
		case "1":
			return h.repo.SetUserCanPost(targetID, true)
		}
		return nil
	})
}

func (h *AdminHandler) toggleFlag(w http.ResponseWriter, r *http.Request, name string, apply func(int, string) error) {
	user := middleware.UserFrom(r.Context())
	if !user.Has(models.CapAdminister) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	targetID, err := strconv.Atoi(r.PathValue("userID"))
	if err != nil || targetID <= 0 {
		http.Redirect(w, r, "/admit", http.StatusSeeOther)
		return
	}

	flag := r.PathValue("flag")
	if err := apply(targetID, flag); err != nil {
		h.log.Error().Err(err).Int("target_id", targetID).Str("toggle", name).Msg("flag toggle failed")
	} else if flag == "0" || flag == "1" {
		h.log.Info().Int("target_id", targetID).Str("toggle", name).Str("flag", flag).Int("admin_id", user.ID).Msg("flag toggled")
	}
	http.Redirect(w, r, "/admit", http.StatusSeeOther)
}
