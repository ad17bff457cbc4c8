package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Marton0710/Web-Pro/internal/config"
	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/Marton0710/Web-Pro/internal/middleware"
	"github.com/Marton0710/Web-Pro/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// defaultInfo is the bio placeholder for freshly registered users.
const defaultInfo = "Come introduce yourself..."

type AuthHandler struct {
	repo *db.Repository
	log  zerolog.Logger
	cfg  *config.Config
}

func NewAuthHandler(repo *db.Repository, log zerolog.Logger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{repo: repo, log: log, cfg: cfg}
}

// Register handles the registration form. A taken username or a
// password/confirmation mismatch answers with an inline fragment, not a
// redirect.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		render(w, "register.html", map[string]any{"User": currentUser(h.repo, r)})
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	checkPassword := r.FormValue("checkPassword")
	sex := r.FormValue("sex")

	if username == "" || password == "" {
		writeFragment(w, "<h1>Username and password are required, please <a href='/register'>register</a> again</h1>")
		return
	}
	if _, err := h.repo.GetUserByUsername(username); err == nil {
		writeFragment(w, "<h1>That username is already registered, please <a href='/register'>register</a> again</h1>")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.log.Error().Err(err).Str("username", username).Msg("username lookup failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if password != checkPassword {
		writeFragment(w, "<h1>Passwords do not match, please <a href='/register'>register</a> again</h1>")
		return
	}

	stored := password
	if h.cfg.HashPasswords {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			h.log.Error().Err(err).Msg("password hashing failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		stored = string(hash)
	}

	user := &models.User{
		Username: username,
		Password: stored,
		Sex:      sex,
		Email:    "none",
		Address:  "none",
		Info:     defaultInfo,
		CanPost:  true,
	}
	if err := h.repo.CreateUser(user); err != nil {
		// Lost a concurrent registration race for the same name.
		h.log.Warn().Err(err).Str("username", username).Msg("user insert failed")
		writeFragment(w, "<h1>That username is already registered, please <a href='/register'>register</a> again</h1>")
		return
	}

	h.log.Info().Int("user_id", user.ID).Str("username", username).Msg("user registered")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Login handles the login form. The three failure modes (unknown
// username, banned account, wrong password) each answer with their own
// inline fragment; a banned account is refused before the password is
// even looked at.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		render(w, "login.html", map[string]any{"User": currentUser(h.repo, r)})
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.repo.GetUserByUsername(username)
	if err != nil {
		writeFragment(w, "<h1>Unknown username, please <a href='/login'>log in</a> again</h1>")
		return
	}
	if user.IsBanned {
		writeFragment(w, "<h1>This account is banned; ask an administrator to lift the ban</h1>")
		return
	}
	if !h.passwordMatches(user, password) {
		writeFragment(w, "<h1>Wrong password, please <a href='/login'>log in</a> again</h1>")
		return
	}

	sessionID := uuid.NewString()
	expires := time.Now().Add(time.Duration(h.cfg.SessionDays) * 24 * time.Hour)
	session := &models.Session{
		SessionID: sessionID,
		UserID:    user.ID,
		Expires:   expires,
	}
	if err := h.repo.CreateSession(session); err != nil {
		h.log.Error().Err(err).Int("user_id", user.ID).Msg("session creation failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
	})

	h.log.Info().Int("user_id", user.ID).Str("username", username).Msg("user logged in")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) passwordMatches(user *models.User, password string) bool {
	if h.cfg.HashPasswords {
		return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
	}
	return user.Password == password
}

// Logout deletes the session row and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err == nil {
		if err := h.repo.DeleteSession(cookie.Value); err != nil {
			h.log.Error().Err(err).Msg("session deletion failed")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:   middleware.SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
