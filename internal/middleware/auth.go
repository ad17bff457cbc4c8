package middleware

import (
	"context"
	"net/http"

	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/Marton0710/Web-Pro/internal/models"
)

// SessionCookie is the name of the session token cookie.
const SessionCookie = "session_id"

type contextKey struct{}

var userKey contextKey

// RequireUser resolves the session cookie to a user and stores the user
// in the request context. Requests without a live session, or whose
// user row no longer exists, are redirected to the login page.
func RequireUser(repo *db.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := ResolveUser(repo, r)
			if user == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolveUser returns the user behind the request's session cookie, or
// nil when the request is unauthenticated.
func ResolveUser(repo *db.Repository, r *http.Request) *models.User {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	session, err := repo.GetSession(cookie.Value)
	if err != nil {
		return nil
	}
	user, err := repo.GetUserByID(session.UserID)
	if err != nil {
		return nil
	}
	return user
}

// UserFrom returns the user placed in the context by RequireUser.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
