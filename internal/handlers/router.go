package handlers

import (
	"net/http"

	"github.com/Marton0710/Web-Pro/internal/config"
	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/Marton0710/Web-Pro/internal/middleware"
	"github.com/rs/zerolog"
)

// NewRouter wires every route to its handler. Protected routes run
// behind the session middleware; public ones resolve the user lazily.
func NewRouter(repo *db.Repository, logger zerolog.Logger, cfg *config.Config) http.Handler {
	authHandler := NewAuthHandler(repo, logger, cfg)
	postHandler := NewPostHandler(repo, logger)
	commentHandler := NewCommentHandler(repo, logger, cfg)
	profileHandler := NewProfileHandler(repo, logger, cfg)
	photoHandler := NewPhotoHandler(repo, logger, cfg)
	adminHandler := NewAdminHandler(repo, logger)
	homeHandler := NewHomeHandler(repo, logger, cfg)

	requireUser := middleware.RequireUser(repo)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireUser(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", homeHandler.Index)
	mux.HandleFunc("/about", homeHandler.About)
	mux.HandleFunc("/register", authHandler.Register)
	mux.HandleFunc("/login", authHandler.Login)
	mux.HandleFunc("/logout", authHandler.Logout)

	mux.Handle("/community", protected(postHandler.Community))
	mux.Handle("/postEdit", protected(postHandler.Create))
	mux.Handle("/comment/{postID}", protected(commentHandler.Page))
	mux.Handle("/delete_post/{postID}", protected(postHandler.Delete))
	mux.Handle("/delete_comment/{commentID}", protected(commentHandler.Delete))

	mux.Handle("/user_detail/{userID}", protected(profileHandler.Detail))
	mux.Handle("/edit_detail/{userID}", protected(profileHandler.EditDetail))
	mux.Handle("/edit_avatar/{userID}", protected(profileHandler.EditAvatar))

	mux.Handle("/uploads_photo", protected(photoHandler.Upload))
	mux.Handle("/delete_photo/{photoID}", protected(photoHandler.Delete))
	mux.Handle("/admit", protected(adminHandler.Dashboard))
	mux.Handle("/flag_kill/{flag}/{userID}", protected(adminHandler.ToggleBan))
	mux.Handle("/flag_edit/{flag}/{userID}", protected(adminHandler.TogglePosting))

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	mux.HandleFunc("/", homeHandler.NotFound)

	return mux
}
