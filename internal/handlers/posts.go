package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/Marton0710/Web-Pro/internal/middleware"
	"github.com/Marton0710/Web-Pro/internal/models"
	"github.com/rs/zerolog"
)

// PostHandler handles the community listing and post lifecycle.
type PostHandler struct {
	repo *db.Repository
	log  zerolog.Logger
}

func NewPostHandler(repo *db.Repository, log zerolog.Logger) *PostHandler {
	return &PostHandler{repo: repo, log: log}
}

// PostView carries a post with its author's username to the template.
type PostView struct {
	ID        int
	Title     string
	Content   string
	CreatedAt time.Time
	AuthorID  int
	Author    string
}

func (h *PostHandler) postView(post *models.Post) *PostView {
	author := ""
	if user, err := h.repo.GetUserByID(post.AuthorID); err == nil {
		author = user.Username
	}
	return &PostView{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
		AuthorID:  post.AuthorID,
		Author:    author,
	}
}

// Community lists every post in insertion order.
func (h *PostHandler) Community(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := middleware.UserFrom(r.Context())

	posts, err := h.repo.GetAllPosts()
	if err != nil {
		h.log.Error().Err(err).Msg("loading posts failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var views []*PostView
	for _, post := range posts {
		views = append(views, h.postView(post))
	}

	render(w, "community.html", map[string]any{
		"Posts": views,
		"User":  user,
	})
}

// Create handles the new-post form. Requires the posting permission;
// users without it are sent home without an error message.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if !user.Has(models.CapPost) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		render(w, "postEdit.html", map[string]any{"User": user})
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	title := r.FormValue("title")
	content := r.FormValue("content")
	if title == "" || content == "" {
		writeFragment(w, "<h1>Title and content are required, please <a href='/postEdit'>try again</a></h1>")
		return
	}

	post := &models.Post{Title: title, Content: content, AuthorID: user.ID}
	id, err := h.repo.CreatePost(post)
	if err != nil {
		h.log.Error().Err(err).Int("user_id", user.ID).Msg("post creation failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.log.Info().Int64("post_id", id).Int("user_id", user.ID).Msg("post created")
	http.Redirect(w, r, "/community", http.StatusSeeOther)
}

// Delete removes a post and all of its comments. Only the author may
// delete; anyone else is redirected home silently.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	postID, err := strconv.Atoi(r.PathValue("postID"))
	if err != nil || postID <= 0 {
		http.Redirect(w, r, "/community", http.StatusSeeOther)
		return
	}
	post, err := h.repo.GetPostByID(postID)
	if err != nil {
		http.Redirect(w, r, "/community", http.StatusSeeOther)
		return
	}
	if post.AuthorID != user.ID {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := h.repo.DeletePostCascade(postID); err != nil {
		h.log.Error().Err(err).Int("post_id", postID).Msg("post deletion failed")
	} else {
		h.log.Info().Int("post_id", postID).Int("user_id", user.ID).Msg("post deleted")
	}
	http.Redirect(w, r, "/community", http.StatusSeeOther)
}
