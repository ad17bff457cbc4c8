package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Marton0710/Web-Pro/internal/config"
	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/Marton0710/Web-Pro/internal/middleware"
	"github.com/Marton0710/Web-Pro/internal/models"
	"github.com/rs/zerolog"
)

// CommentHandler handles the post detail page and comment lifecycle.
type CommentHandler struct {
	repo *db.Repository
	log  zerolog.Logger
	cfg  *config.Config
}

func NewCommentHandler(repo *db.Repository, log zerolog.Logger, cfg *config.Config) *CommentHandler {
	return &CommentHandler{repo: repo, log: log, cfg: cfg}
}

// CommentView carries a comment with its author's username.
type CommentView struct {
	ID        int
	Content   string
	CreatedAt time.Time
	AuthorID  int
	Author    string
}

// Page renders a post with its comments on GET and appends a comment on
// POST. Commenting does not require the posting permission unless the
// configuration says otherwise.
func (h *CommentHandler) Page(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	postID, err := strconv.Atoi(r.PathValue("postID"))
	if err != nil || postID <= 0 {
		http.Redirect(w, r, "/community", http.StatusSeeOther)
		return
	}
	post, err := h.repo.GetPostByID(postID)
	if err != nil {
		// Post is gone; nothing to show or comment on.
		http.Redirect(w, r, "/community", http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		comments, err := h.repo.GetCommentsByPostID(postID)
		if err != nil {
			h.log.Error().Err(err).Int("post_id", postID).Msg("loading comments failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		var views []*CommentView
		for _, c := range comments {
			author := ""
			if u, err := h.repo.GetUserByID(c.AuthorID); err == nil {
				author = u.Username
			}
			views = append(views, &CommentView{
				ID:        c.ID,
				Content:   c.Content,
				CreatedAt: c.CreatedAt,
				AuthorID:  c.AuthorID,
				Author:    author,
			})
		}

		render(w, "comment.html", map[string]any{
			"Post":     post,
			"Comments": views,
			"User":     user,
		})

	case http.MethodPost:
		if h.cfg.CommentsRequirePostPerm && !user.Has(models.CapPost) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		content := r.FormValue("comment")
		if content == "" {
			writeFragment(w, "<h1>Comment cannot be empty, please <a href='/comment/"+strconv.Itoa(postID)+"'>try again</a></h1>")
			return
		}

		comment := &models.Comment{Content: content, PostID: postID, AuthorID: user.ID}
		if err := h.repo.CreateComment(comment); err != nil {
			h.log.Error().Err(err).Int("post_id", postID).Msg("comment creation failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		h.log.Info().Int("post_id", postID).Int("user_id", user.ID).Msg("comment added")
		http.Redirect(w, r, "/comment/"+strconv.Itoa(postID), http.StatusSeeOther)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Delete removes a single comment. Only the comment's author may
// delete; anyone else is redirected home silently.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	commentID, err := strconv.Atoi(r.PathValue("commentID"))
	if err != nil || commentID <= 0 {
		http.Redirect(w, r, "/community", http.StatusSeeOther)
		return
	}
	comment, err := h.repo.GetCommentByID(commentID)
	if err != nil {
		http.Redirect(w, r, "/community", http.StatusSeeOther)
		return
	}
	if comment.AuthorID != user.ID {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := h.repo.DeleteComment(commentID); err != nil {
		h.log.Error().Err(err).Int("comment_id", commentID).Msg("comment deletion failed")
	}
	http.Redirect(w, r, "/comment/"+strconv.Itoa(comment.PostID), http.StatusSeeOther)
}
