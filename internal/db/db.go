package db

import (
	"database/sql"
	"time"

	"github.com/Marton0710/Web-Pro/internal/config"
	"github.com/Marton0710/Web-Pro/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Repository provides methods for working with the database.
type Repository struct {
	db *sql.DB
}

// NewRepository opens the sqlite database and returns a repository.
func NewRepository(cfg *config.Config) (*Repository, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; a single pooled connection also
	// keeps :memory: databases coherent across queries.
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// CreateUser inserts a new user. The password is stored exactly as
// given; whether it is plaintext or a hash is the caller's decision.
func (r *Repository) CreateUser(user *models.User) error {
	result, err := r.db.Exec(`INSERT INTO users (username, password, sex, email, address, info, avatar, can_administer, can_post, is_banned)
	                          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Password, user.Sex, user.Email, user.Address, user.Info, user.Avatar,
		user.CanAdminister, user.CanPost, user.IsBanned)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = int(id)
	return nil
}

const userColumns = "id, username, password, sex, email, address, info, avatar, can_administer, can_post, is_banned"

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Sex, &user.Email, &user.Address,
		&user.Info, &user.Avatar, &user.CanAdminister, &user.CanPost, &user.IsBanned)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by exact username. The lookup is
// case-sensitive: usernames differing only in case are distinct.
func (r *Repository) GetUserByUsername(username string) (*models.User, error) {
	return scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", username))
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(userID int) (*models.User, error) {
	return scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", userID))
}

// GetAllUsers returns all users in id order.
func (r *Repository) GetAllUsers() ([]*models.User, error) {
	rows, err := r.db.Query("SELECT " + userColumns + " FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(&user.ID, &user.Username, &user.Password, &user.Sex, &user.Email, &user.Address,
			&user.Info, &user.Avatar, &user.CanAdminister, &user.CanPost, &user.IsBanned)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUserDetails updates the editable profile fields.
func (r *Repository) UpdateUserDetails(userID int, sex, email, address, info string) error {
	_, err := r.db.Exec("UPDATE users SET sex = ?, email = ?, address = ?, info = ? WHERE id = ?",
		sex, email, address, info, userID)
	return err
}

// UpdateUserAvatar records the avatar filename on the user row.
func (r *Repository) UpdateUserAvatar(userID int, filename string) error {
	_, err := r.db.Exec("UPDATE users SET avatar = ? WHERE id = ?", filename, userID)
	return err
}

// SetUserBanned sets or clears the ban flag.
func (r *Repository) SetUserBanned(userID int, banned bool) error {
	_, err := r.db.Exec("UPDATE users SET is_banned = ? WHERE id = ?", banned, userID)
	return err
}

// SetUserCanPost sets or clears the posting permission flag.
func (r *Repository) SetUserCanPost(userID int, canPost bool) error {
	_, err := r.db.Exec("UPDATE users SET can_post = ? WHERE id = ?", canPost, userID)
	return err
}

// SetUserCanAdminister sets or clears the admin flag.
func (r *Repository) SetUserCanAdminister(userID int, canAdminister bool) error {
	_, err := r.db.Exec("UPDATE users SET can_administer = ? WHERE id = ?", canAdminister, userID)
	return err
}

// CreateSession creates a new session.
func (r *Repository) CreateSession(session *models.Session) error {
	_, err := r.db.Exec("INSERT INTO sessions (session_id, user_id, expires) VALUES (?, ?, ?)",
		session.SessionID, session.UserID, session.Expires)
	return err
}

// GetSession retrieves a live session by ID. Expired sessions are
// treated as absent.
func (r *Repository) GetSession(sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := r.db.QueryRow("SELECT session_id, user_id, expires FROM sessions WHERE session_id = ? AND expires > ?",
		sessionID, time.Now()).Scan(&session.SessionID, &session.UserID, &session.Expires)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession deletes a session.
func (r *Repository) DeleteSession(sessionID string) error {
	_, err := r.db.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID)
	return err
}

// CleanExpiredSessions deletes all expired sessions.
func (r *Repository) CleanExpiredSessions() error {
	_, err := r.db.Exec("DELETE FROM sessions WHERE expires < ?", time.Now())
	return err
}

// CreatePost creates a new post and returns its id.
func (r *Repository) CreatePost(post *models.Post) (int64, error) {
	result, err := r.db.Exec("INSERT INTO posts (title, content, created_at, author_id) VALUES (?, ?, ?, ?)",
		post.Title, post.Content, time.Now(), post.AuthorID)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetAllPosts returns all posts in insertion order.
func (r *Repository) GetAllPosts() ([]*models.Post, error) {
	rows, err := r.db.Query("SELECT id, title, content, created_at, author_id FROM posts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post := &models.Post{}
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.CreatedAt, &post.AuthorID); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// GetPostByID retrieves a post by ID.
func (r *Repository) GetPostByID(postID int) (*models.Post, error) {
	post := &models.Post{}
	err := r.db.QueryRow("SELECT id, title, content, created_at, author_id FROM posts WHERE id = ?", postID).
		Scan(&post.ID, &post.Title, &post.Content, &post.CreatedAt, &post.AuthorID)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePostCascade deletes a post together with its comments in a
// single transaction, so a crash cannot leave orphaned comments.
func (r *Repository) DeletePostCascade(postID int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM comments WHERE post_id = ?", postID); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec("DELETE FROM posts WHERE id = ?", postID); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// CreateComment creates a new comment.
func (r *Repository) CreateComment(comment *models.Comment) error {
	_, err := r.db.Exec("INSERT INTO comments (content, created_at, post_id, author_id) VALUES (?, ?, ?, ?)",
		comment.Content, time.Now(), comment.PostID, comment.AuthorID)
	return err
}

// GetCommentsByPostID returns comments for a post in insertion order.
func (r *Repository) GetCommentsByPostID(postID int) ([]*models.Comment, error) {
	rows, err := r.db.Query("SELECT id, content, created_at, post_id, author_id FROM comments WHERE post_id = ? ORDER BY id", postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment := &models.Comment{}
		if err := rows.Scan(&comment.ID, &comment.Content, &comment.CreatedAt, &comment.PostID, &comment.AuthorID); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// GetCommentByID returns a comment by ID.
func (r *Repository) GetCommentByID(commentID int) (*models.Comment, error) {
	comment := &models.Comment{}
	err := r.db.QueryRow("SELECT id, content, created_at, post_id, author_id FROM comments WHERE id = ?", commentID).
		Scan(&comment.ID, &comment.Content, &comment.CreatedAt, &comment.PostID, &comment.AuthorID)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment deletes a comment by ID.
func (r *Repository) DeleteComment(commentID int) error {
	_, err := r.db.Exec("DELETE FROM comments WHERE id = ?", commentID)
	return err
}

// CreatePhoto inserts a photo row. The address column is unique, so a
// duplicate address fails with a constraint error.
func (r *Repository) CreatePhoto(address string) error {
	_, err := r.db.Exec("INSERT INTO photo (address, created_at) VALUES (?, ?)", address, time.Now())
	return err
}

// GetAllPhotos returns all photos in insertion order.
func (r *Repository) GetAllPhotos() ([]*models.Photo, error) {
	rows, err := r.db.Query("SELECT id, address, created_at FROM photo ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []*models.Photo
	for rows.Next() {
		photo := &models.Photo{}
		if err := rows.Scan(&photo.ID, &photo.Address, &photo.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

// GetPhotoByID retrieves a photo by ID.
func (r *Repository) GetPhotoByID(photoID int) (*models.Photo, error) {
	photo := &models.Photo{}
	err := r.db.QueryRow("SELECT id, address, created_at FROM photo WHERE id = ?", photoID).
		Scan(&photo.ID, &photo.Address, &photo.CreatedAt)
	if err != nil {
		return nil, err
	}
	return photo, nil
}

// GetRandomPhoto picks one photo uniformly at random. Returns
// sql.ErrNoRows when the table is empty.
func (r *Repository) GetRandomPhoto() (*models.Photo, error) {
	photo := &models.Photo{}
	err := r.db.QueryRow("SELECT id, address, created_at FROM photo ORDER BY RANDOM() LIMIT 1").
		Scan(&photo.ID, &photo.Address, &photo.CreatedAt)
	if err != nil {
		return nil, err
	}
	return photo, nil
}

// DeletePhoto deletes a photo row by ID.
func (r *Repository) DeletePhoto(photoID int) error {
	_, err := r.db.Exec("DELETE FROM photo WHERE id = ?", photoID)
	return err
}
