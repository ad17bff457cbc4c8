package models

import "time"

// Capability is a named permission gated by a flag on the user row.
type Capability int

const (
	// CapAdminister grants access to the admin dashboard, photo
	// management and the user flag toggles.
	CapAdminister Capability = iota
	// CapPost grants the right to create posts. Whether it also covers
	// comments is a configuration decision, not a capability one.
	CapPost
)

// User represents a registered member.
type User struct {
	ID            int
	Username      string
	Password      string
	Sex           string
	Email         string
	Address       string
	Info          string
	Avatar        string
	CanAdminister bool
	CanPost       bool
	IsBanned      bool
}

// Has is the single authorization check used by every handler.
func (u *User) Has(c Capability) bool {
	if u == nil {
		return false
	}
	switch c {
	case CapAdminister:
		return u.CanAdminister
	case CapPost:
		return u.CanPost
	}
	return false
}

// Post represents a community post.
type Post struct {
	ID        int
	Title     string
	Content   string
	CreatedAt time.Time
	AuthorID  int
}

// Comment represents a comment on a post.
type Comment struct {
	ID        int
	Content   string
	CreatedAt time.Time
	PostID    int
	AuthorID  int
}

// Photo represents a gallery image. The address is the public URL path;
// the backing file lives under the photo upload directory.
type Photo struct {
	ID        int
	Address   string
	CreatedAt time.Time
}

// Session represents a server-side login session.
type Session struct {
	SessionID string
	UserID    int
	Expires   time.Time
}
