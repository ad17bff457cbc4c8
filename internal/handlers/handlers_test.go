package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/Marton0710/Web-Pro/internal/config"
	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/Marton0710/Web-Pro/internal/models"
	"github.com/rs/zerolog"
)

type testApp struct {
	t      *testing.T
	router http.Handler
	repo   *db.Repository
	cfg    *config.Config
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Port:             "8080",
		DBPath:           ":memory:",
		StaticDir:        dir,
		AvatarDir:        filepath.Join(dir, "avatar"),
		PhotoDir:         filepath.Join(dir, "photo"),
		DefaultHomeImage: "/static/avatar/xiaohui.png",
		SessionDays:      31,
	}
	for _, d := range []string{cfg.AvatarDir, cfg.PhotoDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("creating upload dir: %v", err)
		}
	}
	repo, err := db.NewRepository(cfg)
	if err != nil {
		t.Fatalf("creating repository: %v", err)
	}
	if err := repo.RunMigrations(); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return &testApp{
		t:      t,
		router: NewRouter(repo, zerolog.Nop(), cfg),
		repo:   repo,
		cfg:    cfg,
	}
}

func (a *testApp) get(target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) postForm(target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) postFile(target, field, filename string, cookie *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		a.t.Fatalf("creating form file: %v", err)
	}
	io.WriteString(fw, "imagebytes")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) register(username, password string) {
	a.t.Helper()
	form := url.Values{
		"username":      {username},
		"password":      {password},
		"checkPassword": {password},
		"sex":           {"private"},
	}
	w := a.postForm("/register", form, nil)
	if w.Code != http.StatusSeeOther {
		a.t.Fatalf("register %q: code %d, body %q", username, w.Code, w.Body.String())
	}
}

func (a *testApp) login(username, password string) *http.Cookie {
	a.t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	w := a.postForm("/login", form, nil)
	if w.Code != http.StatusSeeOther {
		a.t.Fatalf("login %q: code %d, body %q", username, w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" && c.Value != "" {
			return c
		}
	}
	a.t.Fatalf("login %q: no session cookie", username)
	return nil
}

func (a *testApp) user(username string) *models.User {
	a.t.Helper()
	user, err := a.repo.GetUserByUsername(username)
	if err != nil {
		a.t.Fatalf("loading user %q: %v", username, err)
	}
	return user
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusSeeOther {
		t.Fatalf("code %d, want %d (body %q)", w.Code, http.StatusSeeOther, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("redirect to %q, want %q", got, location)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "pw1")

	form := url.Values{
		"username":      {"alice"},
		"password":      {"completely-different"},
		"checkPassword": {"completely-different"},
	}
	w := app.postForm("/register", form, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "already registered") {
		t.Errorf("expected inline duplicate-username error, got code %d body %q", w.Code, w.Body.String())
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	app := newTestApp(t)
	form := url.Values{
		"username":      {"alice"},
		"password":      {"pw1"},
		"checkPassword": {"pw2"},
	}
	w := app.postForm("/register", form, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "do not match") {
		t.Errorf("expected inline mismatch error, got code %d body %q", w.Code, w.Body.String())
	}
}

func TestLoginFailuresAreDistinct(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "pw1")

	w := app.postForm("/login", url.Values{"username": {"nobody"}, "password": {"pw1"}}, nil)
	if !strings.Contains(w.Body.String(), "Unknown username") {
		t.Errorf("expected unknown-username error, got %q", w.Body.String())
	}

	w = app.postForm("/login", url.Values{"username": {"alice"}, "password": {"wrong"}}, nil)
	if !strings.Contains(w.Body.String(), "Wrong password") {
		t.Errorf("expected wrong-password error, got %q", w.Body.String())
	}
}

func TestBannedLoginRejected(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "pw1")
	if err := app.repo.SetUserBanned(app.user("alice").ID, true); err != nil {
		t.Fatalf("banning: %v", err)
	}

	w := app.postForm("/login", url.Values{"username": {"alice"}, "password": {"pw1"}}, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "banned") {
		t.Errorf("expected banned error despite correct password, got code %d body %q", w.Code, w.Body.String())
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("banned login must not set a session cookie")
	}
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	app := newTestApp(t)
	for _, target := range []string{"/community", "/postEdit", "/admit", "/user_detail/1"} {
		assertRedirect(t, app.get(target, nil), "/login")
	}
}

func TestLogoutEndsSession(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "pw1")
	cookie := app.login("alice", "pw1")

	assertRedirect(t, app.get("/logout", cookie), "/login")
	assertRedirect(t, app.get("/community", cookie), "/login")
}

func TestPostPermissionAsymmetry(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "pw1")
	cookie := app.login("alice", "pw1")

	// A post to comment on, created while posting is still allowed.
	w := app.postForm("/postEdit", url.Values{"title": {"Hello"}, "content": {"World"}}, cookie)
	assertRedirect(t, w, "/community")

	if err := app.repo.SetUserCanPost(app.user("alice").ID, false); err != nil {
		t.Fatalf("revoking posting: %v", err)
	}

	// Posting is now rejected with a silent redirect home.
	w = app.postForm("/postEdit", url.Values{"title": {"Again"}, "content": {"More"}}, cookie)
	assertRedirect(t, w, "/")
	posts, _ := app.repo.GetAllPosts()
	if len(posts) != 1 {
		t.Fatalf("expected 1 post after rejected create, got %d", len(posts))
	}

	// Commenting still works for the same user.
	postID := posts[0].ID
	w = app.postForm("/comment/"+strconv.Itoa(postID), url.Values{"comment": {"Nice!"}}, cookie)
	assertRedirect(t, w, "/comment/"+strconv.Itoa(postID))
	comments, _ := app.repo.GetCommentsByPostID(postID)
	if len(comments) != 1 {
		t.Errorf("expected comment to be created, got %d comments", len(comments))
	}
}

func TestCommentsRequirePostPermOption(t *testing.T) {
	app := newTestApp(t)
	app.cfg.CommentsRequirePostPerm = true

	app.register("alice", "pw1")
	cookie := app.login("alice", "pw1")
	w := app.postForm("/postEdit", url.Values{"title": {"Hello"}, "content": {"World"}}, cookie)
	assertRedirect(t, w, "/community")

	if err := app.repo.SetUserCanPost(app.user("alice").ID, false); err != nil {
		t.Fatalf("revoking posting: %v", err)
	}

	posts, _ := app.repo.GetAllPosts()
	postID := posts[0].ID
	w = app.postForm("/comment/"+strconv.Itoa(postID), url.Values{"comment": {"Nice!"}}, cookie)
	assertRedirect(t, w, "/")
	comments, _ := app.repo.GetCommentsByPostID(postID)
	if len(comments) != 0 {
		t.Errorf("expected comment to be rejected, got %d comments", len(comments))
	}
}

func TestHashedPasswordRegisterLogin(t *testing.T) {
	app := newTestApp(t)
	app.cfg.HashPasswords = true

	app.register("alice", "pw1")
	stored := app.user("alice").Password
	if stored == "pw1" {
		t.Fatal("password stored as plaintext despite hashing being enabled")
	}
	if !strings.HasPrefix(stored, "$2") {
		t.Errorf("stored password is not a bcrypt hash: %q", stored)
	}

	// The login surfaces are unchanged by hashing.
	app.login("alice", "pw1")
	w := app.postForm("/login", url.Values{"username": {"alice"}, "password": {"wrong"}}, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Wrong password") {
		t.Errorf("expected wrong-password error, got code %d body %q", w.Code, w.Body.String())
	}
}

func TestEmptyCommentRejectedInline(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "pw1")
	cookie := app.login("alice", "pw1")

	app.postForm("/postEdit", url.Values{"title": {"Hello"}, "content": {"World"}}, cookie)
	posts, _ := app.repo.GetAllPosts()
	postID := posts[0].ID

	w := app.postForm("/comment/"+strconv.Itoa(postID), url.Values{"comment": {""}}, cookie)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "cannot be empty") {
		t.Errorf("expected inline empty-comment error, got code %d body %q", w.Code, w.Body.String())
	}
	comments, _ := app.repo.GetCommentsByPostID(postID)
	if len(comments) != 0 {
		t.Errorf("empty comment was stored")
	}
}

func TestDeleteCommentOwnership(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "pw1")
	app.register("bob", "pw2")
	alice := app.login("alice", "pw1")
	bob := app.login("bob", "pw2")

	app.postForm("/postEdit", url.Values{"title": {"Hello"}, "content": {"World"}}, alice)
	posts, _ := app.repo.GetAllPosts()
	postID := posts[0].ID
	app.postForm("/comment/"+strconv.Itoa(postID), url.Values{"comment": {"Nice!"}}, alice)
	comments, _ := app.repo.GetCommentsByPostID(postID)
	commentID := comments[0].ID

	// Bob is not the author; the comment survives.
	assertRedirect(t, app.get("/delete_comment/"+strconv.Itoa(commentID), bob), "/")
	comments, _ = app.repo.GetCommentsByPostID(postID)
	if len(comments) != 1 {
		t.Fatalf("comment deleted by non-owner")
	}

	assertRedirect(t, app.get("/delete_comment/"+strconv.Itoa(commentID), alice), "/comment/"+strconv.Itoa(postID))
	comments, _ = app.repo.GetCommentsByPostID(postID)
	if len(comments) != 0 {
		t.Errorf("comment not deleted by owner")
	}
}

// The end-to-end scenario: alice posts and comments, bob cannot delete
// her post, alice can, and the delete cascades to the comment.
func TestPostLifecycleEndToEnd(t *testing.T) {
	app := newTestApp(t)

	app.register("alice", "pw1")
	alice := app.login("alice", "pw1")

	w := app.postForm("/postEdit", url.Values{"title": {"Hello"}, "content": {"World"}}, alice)
	assertRedirect(t, w, "/community")
	posts, _ := app.repo.GetAllPosts()
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	postID := posts[0].ID

	w = app.postForm("/comment/"+strconv.Itoa(postID), url.Values{"comment": {"Nice!"}}, alice)
	assertRedirect(t, w, "/comment/"+strconv.Itoa(postID))

	app.register("bob", "pw2")
	bob := app.login("bob", "pw2")
	assertRedirect(t, app.get("/delete_post/"+strconv.Itoa(postID), bob), "/")

	posts, _ = app.repo.GetAllPosts()
	comments, _ := app.repo.GetCommentsByPostID(postID)
	if len(posts) != 1 || len(comments) != 1 {
		t.Fatalf("post or comment lost to non-owner delete: %d posts, %d comments", len(posts), len(comments))
	}

	assertRedirect(t, app.get("/delete_post/"+strconv.Itoa(postID), alice), "/community")
	posts, _ = app.repo.GetAllPosts()
	comments, _ = app.repo.GetCommentsByPostID(postID)
	if len(posts) != 0 || len(comments) != 0 {
		t.Errorf("expected post and comments gone, got %d posts, %d comments", len(posts), len(comments))
	}
}

func TestProfileEditOwnership(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "pw1")
	app.register("bob", "pw2")
	alice := app.login("alice", "pw1")
	aliceID := app.user("alice").ID
	bobID := app.user("bob").ID

	// Any authenticated user may view any profile.
	if w := app.get("/user_detail/"+strconv.Itoa(bobID), alice); w.Code != http.StatusOK {
		t.Errorf("viewing another profile: code %d", w.Code)
	}

	// Editing someone else's profile is silently refused.
	form := url.Values{"sex": {"private"}, "email": {"evil@x"}, "address": {"x"}, "info": {"x"}}
	assertRedirect(t, app.postForm("/edit_detail/"+strconv.Itoa(bobID), form, alice), "/")
	if got := app.user("bob").Email; got != "none" {
		t.Errorf("bob's email changed by alice: %q", got)
	}

	form = url.Values{"sex": {"female"}, "email": {"alice@example.com"}, "address": {"Town"}, "info": {"Hi"}}
	assertRedirect(t, app.postForm("/edit_detail/"+strconv.Itoa(aliceID), form, alice), "/user_detail/"+strconv.Itoa(aliceID))
	got := app.user("alice")
	if got.Email != "alice@example.com" || got.Sex != "female" || got.Address != "Town" || got.Info != "Hi" {
		t.Errorf("profile not updated: %+v", got)
	}
}

func TestAvatarUpload(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "pw1")
	alice := app.login("alice", "pw1")
	aliceID := app.user("alice").ID

	w := app.postFile("/edit_avatar/"+strconv.Itoa(aliceID), "avatar", "notes.txt", alice)
	if !strings.Contains(w.Body.String(), "accepted") {
		t.Errorf("expected extension rejection, got %q", w.Body.String())
	}

	w = app.postFile("/edit_avatar/"+strconv.Itoa(aliceID), "avatar", "face.PNG", alice)
	assertRedirect(t, w, "/user_detail/"+strconv.Itoa(aliceID))
	if got := app.user("alice").Avatar; got != "face.PNG" {
		t.Errorf("avatar = %q, want face.PNG", got)
	}
	if _, err := os.Stat(filepath.Join(app.cfg.AvatarDir, "face.PNG")); err != nil {
		t.Errorf("avatar file missing: %v", err)
	}
}

func TestPhotoUploadRequiresAdmin(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "pw1")
	alice := app.login("alice", "pw1")

	assertRedirect(t, app.postFile("/uploads_photo", "photo", "pic.jpg", alice), "/")
	photos, _ := app.repo.GetAllPhotos()
	if len(photos) != 0 {
		t.Errorf("non-admin uploaded a photo")
	}
}

func TestDuplicatePhotoAddressDiscardedSilently(t *testing.T) {
	app := newTestApp(t)
	app.register("admin", "pw1")
	if err := app.repo.SetUserCanAdminister(app.user("admin").ID, true); err != nil {
		t.Fatalf("granting admin: %v", err)
	}
	admin := app.login("admin", "pw1")

	assertRedirect(t, app.postFile("/uploads_photo", "photo", "pic.jpg", admin), "/uploads_photo")
	assertRedirect(t, app.postFile("/uploads_photo", "photo", "pic.jpg", admin), "/uploads_photo")

	photos, _ := app.repo.GetAllPhotos()
	if len(photos) != 1 {
		t.Errorf("expected one photo row after duplicate upload, got %d", len(photos))
	}
}

func TestPhotoDeleteRemovesRowAndFile(t *testing.T) {
	app := newTestApp(t)
	app.register("admin", "pw1")
	if err := app.repo.SetUserCanAdminister(app.user("admin").ID, true); err != nil {
		t.Fatalf("granting admin: %v", err)
	}
	admin := app.login("admin", "pw1")

	app.postFile("/uploads_photo", "photo", "pic.jpg", admin)
	photos, _ := app.repo.GetAllPhotos()
	if len(photos) != 1 {
		t.Fatalf("expected uploaded photo row")
	}

	assertRedirect(t, app.get("/delete_photo/"+strconv.Itoa(photos[0].ID), admin), "/admit")
	photos, _ = app.repo.GetAllPhotos()
	if len(photos) != 0 {
		t.Errorf("photo row not deleted")
	}
	if _, err := os.Stat(filepath.Join(app.cfg.PhotoDir, "pic.jpg")); !os.IsNotExist(err) {
		t.Errorf("photo file not removed: %v", err)
	}

	// Deleting an already-deleted photo still lands on the dashboard.
	assertRedirect(t, app.get("/delete_photo/999", admin), "/admit")
}

func TestAdminFlagToggles(t *testing.T) {
	app := newTestApp(t)
	app.register("admin", "pw1")
	app.register("alice", "pw2")
	if err := app.repo.SetUserCanAdminister(app.user("admin").ID, true); err != nil {
		t.Fatalf("granting admin: %v", err)
	}
	admin := app.login("admin", "pw1")
	aliceID := app.user("alice").ID

	assertRedirect(t, app.get("/flag_kill/0/"+strconv.Itoa(aliceID), admin), "/admit")
	if !app.user("alice").IsBanned {
		t.Error("flag 0 did not ban")
	}
	assertRedirect(t, app.get("/flag_kill/1/"+strconv.Itoa(aliceID), admin), "/admit")
	if app.user("alice").IsBanned {
		t.Error("flag 1 did not unban")
	}

	assertRedirect(t, app.get("/flag_edit/0/"+strconv.Itoa(aliceID), admin), "/admit")
	if app.user("alice").CanPost {
		t.Error("flag 0 did not revoke posting")
	}
	assertRedirect(t, app.get("/flag_edit/2/"+strconv.Itoa(aliceID), admin), "/admit")
	if app.user("alice").CanPost {
		t.Error("unknown flag value must be a no-op")
	}
	assertRedirect(t, app.get("/flag_edit/1/"+strconv.Itoa(aliceID), admin), "/admit")
	if !app.user("alice").CanPost {
		t.Error("flag 1 did not restore posting")
	}
}

func TestNonAdminCannotToggleFlags(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "pw1")
	app.register("bob", "pw2")
	alice := app.login("alice", "pw1")
	bobID := app.user("bob").ID

	assertRedirect(t, app.get("/flag_kill/0/"+strconv.Itoa(bobID), alice), "/")
	if app.user("bob").IsBanned {
		t.Error("non-admin banned a user")
	}
	assertRedirect(t, app.get("/admit", alice), "/")
}

func TestHomeFeaturedPhoto(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), app.cfg.DefaultHomeImage) {
		t.Errorf("expected default image on empty gallery, got code %d", w.Code)
	}

	if err := app.repo.CreatePhoto("/static/photo/only.png"); err != nil {
		t.Fatalf("creating photo: %v", err)
	}
	w = app.get("/", nil)
	if !strings.Contains(w.Body.String(), "/static/photo/only.png") {
		t.Errorf("expected the only photo to be featured")
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	w := httptest.NewRecorder()
	render(w, "missing.html", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected clean 500 for unknown template, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<html") {
		t.Errorf("partial page written before the failure surfaced")
	}
}

func TestNotFoundPage(t *testing.T) {
	app := newTestApp(t)
	w := app.get("/no/such/page", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "404") {
		t.Errorf("expected rendered 404 page, got code %d", w.Code)
	}
}
