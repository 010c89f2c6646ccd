package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vedran77/circle/internal/auth"
	"github.com/vedran77/circle/internal/metrics"
	"github.com/vedran77/circle/internal/repository/memory"
	"github.com/vedran77/circle/internal/service"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, ping func(context.Context) error) *testServer {
	t.Helper()
	store := memory.NewStore()
	tokens := auth.NewJWTManager("test-secret", time.Hour)

	h := New(Deps{
		AuthService:    service.NewAuthService(store.Users(), auth.NewBcryptHasher(bcrypt.MinCost), tokens),
		UserService:    service.NewUserService(store.Users(), store.Follows()),
		PostService:    service.NewPostService(store.Posts(), store.Users()),
		CommentService: service.NewCommentService(store.Comments(), store.Posts(), store.Users()),
		Tokens:         tokens,
		Ping:           ping,
		Recorder:       metrics.NewLatencyRecorder(),
		CORSOrigin:     "http://localhost:3000",
	})
	return &testServer{t: t, handler: h}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

type userJSON struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	PasswordHash   *string  `json:"passwordHash"`
	Password       *string  `json:"password"`
	Bio            string   `json:"bio"`
	ProfilePicture string   `json:"profilePicture"`
	Followers      []string `json:"followers"`
	Following      []string `json:"following"`
}

type likeJSON struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

type postJSON struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Likes []likeJSON `json:"likes"`
}

type commentJSON struct {
	ID   string `json:"id"`
	Post string `json:"post"`
	Text string `json:"text"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
}

type errorJSON struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func (s *testServer) register(name string) userJSON {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": name, "email": name + "@x.com", "password": "pw1",
	})
	if rec.Code != http.StatusOK {
		s.t.Fatalf("register %s: %d %s", name, rec.Code, rec.Body)
	}
	resp := decode[struct {
		Message string   `json:"message"`
		User    userJSON `json:"user"`
	}](s.t, rec)
	if resp.Message == "" {
		s.t.Fatal("register response has no message")
	}
	return resp.User
}

func (s *testServer) login(name string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": name + "@x.com", "password": "pw1",
	})
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: %d %s", name, rec.Code, rec.Body)
	}
	return decode[struct {
		Token string `json:"token"`
	}](s.t, rec).Token
}

func TestScenario(t *testing.T) {
	s := newTestServer(t, nil)

	alice := s.register("alice")
	bob := s.register("bob")
	if alice.PasswordHash != nil || alice.Password != nil {
		t.Fatal("password material exposed in register response")
	}
	if alice.ProfilePicture == "" || alice.Followers == nil || alice.Following == nil {
		t.Fatalf("unexpected registered user %+v", alice)
	}

	aliceToken := s.login("alice")
	bobToken := s.login("bob")

	rec := s.do(http.MethodPost, "/api/posts", aliceToken, map[string]string{"text": "hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: %d %s", rec.Code, rec.Body)
	}
	post := decode[postJSON](t, rec)
	if post.User.Username != "alice" || post.User.ID != alice.ID || len(post.Likes) != 0 {
		t.Fatalf("unexpected post %+v", post)
	}

	rec = s.do(http.MethodPut, "/api/posts/like/"+post.ID, bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("like: %d %s", rec.Code, rec.Body)
	}
	likes := decode[[]likeJSON](t, rec)
	if len(likes) != 1 || likes[0].User.ID != bob.ID || likes[0].User.Username != "bob" {
		t.Fatalf("likes = %+v", likes)
	}

	rec = s.do(http.MethodPut, "/api/posts/like/"+post.ID, bobToken, nil)
	if likes := decode[[]likeJSON](t, rec); len(likes) != 0 {
		t.Fatalf("likes after unlike = %+v", likes)
	}

	rec = s.do(http.MethodPut, "/api/users/follow/"+alice.ID, bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("follow: %d %s", rec.Code, rec.Body)
	}
	state := decode[struct {
		Following bool `json:"following"`
	}](t, rec)
	if !state.Following {
		t.Fatal("follow did not report following")
	}

	bobProfile := decode[userJSON](t, s.do(http.MethodGet, "/api/users/"+bob.ID, "", nil))
	aliceProfile := decode[userJSON](t, s.do(http.MethodGet, "/api/users/"+alice.ID, "", nil))
	if len(bobProfile.Following) != 1 || bobProfile.Following[0] != alice.ID {
		t.Fatalf("bob.following = %v", bobProfile.Following)
	}
	if len(aliceProfile.Followers) != 1 || aliceProfile.Followers[0] != bob.ID {
		t.Fatalf("alice.followers = %v", aliceProfile.Followers)
	}

	s.do(http.MethodPut, "/api/users/follow/"+alice.ID, bobToken, nil)
	bobProfile = decode[userJSON](t, s.do(http.MethodGet, "/api/users/"+bob.ID, "", nil))
	aliceProfile = decode[userJSON](t, s.do(http.MethodGet, "/api/users/"+alice.ID, "", nil))
	if len(bobProfile.Following) != 0 || len(aliceProfile.Followers) != 0 {
		t.Fatalf("graph not empty after unfollow: %v %v", bobProfile.Following, aliceProfile.Followers)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("alice")

	protected := []struct{ method, path string }{
		{http.MethodPost, "/api/posts"},
		{http.MethodPut, "/api/posts/like/7f1c1a3e-41c2-4a8f-9d4d-2f1f3c0b8e11"},
		{http.MethodDelete, "/api/posts/7f1c1a3e-41c2-4a8f-9d4d-2f1f3c0b8e11"},
		{http.MethodPost, "/api/posts/7f1c1a3e-41c2-4a8f-9d4d-2f1f3c0b8e11/comments"},
		{http.MethodDelete, "/api/posts/7f1c1a3e-41c2-4a8f-9d4d-2f1f3c0b8e11/comments/7f1c1a3e-41c2-4a8f-9d4d-2f1f3c0b8e12"},
		{http.MethodPut, "/api/users/profile"},
		{http.MethodPut, "/api/users/follow/7f1c1a3e-41c2-4a8f-9d4d-2f1f3c0b8e11"},
	}
	for _, p := range protected {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := s.do(p.method, p.path, "", map[string]string{"text": "x"})
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if body := decode[errorJSON](t, rec); body.Error.Message != "no token supplied" {
				t.Fatalf("message = %q", body.Error.Message)
			}

			rec = s.do(p.method, p.path, "not-a-token", map[string]string{"text": "x"})
			if body := decode[errorJSON](t, rec); rec.Code != http.StatusUnauthorized || body.Error.Message != "token invalid" {
				t.Fatalf("bad token: %d %q", rec.Code, body.Error.Message)
			}
		})
	}
}

func TestLegacyTokenHeader(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("alice")
	token := s.login("alice")

	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewBufferString(`{"text":"hi"}`))
	req.Header.Set("x-auth-token", token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
}

func TestRegisterAndLoginErrors(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("alice")

	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "new@x.com", "password": "pw",
	})
	if rec.Code != http.StatusConflict || decode[errorJSON](t, rec).Error.Code != "USERNAME_TAKEN" {
		t.Fatalf("duplicate username: %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice2", "email": "alice@x.com", "password": "pw",
	})
	if rec.Code != http.StatusConflict || decode[errorJSON](t, rec).Error.Code != "EMAIL_TAKEN" {
		t.Fatalf("duplicate email: %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "carol"})
	body := decode[errorJSON](t, rec)
	if rec.Code != http.StatusBadRequest || body.Error.Code != "VALIDATION_ERROR" || body.Error.Fields["email"] == "" {
		t.Fatalf("validation: %d %+v", rec.Code, body)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest || decode[errorJSON](t, rr).Error.Code != "INVALID_JSON" {
		t.Fatalf("malformed json: %d", rr.Code)
	}

	for _, creds := range []map[string]string{
		{"email": "alice@x.com", "password": "wrong"},
		{"email": "nobody@x.com", "password": "pw1"},
	} {
		rec := s.do(http.MethodPost, "/api/auth/login", "", creds)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("login %v: status = %d, want 400", creds, rec.Code)
		}
		if msg := decode[errorJSON](t, rec).Error.Message; msg != "Invalid credentials" {
			t.Fatalf("login %v: message = %q", creds, msg)
		}
	}
}

func TestPostsAndComments(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register("alice")
	s.register("bob")
	aliceToken := s.login("alice")
	bobToken := s.login("bob")

	first := decode[postJSON](t, s.do(http.MethodPost, "/api/posts", aliceToken, map[string]string{"text": "first"}))
	second := decode[postJSON](t, s.do(http.MethodPost, "/api/posts", bobToken, map[string]string{"text": "second"}))

	feed := decode[[]postJSON](t, s.do(http.MethodGet, "/api/posts", "", nil))
	if len(feed) != 2 || feed[0].ID != second.ID || feed[1].ID != first.ID {
		t.Fatalf("feed not newest-first: %+v", feed)
	}

	mine := decode[[]postJSON](t, s.do(http.MethodGet, "/api/posts/user/"+alice.ID, "", nil))
	if len(mine) != 1 || mine[0].ID != first.ID {
		t.Fatalf("user posts = %+v", mine)
	}

	rec := s.do(http.MethodPost, "/api/posts/"+first.ID+"/comments", bobToken, map[string]string{"text": "nice"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment: %d %s", rec.Code, rec.Body)
	}
	comment := decode[commentJSON](t, rec)
	if comment.User.Username != "bob" || comment.Post != first.ID {
		t.Fatalf("unexpected comment %+v", comment)
	}

	comments := decode[[]commentJSON](t, s.do(http.MethodGet, "/api/posts/"+first.ID+"/comments", "", nil))
	if len(comments) != 1 || comments[0].ID != comment.ID {
		t.Fatalf("comments = %+v", comments)
	}

	if rec := s.do(http.MethodGet, "/api/posts/"+first.ID+"/other", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown post resource: %d", rec.Code)
	}

	rec = s.do(http.MethodDelete, "/api/posts/"+first.ID+"/comments/"+comment.ID, aliceToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner comment delete: %d", rec.Code)
	}

	rec = s.do(http.MethodDelete, "/api/posts/"+first.ID, bobToken, nil)
	if rec.Code != http.StatusForbidden || decode[errorJSON](t, rec).Error.Message != "User not authorized" {
		t.Fatalf("non-owner post delete: %d", rec.Code)
	}

	rec = s.do(http.MethodDelete, "/api/posts/"+first.ID, aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body)
	}
	if msg := decode[map[string]string](t, rec)["message"]; msg != "Post removed" {
		t.Fatalf("message = %q", msg)
	}

	comments = decode[[]commentJSON](t, s.do(http.MethodGet, "/api/posts/"+first.ID+"/comments", "", nil))
	if len(comments) != 0 {
		t.Fatalf("comments survived post delete: %+v", comments)
	}

	rec = s.do(http.MethodPost, "/api/posts/"+first.ID+"/comments", bobToken, map[string]string{"text": "late"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("comment on deleted post: %d", rec.Code)
	}
	if rec := s.do(http.MethodPut, "/api/posts/like/"+first.ID, bobToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("like deleted post: %d", rec.Code)
	}
}

func TestInvalidIDs(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("alice")
	token := s.login("alice")

	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/users/not-a-uuid"},
		{http.MethodGet, "/api/posts/user/not-a-uuid"},
		{http.MethodGet, "/api/posts/not-a-uuid/comments"},
		{http.MethodPut, "/api/posts/like/not-a-uuid"},
		{http.MethodDelete, "/api/posts/not-a-uuid"},
		{http.MethodPut, "/api/users/follow/not-a-uuid"},
	}
	for _, c := range cases {
		rec := s.do(c.method, c.path, token, nil)
		if rec.Code != http.StatusBadRequest || decode[errorJSON](t, rec).Error.Code != "INVALID_ID" {
			t.Fatalf("%s %s: status = %d", c.method, c.path, rec.Code)
		}
	}
}

func TestProfileAndFollowErrors(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register("alice")
	token := s.login("alice")

	rec := s.do(http.MethodPut, "/api/users/follow/"+alice.ID, token, nil)
	if rec.Code != http.StatusBadRequest || decode[errorJSON](t, rec).Error.Code != "CANNOT_FOLLOW_SELF" {
		t.Fatalf("self follow: %d", rec.Code)
	}

	rec = s.do(http.MethodPut, "/api/users/follow/7f1c1a3e-41c2-4a8f-9d4d-2f1f3c0b8e11", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("follow unknown: %d", rec.Code)
	}

	rec = s.do(http.MethodPut, "/api/users/profile", token, map[string]string{"bio": "hello", "profilePicture": "ftp://x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad picture: %d", rec.Code)
	}

	rec = s.do(http.MethodPut, "/api/users/profile", token, map[string]string{"bio": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile: %d %s", rec.Code, rec.Body)
	}
	if u := decode[userJSON](t, rec); u.Bio != "hello" || u.ProfilePicture != alice.ProfilePicture {
		t.Fatalf("profile = %+v", u)
	}

	if rec := s.do(http.MethodGet, "/api/users/7f1c1a3e-41c2-4a8f-9d4d-2f1f3c0b8e11", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user: %d", rec.Code)
	}
}

func TestHealthAndLatency(t *testing.T) {
	s := newTestServer(t, nil)
	if rec := s.do(http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	s.do(http.MethodGet, "/api/posts", "", nil)

	routes := decode[[]struct {
		Route string `json:"route"`
		Count int64  `json:"count"`
	}](t, s.do(http.MethodGet, "/debug/latency", "", nil))

	found := false
	for _, r := range routes {
		if r.Route == "GET /api/posts" && r.Count == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("GET /api/posts missing from %+v", routes)
	}

	down := newTestServer(t, func(context.Context) error { return errors.New("connection refused") })
	if rec := down.do(http.MethodGet, "/health", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("health with failing store: %d", rec.Code)
	}
}
