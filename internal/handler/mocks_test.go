package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/quill/internal/auth"
	"github.com/hitoshi/quill/internal/middleware"
	"github.com/hitoshi/quill/internal/model"
	"github.com/hitoshi/quill/internal/post"
	"github.com/hitoshi/quill/internal/user"
)

// --- モック定義 ---

type mockSignupService struct {
	signupFn func(ctx context.Context, in user.SignupInput) (*model.User, error)
}

func (m *mockSignupService) Signup(ctx context.Context, in user.SignupInput) (*model.User, error) {
	if m.signupFn != nil {
		return m.signupFn(ctx, in)
	}
	return &model.User{ID: "user-1", Name: in.Name, Email: in.Email}, nil
}

type mockLoginService struct {
	loginFn func(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

func (m *mockLoginService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewUserNotFoundError()
}

type mockPostService struct {
	listFn    func(ctx context.Context) ([]*model.Post, error)
	getFn     func(ctx context.Context, id string) (*model.Post, error)
	createFn  func(ctx context.Context, authorID string, in post.Input) (*model.Post, error)
	updateFn  func(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error)
	replaceFn func(ctx context.Context, id string, in post.Input) (*model.Post, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockPostService) List(ctx context.Context) ([]*model.Post, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.Post{}, nil
}
func (m *mockPostService) Get(ctx context.Context, id string) (*model.Post, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewPostNotFoundError()
}
func (m *mockPostService) Create(ctx context.Context, authorID string, in post.Input) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, in)
	}
	return &model.Post{ID: testPostID, Title: in.Title, Content: in.Content, Published: in.Published, AuthorID: authorID}, nil
}
func (m *mockPostService) Update(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return nil, model.NewPostNotFoundError()
}
func (m *mockPostService) Replace(ctx context.Context, id string, in post.Input) (*model.Post, error) {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, id, in)
	}
	return nil, model.NewPostNotFoundError()
}
func (m *mockPostService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return model.NewPostNotFoundError()
}

type mockVerifier struct{}

// Verify は"valid-token"のみを受け入れる。
func (mockVerifier) Verify(token string) (*auth.Claims, error) {
	if token == testToken {
		return &auth.Claims{UserID: testUserID, Email: "a@x.com"}, nil
	}
	return nil, auth.ErrInvalidToken
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(context.Context) error { return m.err }

// --- 定数・ヘルパー ---

const (
	testToken  = "valid-token"
	testUserID = "8b7c1f1e-7d7e-4f57-9a0a-3c1c2b8e9f10"
	testPostID = "2f6a0d3c-5b1e-4c55-8f61-0f9e8d7c6b5a"
)

var errStore = errors.New("pq: connection refused")

// newTestRouter はモック依存で完全なルーターを構築する。
func newTestRouter(t *testing.T, deps RouterDeps) http.Handler {
	t.Helper()
	if deps.TokenVerifier == nil {
		deps.TokenVerifier = mockVerifier{}
	}
	if deps.CORSAllowedOrigin == "" {
		deps.CORSAllowedOrigin = "http://localhost:3000"
	}
	if deps.SignupService == nil {
		deps.SignupService = &mockSignupService{}
	}
	if deps.LoginService == nil {
		deps.LoginService = &mockLoginService{}
	}
	if deps.PostService == nil {
		deps.PostService = &mockPostService{}
	}
	if deps.HealthChecker == nil {
		deps.HealthChecker = &mockHealthChecker{}
	}
	router, err := NewRouter(&deps)
	if err != nil {
		t.Fatalf("NewRouter returned error: %v", err)
	}
	return router
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withToken(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: testToken})
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v\nraw: %s", err, w.Body.String())
	}
	return body
}

// assertErrorBody はステータスと{code, message}の一致を検証する。
func assertErrorBody(t *testing.T, w *httptest.ResponseRecorder, code int, message string) {
	t.Helper()
	if w.Code != code {
		t.Errorf("status = %d, want %d (body: %s)", w.Code, code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["code"] != float64(code) || body["message"] != message {
		t.Errorf("body = %v, want code=%d message=%q", body, code, message)
	}
	if len(body) != 2 {
		t.Errorf("error body should contain only code and message, got %v", body)
	}
}

func loginResult() *auth.LoginResult {
	return &auth.LoginResult{
		User:      &model.User{ID: testUserID, Name: "A", Email: "a@x.com"},
		Token:     "issued-token",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
}
