package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/quill/internal/auth"
	"github.com/hitoshi/quill/internal/metrics"
	"github.com/hitoshi/quill/internal/middleware"
	"github.com/hitoshi/quill/internal/model"
	"github.com/hitoshi/quill/internal/user"
)

// SignupServiceInterface はユーザー登録に必要なサービスインターフェース。
type SignupServiceInterface interface {
	// Signup はユーザーを登録する。メールアドレスが重複する場合はDuplicateUserを返す。
	Signup(ctx context.Context, in user.SignupInput) (*model.User, error)
}

// LoginServiceInterface はログインに必要なサービスインターフェース。
type LoginServiceInterface interface {
	// Login はメールアドレスとパスワードを検証してトークンを発行する。
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// UserHandlerConfig はトークンCookieの設定。
type UserHandlerConfig struct {
	CookieSecure bool
	CookieDomain string
}

// UserHandler はユーザー登録・ログインのHTTPハンドラー。
type UserHandler struct {
	signup  SignupServiceInterface
	login   LoginServiceInterface
	config  UserHandlerConfig
	metrics metrics.MetricsCollector
}

// NewUserHandler はUserHandlerを生成する。collectorがnilの場合は記録しない。
func NewUserHandler(signup SignupServiceInterface, login LoginServiceInterface, config UserHandlerConfig, collector metrics.MetricsCollector) *UserHandler {
	if collector == nil {
		collector = noopMetrics{}
	}
	return &UserHandler{
		signup:  signup,
		login:   login,
		config:  config,
		metrics: collector,
	}
}

// signupRequest はサインアップのフォーム入力。
type signupRequest struct {
	Name     string `form:"name" validate:"required,max=255"`
	Email    string `form:"email" validate:"required,email,max=255"`
	Password string `form:"password" validate:"required,min=6,max=14"`
}

// loginRequest はログインのフォーム入力。nameは受け付けるが使用しない。
type loginRequest struct {
	Name     string `form:"name"`
	Email    string `form:"email" validate:"required,email,max=255"`
	Password string `form:"password" validate:"required,min=6,max=14"`
}

type signupResponse struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

type loginResponse struct {
	Email  string `json:"email"`
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

// userStubResponse はGET /users/{id}のデモ応答。
type userStubResponse struct {
	ID   string `json:"id"`
	Age  int    `json:"age"`
	Name string `json:"name"`
}

// Signup はユーザー登録を処理する。
// POST /user/signup
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	form, err := formValues(r)
	if err != nil {
		writeValidationError(w)
		return
	}
	req := signupRequest{
		Name:     firstValue(form, "name"),
		Email:    firstValue(form, "email"),
		Password: firstValue(form, "password"),
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w)
		return
	}

	u, err := h.signup.Signup(r.Context(), user.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.metrics.RecordAuthEvent(metrics.EventSignup, metrics.OutcomeFailure)
		handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordAuthEvent(metrics.EventSignup, metrics.OutcomeSuccess)

	writeJSON(w, http.StatusOK, signupResponse{
		Name:   u.Name,
		Email:  u.Email,
		OK:     true,
		Status: statusSuccess,
	})
}

// Login はログインを処理し、トークンをHttpOnly Cookieに設定する。
// POST /user/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := formValues(r)
	if err != nil {
		writeValidationError(w)
		return
	}
	req := loginRequest{
		Name:     firstValue(form, "name"),
		Email:    firstValue(form, "email"),
		Password: firstValue(form, "password"),
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w)
		return
	}

	result, err := h.login.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordAuthEvent(metrics.EventLogin, metrics.OutcomeFailure)
		handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordAuthEvent(metrics.EventLogin, metrics.OutcomeSuccess)

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    result.Token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Email:  result.User.Email,
		OK:     true,
		Status: statusSuccess,
	})
}

// GetUser は固定のデモユーザーを返す。ストアは参照しない。
// GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := validateValue(id, "required"); err != nil {
		writeValidationError(w)
		return
	}

	writeJSON(w, http.StatusOK, userStubResponse{
		ID:   id,
		Age:  20,
		Name: "Ultra-man",
	})
}

// noopMetrics はメトリクスを記録しないMetricsCollector。
type noopMetrics struct{}

func (noopMetrics) RecordHTTPRequest(string, string, int, time.Duration) {}
func (noopMetrics) RecordAuthEvent(string, string)                       {}
func (noopMetrics) RecordPostMutation(string)                            {}
