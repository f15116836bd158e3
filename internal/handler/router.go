package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/quill/internal/metrics"
	"github.com/hitoshi/quill/internal/middleware"
	"github.com/hitoshi/quill/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// Route はルートテーブルの1エントリ。
type Route struct {
	Method  string
	Pattern string
	// Auth はトークンCookieが必要なルートであることを示す。
	Auth bool
}

// Routes はAPIのルートテーブルを返す。/doc、/ui、/metricsは含まない。
func Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/"},
		{Method: http.MethodGet, Pattern: "/health"},
		{Method: http.MethodPost, Pattern: "/user/signup"},
		{Method: http.MethodPost, Pattern: "/user/login"},
		{Method: http.MethodGet, Pattern: "/users/{id}"},
		{Method: http.MethodGet, Pattern: "/blogs"},
		{Method: http.MethodGet, Pattern: "/blogs/{id}"},
		{Method: http.MethodPost, Pattern: "/blogs/create", Auth: true},
		{Method: http.MethodPatch, Pattern: "/blogs/update/{id}", Auth: true},
		{Method: http.MethodPut, Pattern: "/blogs/replace/{id}", Auth: true},
		{Method: http.MethodDelete, Pattern: "/blogs/delete/{id}", Auth: true},
	}
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	AuthRateLimiter   *middleware.RateLimiter
	// trueの場合のみX-Forwarded-For / X-Real-IPでRemoteAddrを書き換える。
	TrustProxyHeaders bool

	// メトリクス
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer

	// ヘルスチェック
	HealthChecker HealthChecker

	// ユーザー
	SignupService SignupServiceInterface
	LoginService  LoginServiceInterface
	UserConfig    UserHandlerConfig

	// 記事
	PostService PostServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	[RealIP] → Logging → Metrics → Recovery → SecurityHeaders → CORS
//
// RealIPはTrustProxyHeadersが有効な場合のみ適用する。
// サインアップとログインにはクライアントIP単位のレート制限、
// 記事の変更系ルートには認証ミドルウェアを追加する。
func NewRouter(deps *RouterDeps) (http.Handler, error) {
	docHandler, err := NewDocHandler("/doc")
	if err != nil {
		return nil, fmt.Errorf("failed to build API documentation: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	if deps.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteErrorResponse(w, model.NewRouteNotFoundError())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteErrorResponse(w, model.NewMethodNotAllowedError())
	})

	homeHandler := NewHomeHandler(deps.HealthChecker)
	userHandler := NewUserHandler(deps.SignupService, deps.LoginService, deps.UserConfig, deps.Metrics)
	blogHandler := NewBlogHandler(deps.PostService, deps.Metrics)

	// --- 認証不要のルート ---
	r.Get("/", homeHandler.Home)
	r.Get("/health", homeHandler.Health)

	r.Route("/user", func(r chi.Router) {
		if deps.AuthRateLimiter != nil {
			r.Use(deps.AuthRateLimiter.Middleware())
		}
		r.Post("/signup", userHandler.Signup)
		r.Post("/login", userHandler.Login)
	})
	r.Get("/users/{id}", userHandler.GetUser)

	r.Get("/blogs", blogHandler.List)
	r.Get("/blogs/{id}", blogHandler.Get)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))

		r.Post("/blogs/create", blogHandler.Create)
		r.Patch("/blogs/update/{id}", blogHandler.Update)
		r.Put("/blogs/replace/{id}", blogHandler.Replace)
		r.Delete("/blogs/delete/{id}", blogHandler.Delete)
	})

	// --- ドキュメント ---
	r.Get("/doc", docHandler.Doc)
	r.Get("/ui", docHandler.RedirectUI)
	r.Get("/ui/", docHandler.RedirectUI)
	r.Get("/ui/*", docHandler.UI)

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	return r, nil
}
