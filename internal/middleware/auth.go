// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/quill/internal/auth"
	"github.com/hitoshi/quill/internal/model"
)

// TokenCookieName は認証トークンを保持するCookie名。
const TokenCookieName = "token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストに認証済みClaimsを格納するためのキー。
var claimsContextKey = contextKey("claims")

// ErrNoClaims はコンテキストに認証情報がないことを表す。
var ErrNoClaims = errors.New("claims not found in context")

// TokenVerifier はトークン検証のインターフェース。
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// NewAuthMiddleware はCookieのトークンを検証するミドルウェアを返す。
// トークンがない場合は"Unauthenticated user"、検証に失敗した場合は
// "Unauthenticated user denied"の401を返す。
// 検証済みのClaimsをリクエストコンテキストに注入する。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(TokenCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, model.NewUnauthenticatedError())
				return
			}

			claims, err := verifier.Verify(cookie.Value)
			if err != nil {
				slog.Info("token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, model.NewInvalidTokenError())
				return
			}

			setLoggedUserID(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

// ClaimsFromContext はリクエストコンテキストから認証済みClaimsを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func ClaimsFromContext(ctx context.Context) (*auth.Claims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok || claims == nil || claims.UserID == "" {
		return nil, ErrNoClaims
	}
	return claims, nil
}

// ContextWithClaims はコンテキストにClaimsを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
