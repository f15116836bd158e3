package model

import (
	"fmt"
	"net/http"
)

// APIError はクライアントへ返す統一エラーフォーマットを表す。
// Codeはレスポンスボディの"code"とHTTPステータスの両方に使用する。
type APIError struct {
	Code    int    // HTTPステータス兼エラーコード
	Message string // クライアント向けメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// 定義済みエラーメッセージ
const (
	MsgValidationError    = "Validation Error"
	MsgUnauthenticated    = "Unauthenticated user"
	MsgInvalidToken       = "Unauthenticated user denied"
	MsgDuplicateUser      = "User already exists"
	MsgInvalidCredentials = "Invalid credentials"
	MsgUserNotFound       = "User not found"
	MsgPostNotFound       = "Post not found"
	MsgRateLimited        = "Too many requests"
	MsgInternalError      = "Internal server error"
	MsgNotFound           = "Not Found"
	MsgMethodNotAllowed   = "Method Not Allowed"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError() *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: MsgValidationError}
}

// NewUnauthenticatedError はトークン未提示のエラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{Code: http.StatusUnauthorized, Message: MsgUnauthenticated}
}

// NewInvalidTokenError はトークンの検証失敗エラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{Code: http.StatusUnauthorized, Message: MsgInvalidToken}
}

// NewDuplicateUserError は同一メールアドレスのユーザーが既に存在する場合のエラーを生成する。
// 402は慣習的な用途ではないが、既存クライアントとの互換性のため維持する。
func NewDuplicateUserError() *APIError {
	return &APIError{Code: http.StatusPaymentRequired, Message: MsgDuplicateUser}
}

// NewInvalidCredentialsError はパスワード不一致のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{Code: http.StatusUnauthorized, Message: MsgInvalidCredentials}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: MsgUserNotFound}
}

// NewPostNotFoundError は記事が見つからない場合のエラーを生成する。
// 既存クライアントとの互換性のため404ではなく400を返す。
func NewPostNotFoundError() *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: MsgPostNotFound}
}

// NewRateLimitedError はレート制限超過のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{Code: http.StatusTooManyRequests, Message: MsgRateLimited}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{Code: http.StatusInternalServerError, Message: MsgInternalError}
}

// NewRouteNotFoundError は存在しないルートへのリクエストのエラーを生成する。
func NewRouteNotFoundError() *APIError {
	return &APIError{Code: http.StatusNotFound, Message: MsgNotFound}
}

// NewMethodNotAllowedError は許可されていないメソッドのエラーを生成する。
func NewMethodNotAllowedError() *APIError {
	return &APIError{Code: http.StatusMethodNotAllowed, Message: MsgMethodNotAllowed}
}
