// Package handler はHTTPリクエストハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/quill/internal/middleware"
	"github.com/hitoshi/quill/internal/model"
)

const statusSuccess = "success"

// postResponse は記事のJSON表現。
type postResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
	AuthorID  string `json:"authorId"`
}

// postEnvelope は単一記事のレスポンス。
type postEnvelope struct {
	postResponse
	OK     bool   `json:"ok"`
	Status string `json:"status"`
	Code   int    `json:"code"`
}

// postListEnvelope は記事一覧のレスポンス。
type postListEnvelope struct {
	Posts  []postResponse `json:"posts"`
	OK     bool           `json:"ok"`
	Status string         `json:"status"`
	Code   int            `json:"code"`
}

// successEnvelope は本文を持たない成功レスポンス。
type successEnvelope struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
	Code   int    `json:"code"`
}

func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Published: p.Published,
		AuthorID:  p.AuthorID,
	}
}

func newPostEnvelope(p *model.Post) postEnvelope {
	return postEnvelope{
		postResponse: toPostResponse(p),
		OK:           true,
		Status:       statusSuccess,
		Code:         http.StatusOK,
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層から返されたエラーをレスポンスに変換する。
// APIError以外のエラーはログに記録し、詳細を含まない500を返す。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, apiErr)
		return
	}

	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// writeValidationError は入力検証エラーを書き込む。
func writeValidationError(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, model.NewValidationError())
}
