package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const homeMessage = "Welcome to home route of our blogging application Kindly move to /ui to check all endpoints"

// HealthChecker はデータベースの疎通確認に必要なインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// HomeHandler はホームとヘルスチェックのHTTPハンドラー。
type HomeHandler struct {
	db HealthChecker
}

// NewHomeHandler はHomeHandlerを生成する。
func NewHomeHandler(db HealthChecker) *HomeHandler {
	return &HomeHandler{db: db}
}

// Home は案内メッセージを返す。
// GET /
func (h *HomeHandler) Home(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": homeMessage})
}

// Health はデータベースに接続できる場合に200を返す。
// GET /health
func (h *HomeHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
