package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/quill/internal/metrics"
	"github.com/hitoshi/quill/internal/middleware"
	"github.com/hitoshi/quill/internal/model"
	"github.com/hitoshi/quill/internal/post"
)

// PostServiceInterface はブログハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// List は公開済みの記事を新しい順に返す。
	List(ctx context.Context) ([]*model.Post, error)
	// Get は指定IDの記事を返す。
	Get(ctx context.Context, id string) (*model.Post, error)
	// Create は記事を作成する。authorIDは認証済みユーザーのID。
	Create(ctx context.Context, authorID string, in post.Input) (*model.Post, error)
	// Update は指定されたフィールドのみを更新する。
	Update(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error)
	// Replace は全フィールドを置き換える。
	Replace(ctx context.Context, id string, in post.Input) (*model.Post, error)
	// Delete は記事を削除する。
	Delete(ctx context.Context, id string) error
}

// BlogHandler はブログ記事のHTTPハンドラー。
type BlogHandler struct {
	service PostServiceInterface
	metrics metrics.MetricsCollector
}

// NewBlogHandler はBlogHandlerを生成する。collectorがnilの場合は記録しない。
func NewBlogHandler(service PostServiceInterface, collector metrics.MetricsCollector) *BlogHandler {
	if collector == nil {
		collector = noopMetrics{}
	}
	return &BlogHandler{
		service: service,
		metrics: collector,
	}
}

// postRequest は記事の作成・置換のJSON入力。
// authorIdが含まれていても無視する。
type postRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
	Publish *bool  `json:"publish" validate:"required"`
}

func (p postRequest) toInput() post.Input {
	return post.Input{
		Title:     p.Title,
		Content:   p.Content,
		Published: *p.Publish,
	}
}

const (
	postIDRule     = "required,uuid"
	patchTitleRule = "max=255"
)

// List は公開済み記事の一覧を返す。
// GET /blogs
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := postListEnvelope{
		Posts:  make([]postResponse, len(posts)),
		OK:     true,
		Status: statusSuccess,
		Code:   http.StatusOK,
	}
	for i, p := range posts {
		resp.Posts[i] = toPostResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get は記事を1件返す。
// GET /blogs/{id}
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPostEnvelope(p))
}

// Create は記事を作成する。著者は認証済みユーザーに固定される。
// POST /blogs/create
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthenticatedError())
		return
	}

	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Debug("invalid create request", slog.String("error", err.Error()))
		writeValidationError(w)
		return
	}

	p, err := h.service.Create(r.Context(), claims.UserID, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordPostMutation("create")

	writeJSON(w, http.StatusOK, newPostEnvelope(p))
}

// Update は記事を部分更新する。フォームに含まれないフィールドは変更しない。
// PATCH /blogs/update/{id}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(w, r)
	if !ok {
		return
	}

	form, err := formValues(r)
	if err != nil {
		writeValidationError(w)
		return
	}
	patch := model.PostPatch{
		Title:   optionalString(form, "title"),
		Content: optionalString(form, "content"),
	}
	patch.Published, err = optionalBool(form, "publish")
	if err != nil || patch.IsEmpty() {
		writeValidationError(w)
		return
	}
	if patch.Title != nil && (strings.TrimSpace(*patch.Title) == "" || validateValue(*patch.Title, patchTitleRule) != nil) {
		writeValidationError(w)
		return
	}
	if patch.Content != nil && *patch.Content == "" {
		writeValidationError(w)
		return
	}

	p, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordPostMutation("update")

	writeJSON(w, http.StatusOK, newPostEnvelope(p))
}

// Replace は記事の全フィールドを置き換える。
// PUT /blogs/replace/{id}
func (h *BlogHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(w, r)
	if !ok {
		return
	}

	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Debug("invalid replace request", slog.String("error", err.Error()))
		writeValidationError(w)
		return
	}

	p, err := h.service.Replace(r.Context(), id, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordPostMutation("replace")

	writeJSON(w, http.StatusOK, newPostEnvelope(p))
}

// Delete は記事を削除する。
// DELETE /blogs/delete/{id}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordPostMutation("delete")

	writeJSON(w, http.StatusOK, successEnvelope{
		OK:     true,
		Status: statusSuccess,
		Code:   http.StatusOK,
	})
}

// postIDParam はパスパラメータの記事IDを取り出して検証する。
// 不正な場合はValidationErrorを書き込みfalseを返す。
func postIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := validateValue(id, postIDRule); err != nil {
		writeValidationError(w)
		return "", false
	}
	return id, true
}
