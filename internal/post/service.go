// Package post はブログ記事の作成・取得・更新・削除を提供する。
package post

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/quill/internal/model"
	"github.com/hitoshi/quill/internal/repository"
	"github.com/hitoshi/quill/internal/security"
)

// MaxTitleLength はタイトルの最大文字数。postsテーブルのtitle VARCHAR(255)に合わせる。
const MaxTitleLength = 255

// Input は記事の作成・置換の入力値。
type Input struct {
	Title     string
	Content   string
	Published bool
}

// Service は記事管理のサービス層。
// 保存前にタイトルと本文をサニタイズする。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer security.PostSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(postRepo repository.PostRepository, sanitizer security.PostSanitizer) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List は公開済みの記事を新しい順に返す。該当がなければ空スライスを返す。
func (s *Service) List(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.postRepo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if posts == nil {
		posts = []*model.Post{}
	}
	return posts, nil
}

// Get は指定IDの記事を返す。存在しない場合はPostNotFoundを返す。
// 未公開の記事もIDを指定すれば取得できる。
func (s *Service) Get(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}
	return post, nil
}

// Create は記事を作成する。authorIDは認証済みユーザーのIDを渡す。
func (s *Service) Create(ctx context.Context, authorID string, in Input) (*model.Post, error) {
	title, content, err := s.sanitize(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := &model.Post{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   content,
		Published: in.Published,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	slog.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", authorID),
	)
	return post, nil
}

// Update は指定されたフィールドのみを更新する。
// 更新対象がない場合や本文が空の場合はValidationError、記事が存在しない場合はPostNotFoundを返す。
func (s *Service) Update(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error) {
	if patch.IsEmpty() {
		return nil, model.NewValidationError()
	}

	if patch.Title != nil {
		title, err := s.sanitizeTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if patch.Content != nil {
		if *patch.Content == "" {
			return nil, model.NewValidationError()
		}
		content := s.sanitizer.SanitizeContent(*patch.Content)
		patch.Content = &content
	}

	post, err := s.postRepo.Patch(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}

	slog.Info("post updated", slog.String("post_id", id))
	return post, nil
}

// Replace はタイトル、本文、公開状態を全て置き換える。
// 記事が存在しない場合はPostNotFoundを返す。
func (s *Service) Replace(ctx context.Context, id string, in Input) (*model.Post, error) {
	title, content, err := s.sanitize(in)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.Replace(ctx, &model.Post{
		ID:        id,
		Title:     title,
		Content:   content,
		Published: in.Published,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}

	slog.Info("post replaced", slog.String("post_id", id))
	return post, nil
}

// Delete は記事を削除する。記事が存在しない場合はPostNotFoundを返す。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.postRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if !deleted {
		return model.NewPostNotFoundError()
	}

	slog.Info("post deleted", slog.String("post_id", id))
	return nil
}

// sanitize はタイトルと本文をサニタイズする。
func (s *Service) sanitize(in Input) (string, string, error) {
	title, err := s.sanitizeTitle(in.Title)
	if err != nil {
		return "", "", err
	}
	return title, s.sanitizer.SanitizeContent(in.Content), nil
}

// sanitizeTitle はタイトルのタグを除去する。
// 除去後に空、またはMaxTitleLengthを超える場合はValidationErrorを返す。
func (s *Service) sanitizeTitle(raw string) (string, error) {
	title := s.sanitizer.SanitizeTitle(raw)
	if title == "" || utf8.RuneCountInString(title) > MaxTitleLength {
		return "", model.NewValidationError()
	}
	return title, nil
}
