// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/quill/internal/model"
)

// ErrDuplicateEmail はメールアドレスのユニーク制約違反を表す。
// アプリケーション側の重複チェックをすり抜けた同時登録で発生する。
var ErrDuplicateEmail = errors.New("repository: duplicate email")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// PostRepository は記事データの永続化インターフェース。
type PostRepository interface {
	// ListPublished は公開済み（published = true）の記事を作成日時の降順で返す。
	ListPublished(ctx context.Context) ([]*model.Post, error)

	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// Create は記事を作成する。
	Create(ctx context.Context, post *model.Post) error

	// Replace はtitle、content、publishedを上書きし、更新後の記事を返す。
	// 見つからない場合はnilを返す。
	Replace(ctx context.Context, post *model.Post) (*model.Post, error)

	// Patch はnilでないフィールドのみを更新し、更新後の記事を返す。
	// 見つからない場合はnilを返す。
	Patch(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error)

	// Delete は指定IDの記事を削除する。削除対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}
