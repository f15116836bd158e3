package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/quill/internal/model"
)

const postColumns = `id, title, content, published, author_id, created_at, updated_at`

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresPostRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db, now: time.Now}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(s rowScanner) (*model.Post, error) {
	p := &model.Post{}
	if err := s.Scan(&p.ID, &p.Title, &p.Content, &p.Published, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPublished は公開済みの記事を作成日時の降順で返す。
func (r *PostgresPostRepo) ListPublished(ctx context.Context) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE published = true ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	return p, nil
}

// Create は記事を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, published, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		post.ID, post.Title, post.Content, post.Published, post.AuthorID, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Replace はtitle、content、publishedを上書きする。見つからない場合はnilを返す。
func (r *PostgresPostRepo) Replace(ctx context.Context, post *model.Post) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx,
		`UPDATE posts SET title = $2, content = $3, published = $4, updated_at = $5
		 WHERE id = $1
		 RETURNING `+postColumns,
		post.ID, post.Title, post.Content, post.Published, r.now(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replace post: %w", err)
	}
	return p, nil
}

// Patch はnilでないフィールドのみを更新する。見つからない場合はnilを返す。
// NULLを渡したカラムはCOALESCEで既存の値を維持する。
func (r *PostgresPostRepo) Patch(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx,
		`UPDATE posts SET
			title = COALESCE($2::varchar, title),
			content = COALESCE($3::text, content),
			published = COALESCE($4::boolean, published),
			updated_at = $5
		 WHERE id = $1
		 RETURNING `+postColumns,
		id, nullString(patch.Title), nullString(patch.Content), nullBool(patch.Published), r.now(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to patch post: %w", err)
	}
	return p, nil
}

// Delete は指定IDの記事を削除する。削除対象が存在しない場合はfalseを返す。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
