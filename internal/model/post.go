package model

import "time"

// Post はブログ記事を表す。
// AuthorIDは作成時に認証済みユーザーのIDから設定され、以降は変更されない。
type Post struct {
	ID        string
	Title     string
	Content   string
	Published bool
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostPatch は記事の部分更新内容を表す。
// nilのフィールドは変更せず、既存の値を維持する。
type PostPatch struct {
	Title     *string
	Content   *string
	Published *bool
}

// IsEmpty は更新対象のフィールドが1つもないかを返す。
func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Published == nil
}
