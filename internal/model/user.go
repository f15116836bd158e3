// Package model はドメインモデルを定義する。
package model

import "time"

// User はブログのユーザーを表す。
// PasswordHashはbcryptハッシュであり、平文のパスワードは保持しない。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
