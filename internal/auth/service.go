package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/quill/internal/model"
	"github.com/hitoshi/quill/internal/repository"
)

// LoginResult はログイン成功時に発行されたトークンを表す。
type LoginResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Service はログインに関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   *TokenIssuer
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, hasher PasswordHasher, tokens *TokenIssuer) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Login はメールアドレスとパスワードを検証し、トークンを発行する。
// 未登録のメールアドレスはUserNotFound、パスワード不一致はInvalidCredentialsを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		slog.Info("login rejected",
			slog.String("user_id", user.ID),
			slog.String("reason", "password mismatch"),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
