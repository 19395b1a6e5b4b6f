// Package auth はパスワード認証、セッション管理、現在ユーザーの解決を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/repository"
	"github.com/hitoshi/jobprep/internal/validation"
)

// SignUpInput はサインアップの入力。
type SignUpInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// SignInInput はサインインの入力。
type SignInInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users     repository.UserRepository
	sessions  *SessionManager
	validator *validation.Validator
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, sessions *SessionManager, v *validation.Validator) *Service {
	return &Service{
		users:     users,
		sessions:  sessions,
		validator: v,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp はユーザーを作成してセッションを発行する。
// 入力検証はストレージに触れる前に行う。
// 同じメールアドレスのアカウントが存在する場合はACCOUNT_EXISTSを返し、ユーザーは作成しない。
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*model.User, *model.Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	err := s.validator.Struct(in)
	if msg := ValidatePassword(in.Password); in.Password != "" && msg != "" {
		err = validation.Merge(err, "password", msg)
	}
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewAccountExistsError()
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: &hash,
		Plan:         model.PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// 同時サインアップで先に作成された場合
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, nil, model.NewAccountExistsError()
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user signed up", slog.String("user_id", user.ID))
	return user, session, nil
}

// SignIn はメールアドレスとパスワードを検証してセッションを発行する。
// メールアドレスが存在しない場合とパスワード不一致は区別しない。
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*model.User, *model.Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil || user.PasswordHash == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	ok, err := VerifyPassword(in.Password, *user.PasswordHash)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		slog.Info("sign-in rejected", slog.String("user_id", user.ID))
		return nil, nil, model.NewInvalidCredentialsError()
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user signed in", slog.String("user_id", user.ID))
	return user, session, nil
}

// SignOut はトークンに対応するセッションを削除する。
// トークンがない場合や既に削除済みの場合も成功扱い。
func (s *Service) SignOut(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}
