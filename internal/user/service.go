// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/repository"
	"github.com/hitoshi/jobprep/internal/security"
	"github.com/hitoshi/jobprep/internal/validation"
)

// SessionRevoker はユーザーの全セッションを失効させるインターフェース。
type SessionRevoker interface {
	DeleteAll(ctx context.Context, userID string) error
}

// ProfileInput はプロフィール更新の入力。
type ProfileInput struct {
	Name  string  `json:"name" validate:"required,max=255"`
	Image *string `json:"image" validate:"omitempty,url,max=2048"`
}

// Service はユーザー管理のサービス層。
// 退会、プロフィール同期、プラン変更を提供する。
type Service struct {
	userRepo  repository.UserRepository
	sessions  SessionRevoker
	validator *validation.Validator
	sanitizer *security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sessions SessionRevoker, v *validation.Validator) *Service {
	return &Service{
		userRepo:  userRepo,
		sessions:  sessions,
		validator: v,
		sanitizer: security.NewTextSanitizer(),
	}
}

// Get はユーザーを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: sessions → user（+ CASCADE: job_infos, interviews, questions）
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. セッションを削除
	if s.sessions != nil {
		if err := s.sessions.DeleteAll(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 2. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)
	return nil
}

// UpdateProfile は表示名とアバター画像を同期する。表示名のタグは除去する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	in.Name = s.sanitizer.Clean(in.Name)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, in.Name, in.Image)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// ChangePlan はユーザーの契約プランを変更する。
// 未定義のプラン名はINVALID_PLANとして拒否する。
func (s *Service) ChangePlan(ctx context.Context, userID, plan string) (*model.User, error) {
	p := model.Plan(strings.ToLower(strings.TrimSpace(plan)))
	if !p.Valid() {
		return nil, model.NewInvalidPlanError(plan)
	}

	user, err := s.userRepo.UpdatePlan(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("プランの更新に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("プランを変更しました",
		slog.String("user_id", userID),
		slog.String("plan", string(p)),
	)
	return user, nil
}
