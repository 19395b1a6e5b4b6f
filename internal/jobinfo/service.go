// Package jobinfo は求人情報の所有者スコープのCRUDを提供する。
package jobinfo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/repository"
	"github.com/hitoshi/jobprep/internal/security"
	"github.com/hitoshi/jobprep/internal/validation"
)

// CreateInput は求人情報作成の入力。
type CreateInput struct {
	Title           *string `json:"title" validate:"omitempty,max=255"`
	Name            string  `json:"name" validate:"required,max=255"`
	ExperienceLevel string  `json:"experienceLevel" validate:"required,oneof=junior mid-level senior"`
	Description     string  `json:"description" validate:"required,max=20000"`
}

// UpdateInput は求人情報更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Title           *string `json:"title" validate:"omitempty,max=255"`
	Name            *string `json:"name" validate:"omitempty,min=1,max=255"`
	ExperienceLevel *string `json:"experienceLevel" validate:"omitempty,oneof=junior mid-level senior"`
	Description     *string `json:"description" validate:"omitempty,min=1,max=20000"`
}

// Service は求人情報のビジネスロジックを提供する。
// 他ユーザーの求人情報は存在しないものとして扱う。
// 自由記述はタグを除去してから検証・保存する。
type Service struct {
	repo      repository.JobInfoRepository
	validator *validation.Validator
	sanitizer *security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.JobInfoRepository, v *validation.Validator) *Service {
	return &Service{repo: repo, validator: v, sanitizer: security.NewTextSanitizer(), now: time.Now}
}

// Get はユーザー所有の求人情報を返す。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.JobInfo, error) {
	j, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find job info: %w", err)
	}
	if j == nil || j.UserID != userID {
		return nil, model.NewJobInfoNotFoundError(id)
	}
	return j, nil
}

// List はユーザーの求人情報一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.JobInfo, error) {
	list, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job infos: %w", err)
	}
	return list, nil
}

// Create は求人情報を作成する。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.JobInfo, error) {
	in.Title = s.sanitizer.CleanPtr(in.Title)
	in.Name = s.sanitizer.Clean(in.Name)
	in.Description = s.sanitizer.Clean(in.Description)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	j := &model.JobInfo{
		ID:              uuid.New().String(),
		UserID:          userID,
		Title:           in.Title,
		Name:            in.Name,
		ExperienceLevel: model.ExperienceLevel(in.ExperienceLevel),
		Description:     in.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to create job info: %w", err)
	}

	slog.Info("求人情報を作成しました",
		slog.String("user_id", userID),
		slog.String("job_info_id", j.ID),
	)
	return j, nil
}

// Update は求人情報を部分更新する。
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*model.JobInfo, error) {
	in.Title = s.sanitizer.CleanPtr(in.Title)
	in.Name = s.sanitizer.CleanPtr(in.Name)
	in.Description = s.sanitizer.CleanPtr(in.Description)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	j, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		j.Title = in.Title
	}
	if in.Name != nil {
		j.Name = *in.Name
	}
	if in.ExperienceLevel != nil {
		j.ExperienceLevel = model.ExperienceLevel(*in.ExperienceLevel)
	}
	if in.Description != nil {
		j.Description = *in.Description
	}
	j.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to update job info: %w", err)
	}
	return j, nil
}

// Delete は求人情報を削除する。配下の面接と質問も削除される。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete job info: %w", err)
	}

	slog.Info("求人情報を削除しました",
		slog.String("user_id", userID),
		slog.String("job_info_id", id),
	)
	return nil
}
