// Package interview は模擬面接記録の作成・更新・参照を提供する。
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/permission"
	"github.com/hitoshi/jobprep/internal/repository"
	"github.com/hitoshi/jobprep/internal/validation"
)

// InitialDuration は作成直後の面接の所要時間。
const InitialDuration = "00:00:00"

// JobInfoGetter はユーザー所有の求人情報を取得するインターフェース。
// 見つからない場合と他ユーザー所有の場合はJOB_INFO_NOT_FOUNDを返す。
type JobInfoGetter interface {
	Get(ctx context.Context, userID, id string) (*model.JobInfo, error)
}

// Gate は機能の利用可否を判定するインターフェース。
type Gate interface {
	Decide(ctx context.Context, userID string, f permission.Feature) (permission.Decision, error)
}

// UpdateInput は面接更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Duration   *string `json:"duration" validate:"omitempty,min=1,max=16"`
	HumeChatID *string `json:"humeChatId" validate:"omitempty,max=255"`
	Feedback   *string `json:"feedback" validate:"omitempty,max=50000"`
}

// Service は面接のビジネスロジックを提供する。
type Service struct {
	repo      repository.InterviewRepository
	jobInfos  JobInfoGetter
	gate      Gate
	validator *validation.Validator
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.InterviewRepository, jobInfos JobInfoGetter, gate Gate, v *validation.Validator) *Service {
	return &Service{repo: repo, jobInfos: jobInfos, gate: gate, validator: v, now: time.Now}
}

// Create は求人情報に紐づく面接を作成する。
//
// 無制限権限があればそのまま作成し、上限付きの場合は件数確認と作成を
// 一つのトランザクションで行うため同時に作成しても上限を超えない。
func (s *Service) Create(ctx context.Context, userID, jobInfoID string) (*model.Interview, error) {
	if _, err := s.jobInfos.Get(ctx, userID, jobInfoID); err != nil {
		return nil, err
	}

	d, err := s.gate.Decide(ctx, userID, permission.FeatureInterviews)
	if err != nil {
		return nil, fmt.Errorf("failed to check interview permission: %w", err)
	}
	if !d.Allowed {
		return nil, model.NewPlanLimitError("面接")
	}

	now := s.now().UTC()
	iv := &model.Interview{
		ID:        uuid.New().String(),
		JobInfoID: jobInfoID,
		Duration:  InitialDuration,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if d.Unlimited {
		if err := s.repo.Create(ctx, iv); err != nil {
			return nil, fmt.Errorf("failed to create interview: %w", err)
		}
	} else {
		ok, err := s.repo.CreateWithinLimit(ctx, userID, d.Limit, iv)
		if err != nil {
			return nil, fmt.Errorf("failed to create interview: %w", err)
		}
		if !ok {
			return nil, model.NewPlanLimitError("面接")
		}
	}

	slog.Info("面接を作成しました",
		slog.String("user_id", userID),
		slog.String("interview_id", iv.ID),
		slog.Bool("unlimited", d.Unlimited),
	)
	return iv, nil
}

// Get はユーザーが所有する面接を返す。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Interview, error) {
	iv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find interview: %w", err)
	}
	if iv == nil {
		return nil, model.NewInterviewNotFoundError(id)
	}
	if _, err := s.jobInfos.Get(ctx, userID, iv.JobInfoID); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, model.NewInterviewNotFoundError(id)
		}
		return nil, err
	}
	return iv, nil
}

// List は求人情報に紐づく面接を返す。
func (s *Service) List(ctx context.Context, userID, jobInfoID string) ([]*model.Interview, error) {
	if _, err := s.jobInfos.Get(ctx, userID, jobInfoID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByJobInfoID(ctx, jobInfoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	return list, nil
}

// Update は面接のチャットID・所要時間・フィードバックを更新する。
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*model.Interview, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	iv, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Duration != nil {
		iv.Duration = *in.Duration
	}
	if in.HumeChatID != nil {
		iv.HumeChatID = in.HumeChatID
	}
	if in.Feedback != nil {
		iv.Feedback = in.Feedback
	}
	iv.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, iv); err != nil {
		return nil, fmt.Errorf("failed to update interview: %w", err)
	}
	return iv, nil
}
