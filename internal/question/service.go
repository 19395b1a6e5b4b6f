// Package question は求人情報に紐づく技術質問の作成と参照を提供する。
package question

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/permission"
	"github.com/hitoshi/jobprep/internal/repository"
	"github.com/hitoshi/jobprep/internal/validation"
)

// JobInfoGetter はユーザー所有の求人情報を取得するインターフェース。
type JobInfoGetter interface {
	Get(ctx context.Context, userID, id string) (*model.JobInfo, error)
}

// Gate は機能の利用可否を判定するインターフェース。
type Gate interface {
	Decide(ctx context.Context, userID string, f permission.Feature) (permission.Decision, error)
}

// CreateInput は質問作成の入力。
type CreateInput struct {
	Text       string `json:"text" validate:"required,max=10000"`
	Difficulty string `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

// Service は質問のビジネスロジックを提供する。
type Service struct {
	repo      repository.QuestionRepository
	jobInfos  JobInfoGetter
	gate      Gate
	validator *validation.Validator
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.QuestionRepository, jobInfos JobInfoGetter, gate Gate, v *validation.Validator) *Service {
	return &Service{repo: repo, jobInfos: jobInfos, gate: gate, validator: v, now: time.Now}
}

// Create は質問を作成する。無料プランでは上限を超えて作成できない。
func (s *Service) Create(ctx context.Context, userID, jobInfoID string, in CreateInput) (*model.Question, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.jobInfos.Get(ctx, userID, jobInfoID); err != nil {
		return nil, err
	}

	d, err := s.gate.Decide(ctx, userID, permission.FeatureQuestions)
	if err != nil {
		return nil, fmt.Errorf("failed to check question permission: %w", err)
	}
	if !d.Allowed {
		return nil, model.NewPlanLimitError("質問")
	}

	now := s.now().UTC()
	q := &model.Question{
		ID:         uuid.New().String(),
		JobInfoID:  jobInfoID,
		Text:       in.Text,
		Difficulty: model.QuestionDifficulty(in.Difficulty),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if d.Unlimited {
		err = s.repo.Create(ctx, q)
	} else {
		var ok bool
		ok, err = s.repo.CreateWithinLimit(ctx, userID, d.Limit, q)
		if err == nil && !ok {
			return nil, model.NewPlanLimitError("質問")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	slog.Info("質問を作成しました",
		slog.String("user_id", userID),
		slog.String("question_id", q.ID),
		slog.String("difficulty", in.Difficulty),
	)
	return q, nil
}

// Get はユーザーが所有する質問を返す。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Question, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find question: %w", err)
	}
	if q == nil {
		return nil, model.NewQuestionNotFoundError(id)
	}
	if _, err := s.jobInfos.Get(ctx, userID, q.JobInfoID); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, model.NewQuestionNotFoundError(id)
		}
		return nil, err
	}
	return q, nil
}

// List は求人情報に紐づく質問を返す。
func (s *Service) List(ctx context.Context, userID, jobInfoID string) ([]*model.Question, error) {
	if _, err := s.jobInfos.Get(ctx, userID, jobInfoID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByJobInfoID(ctx, jobInfoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return list, nil
}
