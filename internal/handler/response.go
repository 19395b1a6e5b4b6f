package handler

import (
	"time"

	"github.com/hitoshi/jobprep/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Image         *string `json:"image"`
	Plan          string  `json:"plan"`
	EmailVerified bool    `json:"emailVerified"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Image:         u.Image,
		Plan:          string(u.Plan),
		EmailVerified: u.EmailVerifiedAt != nil,
	}
}

// sessionResponse はアクティブセッション一覧の要素。トークンは含めない。
type sessionResponse struct {
	ID        string    `json:"id"`
	Current   bool      `json:"current"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type jobInfoResponse struct {
	ID              string    `json:"id"`
	Title           *string   `json:"title"`
	Name            string    `json:"name"`
	ExperienceLevel string    `json:"experienceLevel"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toJobInfoResponse(j *model.JobInfo) jobInfoResponse {
	return jobInfoResponse{
		ID:              j.ID,
		Title:           j.Title,
		Name:            j.Name,
		ExperienceLevel: string(j.ExperienceLevel),
		Description:     j.Description,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

type interviewResponse struct {
	ID         string    `json:"id"`
	JobInfoID  string    `json:"jobInfoId"`
	Duration   string    `json:"duration"`
	HumeChatID *string   `json:"humeChatId"`
	Feedback   *string   `json:"feedback"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toInterviewResponse(i *model.Interview) interviewResponse {
	return interviewResponse{
		ID:         i.ID,
		JobInfoID:  i.JobInfoID,
		Duration:   i.Duration,
		HumeChatID: i.HumeChatID,
		Feedback:   i.Feedback,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

type questionResponse struct {
	ID         string    `json:"id"`
	JobInfoID  string    `json:"jobInfoId"`
	Text       string    `json:"text"`
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toQuestionResponse(q *model.Question) questionResponse {
	return questionResponse{
		ID:         q.ID,
		JobInfoID:  q.JobInfoID,
		Text:       q.Text,
		Difficulty: string(q.Difficulty),
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  q.UpdatedAt,
	}
}
