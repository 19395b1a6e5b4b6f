package model

import "time"

// ExperienceLevel は求人の想定経験レベル。
type ExperienceLevel string

const (
	ExperienceJunior ExperienceLevel = "junior"
	ExperienceMid    ExperienceLevel = "mid-level"
	ExperienceSenior ExperienceLevel = "senior"
)

// JobInfo はユーザーが登録した求人情報を表す。
// 面接・質問の親リソースとなる。
type JobInfo struct {
	ID              string
	UserID          string
	Title           *string
	Name            string
	ExperienceLevel ExperienceLevel
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Interview は求人に紐づく模擬面接の記録を表す。
type Interview struct {
	ID         string
	JobInfoID  string
	Duration   string
	HumeChatID *string
	Feedback   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// QuestionDifficulty は技術質問の難易度。
type QuestionDifficulty string

const (
	DifficultyEasy   QuestionDifficulty = "easy"
	DifficultyMedium QuestionDifficulty = "medium"
	DifficultyHard   QuestionDifficulty = "hard"
)

// Question は求人に紐づく技術質問を表す。
type Question struct {
	ID         string
	JobInfoID  string
	Text       string
	Difficulty QuestionDifficulty
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
