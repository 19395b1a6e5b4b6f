// Package model はドメインモデルを定義する。
package model

import "time"

// Plan はユーザーの契約プランを表す。
type Plan string

const (
	// PlanFree は無料プラン。新規ユーザーのデフォルト。
	PlanFree Plan = "free"
	// PlanPro は有料プラン。
	PlanPro Plan = "pro"
)

// ParsePlan は文字列をPlanに変換する。
// 未知の値や空文字の場合は最下位のPlanFreeを返す。
func ParsePlan(s string) Plan {
	switch Plan(s) {
	case PlanPro:
		return PlanPro
	default:
		return PlanFree
	}
}

// Valid はPlanが定義済みの値かどうかを返す。
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPro
}

// User はサービス利用ユーザーを表す。
type User struct {
	ID              string
	Name            string
	Email           string
	Image           *string
	PasswordHash    *string
	EmailVerifiedAt *time.Time
	Plan            Plan
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Session はユーザーのログインセッションを表す。
// Tokenは発行直後のみ保持し、永続化されるのはTokenHashだけ。
type Session struct {
	ID        string
	UserID    string
	Token     string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ValidAt は指定時刻においてセッションが有効かどうかを返す。
func (s *Session) ValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
