// Package permission はプランごとの機能権限と無料プランの利用上限判定を提供する。
package permission

import (
	"context"
	"slices"

	"github.com/hitoshi/jobprep/internal/model"
)

// Permission はプランが付与する機能権限の名前。
type Permission string

const (
	UnlimitedInterviews     Permission = "unlimited_interviews"
	UnlimitedQuestions      Permission = "unlimited_questions"
	UnlimitedResumeAnalyses Permission = "unlimited_resume_analyses"
	LimitedInterviews       Permission = "limited_interviews"
	LimitedQuestions        Permission = "limited_questions"
)

// planPermissions はプランと権限の対応表。デプロイでのみ変わる。
var planPermissions = map[model.Plan][]Permission{
	model.PlanFree: {LimitedInterviews, LimitedQuestions},
	model.PlanPro:  {UnlimitedInterviews, UnlimitedQuestions, UnlimitedResumeAnalyses},
}

// PlanHas はプランが権限を持つかどうかを返す。
// 未知のプランは無料プランとして扱う。
func PlanHas(plan model.Plan, p Permission) bool {
	perms, ok := planPermissions[plan]
	if !ok {
		perms = planPermissions[model.PlanFree]
	}
	return slices.Contains(perms, p)
}

// Checker はユーザーが権限を持つかどうかを判定する。
// 判定結果は真偽値で、エラーはストレージや外部APIの障害のみを表す。
type Checker interface {
	HasPermission(ctx context.Context, userID string, p Permission) (bool, error)
}
