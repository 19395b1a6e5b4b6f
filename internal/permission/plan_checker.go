package permission

import (
	"context"
	"fmt"

	"github.com/hitoshi/jobprep/internal/model"
)

// UserFinder はユーザー取得のインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// PlanChecker はユーザーのプランとローカルの対応表で権限を判定する。
type PlanChecker struct {
	users UserFinder
}

// NewPlanChecker はPlanCheckerを生成する。
func NewPlanChecker(users UserFinder) *PlanChecker {
	return &PlanChecker{users: users}
}

// HasPermission はユーザーのプランが権限を持つかどうかを返す。
// ユーザーが存在しない場合はfalse。
func (c *PlanChecker) HasPermission(ctx context.Context, userID string, p Permission) (bool, error) {
	if userID == "" {
		return false, nil
	}
	user, err := c.users.FindByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load user plan: %w", err)
	}
	if user == nil {
		return false, nil
	}
	return PlanHas(model.ParsePlan(string(user.Plan)), p), nil
}

// compile-time interface check
var _ Checker = (*PlanChecker)(nil)
