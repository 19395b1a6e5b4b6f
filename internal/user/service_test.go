package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/repository"
	"github.com/hitoshi/jobprep/internal/validation"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.User, error)
	deleteByIDFn    func(ctx context.Context, id string) error
	updateProfileFn func(ctx context.Context, id, name string, image *string) (*model.User, error)
	updatePlanFn    func(ctx context.Context, id string, plan model.Plan) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}
func (m *mockUserRepo) UpdateProfile(ctx context.Context, id, name string, image *string) (*model.User, error) {
	return m.updateProfileFn(ctx, id, name, image)
}
func (m *mockUserRepo) UpdatePlan(ctx context.Context, id string, plan model.Plan) (*model.User, error) {
	return m.updatePlanFn(ctx, id, plan)
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFn(ctx, id)
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

type mockSessionRevoker struct {
	deleteAllFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRevoker) DeleteAll(ctx context.Context, userID string) error {
	return m.deleteAllFn(ctx, userID)
}

// --- テスト ---

// TestService_Withdraw はセッション削除の後にユーザーが削除されることを検証する。
func TestService_Withdraw(t *testing.T) {
	var calls []string

	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "test@example.com"}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			calls = append(calls, "user")
			return nil
		},
	}
	sessions := &mockSessionRevoker{
		deleteAllFn: func(ctx context.Context, userID string) error {
			calls = append(calls, "sessions")
			return nil
		},
	}

	svc := NewService(userRepo, sessions, validation.New())

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	if len(calls) != 2 || calls[0] != "sessions" || calls[1] != "user" {
		t.Errorf("削除順序 = %v, want [sessions user]", calls)
	}
}

// TestService_Withdraw_UserNotFound は存在しないユーザーの退会がエラーになることを検証する。
func TestService_Withdraw_UserNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, nil, validation.New())

	err := svc.Withdraw(context.Background(), "nonexistent-user")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("USER_NOT_FOUNDが返されるべき: %v", err)
	}
}

// TestService_Withdraw_SessionDeleteFails はセッション削除の失敗でユーザーを削除しないことを検証する。
func TestService_Withdraw_SessionDeleteFails(t *testing.T) {
	userDeleted := false
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			userDeleted = true
			return nil
		},
	}
	sessions := &mockSessionRevoker{
		deleteAllFn: func(ctx context.Context, userID string) error {
			return errors.New("db down")
		},
	}

	if err := NewService(userRepo, sessions, validation.New()).Withdraw(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error, got nil")
	}
	if userDeleted {
		t.Error("セッション削除に失敗したのにユーザーが削除された")
	}
}

func TestService_UpdateProfile(t *testing.T) {
	userRepo := &mockUserRepo{
		updateProfileFn: func(ctx context.Context, id, name string, image *string) (*model.User, error) {
			return &model.User{ID: id, Name: name, Image: image}, nil
		},
	}
	svc := NewService(userRepo, nil, validation.New())

	t.Run("成功", func(t *testing.T) {
		img := "https://example.com/a.png"
		u, err := svc.UpdateProfile(context.Background(), "user-1", ProfileInput{Name: "  Alice ", Image: &img})
		if err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}
		if u.Name != "Alice" {
			t.Errorf("Name = %q, want %q", u.Name, "Alice")
		}
	})

	t.Run("表示名のタグを除去", func(t *testing.T) {
		u, err := svc.UpdateProfile(context.Background(), "user-1", ProfileInput{Name: "<b>Alice</b><script>x()</script>"})
		if err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}
		if u.Name != "Alice" {
			t.Errorf("Name = %q, want %q", u.Name, "Alice")
		}
	})

	t.Run("タグだけの表示名は必須エラー", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), "user-1", ProfileInput{Name: "<i></i>"})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Fields["name"] == "" {
			t.Errorf("表示名の検証エラーが返されるべき: %v", err)
		}
	})

	t.Run("画像URLが不正", func(t *testing.T) {
		img := "not a url"
		_, err := svc.UpdateProfile(context.Background(), "user-1", ProfileInput{Name: "Alice", Image: &img})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Fields["image"] == "" {
			t.Errorf("画像の検証エラーが返されるべき: %v", err)
		}
	})
}

func TestService_ChangePlan(t *testing.T) {
	userRepo := &mockUserRepo{
		updatePlanFn: func(ctx context.Context, id string, plan model.Plan) (*model.User, error) {
			if id == "ghost" {
				return nil, nil
			}
			return &model.User{ID: id, Plan: plan}, nil
		},
	}
	svc := NewService(userRepo, nil, validation.New())
	ctx := context.Background()

	u, err := svc.ChangePlan(ctx, "user-1", " PRO ")
	if err != nil || u.Plan != model.PlanPro {
		t.Errorf("ChangePlan() = %+v, %v", u, err)
	}

	tests := []struct {
		name string
		id   string
		plan string
		code string
	}{
		{"未定義のプラン", "user-1", "enterprise", model.ErrCodeInvalidPlan},
		{"存在しないユーザー", "ghost", "free", model.ErrCodeUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ChangePlan(ctx, tt.id, tt.plan)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != tt.code {
				t.Errorf("ChangePlan() error = %v, want %s", err, tt.code)
			}
		})
	}
}
