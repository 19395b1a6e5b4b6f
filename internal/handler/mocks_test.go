package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobprep/internal/auth"
	"github.com/hitoshi/jobprep/internal/interview"
	"github.com/hitoshi/jobprep/internal/jobinfo"
	"github.com/hitoshi/jobprep/internal/middleware"
	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/permission"
	"github.com/hitoshi/jobprep/internal/question"
	"github.com/hitoshi/jobprep/internal/user"
)

// --- モック定義 ---

type mockAuthService struct {
	signUpFn  func(ctx context.Context, in auth.SignUpInput) (*model.User, *model.Session, error)
	signInFn  func(ctx context.Context, in auth.SignInInput) (*model.User, *model.Session, error)
	signOutFn func(ctx context.Context, token string) error
}

func (m *mockAuthService) SignUp(ctx context.Context, in auth.SignUpInput) (*model.User, *model.Session, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, in)
	}
	return nil, nil, nil
}

func (m *mockAuthService) SignIn(ctx context.Context, in auth.SignInInput) (*model.User, *model.Session, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, in)
	}
	return nil, nil, nil
}

func (m *mockAuthService) SignOut(ctx context.Context, token string) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, token)
	}
	return nil
}

type mockPeeker struct {
	peekFn func(ctx context.Context, token string) (string, error)
}

func (m *mockPeeker) Peek(ctx context.Context, token string) (string, error) {
	if m.peekFn != nil {
		return m.peekFn(ctx, token)
	}
	return "", nil
}

type mockUserGetter struct {
	getFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockUserGetter) Get(ctx context.Context, userID string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, model.NewUserNotFoundError()
}

type mockJobInfoService struct {
	getFn    func(ctx context.Context, userID, id string) (*model.JobInfo, error)
	listFn   func(ctx context.Context, userID string) ([]*model.JobInfo, error)
	createFn func(ctx context.Context, userID string, in jobinfo.CreateInput) (*model.JobInfo, error)
	updateFn func(ctx context.Context, userID, id string, in jobinfo.UpdateInput) (*model.JobInfo, error)
	deleteFn func(ctx context.Context, userID, id string) error
}

func (m *mockJobInfoService) Get(ctx context.Context, userID, id string) (*model.JobInfo, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, model.NewJobInfoNotFoundError(id)
}

func (m *mockJobInfoService) List(ctx context.Context, userID string) ([]*model.JobInfo, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockJobInfoService) Create(ctx context.Context, userID string, in jobinfo.CreateInput) (*model.JobInfo, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return nil, nil
}

func (m *mockJobInfoService) Update(ctx context.Context, userID, id string, in jobinfo.UpdateInput) (*model.JobInfo, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, in)
	}
	return nil, model.NewJobInfoNotFoundError(id)
}

func (m *mockJobInfoService) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

type mockInterviewService struct {
	createFn func(ctx context.Context, userID, jobInfoID string) (*model.Interview, error)
	getFn    func(ctx context.Context, userID, id string) (*model.Interview, error)
	listFn   func(ctx context.Context, userID, jobInfoID string) ([]*model.Interview, error)
	updateFn func(ctx context.Context, userID, id string, in interview.UpdateInput) (*model.Interview, error)
}

func (m *mockInterviewService) Create(ctx context.Context, userID, jobInfoID string) (*model.Interview, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, jobInfoID)
	}
	return nil, nil
}

func (m *mockInterviewService) Get(ctx context.Context, userID, id string) (*model.Interview, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, model.NewInterviewNotFoundError(id)
}

func (m *mockInterviewService) List(ctx context.Context, userID, jobInfoID string) ([]*model.Interview, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, jobInfoID)
	}
	return nil, nil
}

func (m *mockInterviewService) Update(ctx context.Context, userID, id string, in interview.UpdateInput) (*model.Interview, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, in)
	}
	return nil, model.NewInterviewNotFoundError(id)
}

type mockQuestionService struct {
	createFn func(ctx context.Context, userID, jobInfoID string, in question.CreateInput) (*model.Question, error)
	getFn    func(ctx context.Context, userID, id string) (*model.Question, error)
	listFn   func(ctx context.Context, userID, jobInfoID string) ([]*model.Question, error)
}

func (m *mockQuestionService) Create(ctx context.Context, userID, jobInfoID string, in question.CreateInput) (*model.Question, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, jobInfoID, in)
	}
	return nil, nil
}

func (m *mockQuestionService) Get(ctx context.Context, userID, id string) (*model.Question, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, model.NewQuestionNotFoundError(id)
}

func (m *mockQuestionService) List(ctx context.Context, userID, jobInfoID string) ([]*model.Question, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, jobInfoID)
	}
	return nil, nil
}

type mockPermissions struct {
	summaryFn func(ctx context.Context, userID string) ([]permission.Decision, error)
}

func (m *mockPermissions) Summary(ctx context.Context, userID string) ([]permission.Decision, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, userID)
	}
	return nil, nil
}

type mockUserService struct {
	withdrawFn      func(ctx context.Context, userID string) error
	updateProfileFn func(ctx context.Context, userID string, in user.ProfileInput) (*model.User, error)
}

func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID string, in user.ProfileInput) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, in)
	}
	return nil, model.NewUserNotFoundError()
}

type mockSessions struct {
	listFn      func(ctx context.Context, userID string) ([]*model.Session, error)
	deleteAllFn func(ctx context.Context, userID string) error
}

func (m *mockSessions) ListForUser(ctx context.Context, userID string) ([]*model.Session, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSessions) DeleteAll(ctx context.Context, userID string) error {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx, userID)
	}
	return nil
}

type mockResolver struct {
	resolveFn func(r *http.Request, opts auth.ResolveOptions) (*auth.CurrentUser, error)
}

func (m *mockResolver) ResolveRequest(r *http.Request, opts auth.ResolveOptions) (*auth.CurrentUser, error) {
	if m.resolveFn != nil {
		return m.resolveFn(r, opts)
	}
	return &auth.CurrentUser{}, nil
}

var (
	_ AuthServiceInterface      = (*mockAuthService)(nil)
	_ SessionPeeker             = (*mockPeeker)(nil)
	_ UserGetter                = (*mockUserGetter)(nil)
	_ JobInfoServiceInterface   = (*mockJobInfoService)(nil)
	_ InterviewServiceInterface = (*mockInterviewService)(nil)
	_ QuestionServiceInterface  = (*mockQuestionService)(nil)
	_ PermissionSummarizer      = (*mockPermissions)(nil)
	_ UserServiceInterface      = (*mockUserService)(nil)
	_ SessionLister             = (*mockSessions)(nil)
)

// --- テストヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseAPIErrorResponse はレスポンスボディからエラーレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
