package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/jobprep/internal/auth"
	"github.com/hitoshi/jobprep/internal/middleware"
	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/user"
)

func TestUserHandler_Withdraw_ClearsCookie(t *testing.T) {
	var withdrawn string
	svc := &mockUserService{
		withdrawFn: func(ctx context.Context, userID string) error {
			withdrawn = userID
			return nil
		},
	}
	h := NewUserHandler(svc, &mockSessions{}, auth.CookieConfig{})

	req := withUserID(httptest.NewRequest(http.MethodDelete, "/api/users/me", nil), "user-1")
	w := httptest.NewRecorder()
	h.Withdraw(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if withdrawn != "user-1" {
		t.Errorf("withdrawn = %q", withdrawn)
	}
	if c := findCookie(w, auth.SessionCookieName); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected cleared cookie, got %+v", c)
	}
}

func TestUserHandler_Withdraw_UserNotFound(t *testing.T) {
	svc := &mockUserService{
		withdrawFn: func(ctx context.Context, userID string) error {
			return model.NewUserNotFoundError()
		},
	}
	h := NewUserHandler(svc, &mockSessions{}, auth.CookieConfig{})

	req := withUserID(httptest.NewRequest(http.MethodDelete, "/api/users/me", nil), "user-1")
	w := httptest.NewRecorder()
	h.Withdraw(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestUserHandler_UpdateProfile(t *testing.T) {
	svc := &mockUserService{
		updateProfileFn: func(ctx context.Context, userID string, in user.ProfileInput) (*model.User, error) {
			u := testUser()
			u.Name = in.Name
			u.Image = in.Image
			return u, nil
		},
	}
	h := NewUserHandler(svc, &mockSessions{}, auth.CookieConfig{})

	body := `{"name":"Hanako","image":"https://example.com/a.png"}`
	req := withUserID(httptest.NewRequest(http.MethodPatch, "/api/users/me", strings.NewReader(body)), "user-1")
	w := httptest.NewRecorder()
	h.UpdateProfile(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp map[string]any
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["name"] != "Hanako" || resp["image"] != "https://example.com/a.png" {
		t.Errorf("unexpected body: %v", resp)
	}
}

func TestUserHandler_ListSessions_MarksCurrent(t *testing.T) {
	now := time.Now()
	sessions := &mockSessions{
		listFn: func(ctx context.Context, userID string) ([]*model.Session, error) {
			return []*model.Session{
				{ID: "s-current", UserID: userID, TokenHash: "h1", ExpiresAt: now.Add(time.Hour), CreatedAt: now},
				{ID: "s-other", UserID: userID, TokenHash: "h2", ExpiresAt: now.Add(time.Hour), CreatedAt: now.Add(-time.Hour)},
			}, nil
		},
	}
	h := NewUserHandler(&mockUserService{}, sessions, auth.CookieConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/me/sessions", nil)
	req = req.WithContext(middleware.ContextWithCurrentUser(req.Context(), &auth.CurrentUser{
		UserID:  "user-1",
		Session: &model.Session{ID: "s-current", UserID: "user-1"},
	}))
	w := httptest.NewRecorder()
	h.ListSessions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if strings.Contains(w.Body.String(), "h1") {
		t.Error("token hash must not be exposed")
	}
	var resp []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("sessions = %d, want 2", len(resp))
	}
	if resp[0]["current"] != true || resp[1]["current"] != false {
		t.Errorf("current flags = %v, %v", resp[0]["current"], resp[1]["current"])
	}
}

func TestUserHandler_RevokeSessions(t *testing.T) {
	var revoked string
	sessions := &mockSessions{
		deleteAllFn: func(ctx context.Context, userID string) error {
			revoked = userID
			return nil
		},
	}
	h := NewUserHandler(&mockUserService{}, sessions, auth.CookieConfig{})

	req := withUserID(httptest.NewRequest(http.MethodDelete, "/api/users/me/sessions", nil), "user-1")
	w := httptest.NewRecorder()
	h.RevokeSessions(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if revoked != "user-1" {
		t.Errorf("revoked = %q", revoked)
	}
}

func TestAppEntryHandler(t *testing.T) {
	tests := []struct {
		name         string
		current      *auth.CurrentUser
		wantStatus   int
		wantLocation string
		wantCookie   bool
	}{
		{
			name:         "未認証はサインインへ",
			current:      &auth.CurrentUser{},
			wantStatus:   http.StatusSeeOther,
			wantLocation: auth.DefaultSignInPath,
		},
		{
			name:         "プロフィールなしはオンボーディングへ",
			current:      &auth.CurrentUser{UserID: "user-1", Session: testSession()},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/welcome",
		},
		{
			name:       "プロフィールありは本体",
			current:    &auth.CurrentUser{UserID: "user-1", User: testUser(), Session: testSession(), Refreshed: true},
			wantStatus: http.StatusOK,
			wantCookie: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOpts auth.ResolveOptions
			resolver := &mockResolver{
				resolveFn: func(r *http.Request, opts auth.ResolveOptions) (*auth.CurrentUser, error) {
					gotOpts = opts
					return tt.current, nil
				},
			}
			h := NewAppEntryHandler(resolver, auth.CookieConfig{}, "/welcome")

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app", nil))

			if !gotOpts.IncludeProfile {
				t.Error("app entry must load the profile")
			}
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantLocation != "" && w.Header().Get("Location") != tt.wantLocation {
				t.Errorf("Location = %q, want %q", w.Header().Get("Location"), tt.wantLocation)
			}
			if got := findCookie(w, auth.SessionCookieName) != nil; got != tt.wantCookie {
				t.Errorf("cookie re-issued = %v, want %v", got, tt.wantCookie)
			}
		})
	}
}
