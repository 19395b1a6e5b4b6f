package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/jobprep/internal/auth"
	"github.com/hitoshi/jobprep/internal/middleware"
	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Withdraw はセッションとユーザーを削除する。
	// 求人情報、面接、質問はCASCADEで削除される。
	Withdraw(ctx context.Context, userID string) error
	UpdateProfile(ctx context.Context, userID string, in user.ProfileInput) (*model.User, error)
}

// SessionLister はユーザーのセッション一覧と一括失効を提供する。
type SessionLister interface {
	ListForUser(ctx context.Context, userID string) ([]*model.Session, error)
	DeleteAll(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service  UserServiceInterface
	sessions SessionLister
	cookie   auth.CookieConfig
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, sessions SessionLister, cookie auth.CookieConfig) *UserHandler {
	return &UserHandler{
		service:  service,
		sessions: sessions,
		cookie:   cookie,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	auth.ClearSessionCookie(w, h.cookie)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateProfile は表示名とアバター画像を更新する。
// PATCH /api/users/me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in user.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// ListSessions はログイン中の端末一覧を返す。
// GET /api/users/me/sessions
func (h *UserHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	sessions, err := h.sessions.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var currentID string
	if cu, ok := middleware.CurrentUserFromContext(r.Context()); ok && cu.Session != nil {
		currentID = cu.Session.ID
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, sessionResponse{
			ID:        s.ID,
			Current:   s.ID == currentID,
			ExpiresAt: s.ExpiresAt,
			CreatedAt: s.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// RevokeSessions は全端末からサインアウトする。
// DELETE /api/users/me/sessions
func (h *UserHandler) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.sessions.DeleteAll(r.Context(), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	auth.ClearSessionCookie(w, h.cookie)
	w.WriteHeader(http.StatusNoContent)
}
