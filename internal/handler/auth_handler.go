// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/jobprep/internal/auth"
	"github.com/hitoshi/jobprep/internal/middleware"
	"github.com/hitoshi/jobprep/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (*model.User, *model.Session, error)
	SignIn(ctx context.Context, in auth.SignInInput) (*model.User, *model.Session, error)
	SignOut(ctx context.Context, token string) error
}

// SessionPeeker はセッションを延長せずに検証するインターフェース。
type SessionPeeker interface {
	Peek(ctx context.Context, token string) (string, error)
}

// UserGetter はユーザー情報を取得するインターフェース。
type UserGetter interface {
	Get(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler はメールアドレスとパスワードによる認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	peeker  SessionPeeker
	users   UserGetter
	cookie  auth.CookieConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, peeker SessionPeeker, users UserGetter, cookie auth.CookieConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		peeker:  peeker,
		users:   users,
		cookie:  cookie,
	}
}

// SignUp はアカウントを作成し、そのままサインイン状態にする。
// POST /auth/sign-up
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in auth.SignUpInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, session, err := h.service.SignUp(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, h.cookie, session)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// SignIn はメールアドレスとパスワードを検証してセッションを発行する。
// POST /auth/sign-in
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var in auth.SignInInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, session, err := h.service.SignIn(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, h.cookie, session)
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// SignOut はセッションを破棄する。
// セッションがなくても成功として扱い、Cookieは必ずクリアする。
// サーバー側の削除に失敗した場合はセッションが残っているため500を返す。
// POST /auth/sign-out
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookie)

	if token := auth.SessionTokenFromRequest(r); token != "" {
		if err := h.service.SignOut(r.Context(), token); err != nil {
			handleServiceError(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// セッションの延長は行わない。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := auth.SessionTokenFromRequest(r)
	if token == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	userID, err := h.peeker.Peek(r.Context(), token)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if userID == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
