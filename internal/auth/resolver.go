package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/jobprep/internal/model"
)

// DefaultSignInPath はサインイン画面のパス。
const DefaultSignInPath = "/sign-in"

// UserFinder はユーザー取得のインターフェース。
// キャッシュ付きのユーザーリポジトリを渡す想定。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// CurrentUser はリクエストに紐づく認証状態。
// UserIDが空の場合は未認証。
type CurrentUser struct {
	UserID string
	// User はIncludeProfile指定時のみ設定される。
	// セッションが有効でもユーザー行がなければnilのまま。
	User    *model.User
	Session *model.Session
	// Refreshed はこの解決でセッションが延長されたかどうか。
	Refreshed bool

	signInPath string
}

// Authenticated は認証済みかどうかを返す。
func (c *CurrentUser) Authenticated() bool {
	return c != nil && c.UserID != ""
}

// RedirectToSignIn はサインイン画面へリダイレクトする。
// リダイレクトするかどうかは呼び出し側が決める。
func (c *CurrentUser) RedirectToSignIn(w http.ResponseWriter, r *http.Request) {
	path := DefaultSignInPath
	if c != nil && c.signInPath != "" {
		path = c.signInPath
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// ResolveOptions は解決時のオプション。
type ResolveOptions struct {
	// IncludeProfile がtrueの場合はユーザーの全情報も取得する。
	IncludeProfile bool
}

// Resolver はセッショントークンから現在のユーザーを解決する。
type Resolver struct {
	sessions   *SessionManager
	users      UserFinder
	signInPath string
}

// NewResolver はResolverを生成する。
func NewResolver(sessions *SessionManager, users UserFinder, signInPath string) *Resolver {
	if signInPath == "" {
		signInPath = DefaultSignInPath
	}
	return &Resolver{sessions: sessions, users: users, signInPath: signInPath}
}

func (r *Resolver) anonymous() *CurrentUser {
	return &CurrentUser{signInPath: r.signInPath}
}

// Resolve はトークンを検証し、必要に応じてセッションを延長して現在のユーザーを返す。
// トークンがない、または無効な場合は未認証のCurrentUserを返す。
// エラーはストレージ障害の場合のみ返す。
func (r *Resolver) Resolve(ctx context.Context, token string, opts ResolveOptions) (*CurrentUser, error) {
	if token == "" {
		return r.anonymous(), nil
	}

	session, refreshed, err := r.sessions.ExtendIfNeeded(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	if session == nil {
		return r.anonymous(), nil
	}

	current := &CurrentUser{
		UserID:     session.UserID,
		Session:    session,
		Refreshed:  refreshed,
		signInPath: r.signInPath,
	}

	if opts.IncludeProfile {
		user, err := r.users.FindByID(ctx, session.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load user profile: %w", err)
		}
		current.User = user
	}

	return current, nil
}

// ResolveRequest はリクエストのCookieからトークンを取り出して解決する。
func (r *Resolver) ResolveRequest(req *http.Request, opts ResolveOptions) (*CurrentUser, error) {
	return r.Resolve(req.Context(), SessionTokenFromRequest(req), opts)
}

// Peek はセッションを延長せずに検証し、ユーザーIDを返す。
// 未認証の場合は空文字を返す。
func (r *Resolver) Peek(ctx context.Context, token string) (string, error) {
	session, err := r.sessions.Validate(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to peek session: %w", err)
	}
	if session == nil {
		return "", nil
	}
	return session.UserID, nil
}
