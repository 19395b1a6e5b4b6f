// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/jobprep/internal/auth"
	"github.com/hitoshi/jobprep/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var currentUserContextKey = contextKey("current_user")

// CurrentUserResolver はリクエストから現在のユーザーを解決するインターフェース。
// auth.Resolverが満たす。
type CurrentUserResolver interface {
	ResolveRequest(r *http.Request, opts auth.ResolveOptions) (*auth.CurrentUser, error)
}

// NewSessionMiddleware はCookieのセッショントークンから現在のユーザーを解決し、
// リクエストコンテキストに注入するミドルウェアを返す。
// 有効期限が延長された場合は新しい期限でCookieを再発行する。
// 未認証リクエストには401を返す。
func NewSessionMiddleware(resolver CurrentUserResolver, cookie auth.CookieConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cu, err := resolver.ResolveRequest(r, auth.ResolveOptions{})
			if err != nil {
				slog.Error("failed to resolve session",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if !cu.Authenticated() {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if cu.Refreshed {
				auth.SetSessionCookie(w, cookie, cu.Session)
			}
			recordUserID(r.Context(), cu.UserID)

			next.ServeHTTP(w, r.WithContext(ContextWithCurrentUser(r.Context(), cu)))
		})
	}
}

// CurrentUserFromContext はセッションミドルウェアが注入した現在のユーザーを返す。
func CurrentUserFromContext(ctx context.Context) (*auth.CurrentUser, bool) {
	cu, ok := ctx.Value(currentUserContextKey).(*auth.CurrentUser)
	return cu, ok && cu != nil && cu.Authenticated()
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	cu, ok := CurrentUserFromContext(ctx)
	if !ok {
		return "", fmt.Errorf("user ID not found in context")
	}
	return cu.UserID, nil
}

// ContextWithCurrentUser はコンテキストに現在のユーザーを注入する。
func ContextWithCurrentUser(ctx context.Context, cu *auth.CurrentUser) context.Context {
	return context.WithValue(ctx, currentUserContextKey, cu)
}

// ContextWithUserID はコンテキストにユーザーIDだけを持つ現在のユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return ContextWithCurrentUser(ctx, &auth.CurrentUser{UserID: userID})
}
