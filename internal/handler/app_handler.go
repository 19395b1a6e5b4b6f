package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/jobprep/internal/auth"
	"github.com/hitoshi/jobprep/internal/middleware"
)

// DefaultOnboardingPath はプロフィール未作成時の誘導先。
const DefaultOnboardingPath = "/onboarding"

// AppEntryHandler はアプリ本体への入口を振り分ける。
// 未認証ならサインイン、プロフィールがなければオンボーディングへリダイレクトする。
type AppEntryHandler struct {
	resolver       middleware.CurrentUserResolver
	cookie         auth.CookieConfig
	onboardingPath string
}

// NewAppEntryHandler はAppEntryHandlerを生成する。
func NewAppEntryHandler(resolver middleware.CurrentUserResolver, cookie auth.CookieConfig, onboardingPath string) *AppEntryHandler {
	if onboardingPath == "" {
		onboardingPath = DefaultOnboardingPath
	}
	return &AppEntryHandler{
		resolver:       resolver,
		cookie:         cookie,
		onboardingPath: onboardingPath,
	}
}

// ServeHTTP GET /app
func (h *AppEntryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cu, err := h.resolver.ResolveRequest(r, auth.ResolveOptions{IncludeProfile: true})
	if err != nil {
		slog.Error("failed to resolve app entry", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	if !cu.Authenticated() {
		cu.RedirectToSignIn(w, r)
		return
	}
	if cu.Refreshed {
		auth.SetSessionCookie(w, h.cookie, cu.Session)
	}
	if cu.User == nil {
		http.Redirect(w, r, h.onboardingPath, http.StatusSeeOther)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(cu.User))
}
