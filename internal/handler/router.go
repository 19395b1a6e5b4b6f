package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobprep/internal/auth"
	"github.com/hitoshi/jobprep/internal/middleware"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Resolver          middleware.CurrentUserResolver
	Cookie            auth.CookieConfig
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	// Instrument はHTTPメトリクスを記録するミドルウェア。nilなら使わない。
	Instrument func(http.Handler) http.Handler

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService    AuthServiceInterface
	Peeker         SessionPeeker
	OnboardingPath string
	// AppPath はアプリ本体の入口。空なら/app。
	AppPath        string

	// ドメイン
	JobInfoService   JobInfoServiceInterface
	InterviewService InterviewServiceInterface
	QuestionService  QuestionServiceInterface
	Permissions      PermissionSummarizer

	// ユーザー
	UserService UserServiceInterface
	Users       UserGetter
	Sessions    SessionLister
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → (認証ルートのみ) Session → RateLimit → CSRF
//
// 認証ルート（/auth/*）と運用エンドポイントはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	csrfCfg := middleware.CSRFConfig{
		CookieSecure: deps.Cookie.Secure,
		CookieDomain: deps.Cookie.Domain,
	}

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Instrument != nil {
		r.Use(deps.Instrument)
	}
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.Peeker, deps.Users, deps.Cookie)
	appHandler := NewAppEntryHandler(deps.Resolver, deps.Cookie, deps.OnboardingPath)
	jobInfoHandler := NewJobInfoHandler(deps.JobInfoService)
	interviewHandler := NewInterviewHandler(deps.InterviewService)
	questionHandler := NewQuestionHandler(deps.QuestionService)
	permissionHandler := NewPermissionHandler(deps.Permissions)
	userHandler := NewUserHandler(deps.UserService, deps.Sessions, deps.Cookie)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(csrfCfg))
	appPath := deps.AppPath
	if appPath == "" {
		appPath = "/app"
	}
	r.Method(http.MethodGet, appPath, appHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(csrfCfg))
		r.Post("/sign-up", authHandler.SignUp)
		r.Post("/sign-in", authHandler.SignIn)
		r.Post("/sign-out", authHandler.SignOut)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Resolver, deps.Cookie))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}
		r.Use(middleware.NewCSRFMiddleware(csrfCfg))

		r.Get("/api/permissions", permissionHandler.Summary)

		r.Route("/api/job-infos", func(r chi.Router) {
			r.Get("/", jobInfoHandler.List)
			r.Post("/", jobInfoHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", jobInfoHandler.Get)
				r.Patch("/", jobInfoHandler.Update)
				r.Delete("/", jobInfoHandler.Delete)

				r.Get("/interviews", interviewHandler.List)
				r.Post("/interviews", interviewHandler.Create)
				r.Get("/questions", questionHandler.List)
				r.Post("/questions", questionHandler.Create)
			})
		})

		r.Route("/api/interviews/{id}", func(r chi.Router) {
			r.Get("/", interviewHandler.Get)
			r.Patch("/", interviewHandler.Update)
		})

		r.Get("/api/questions/{id}", questionHandler.Get)

		r.Route("/api/users/me", func(r chi.Router) {
			r.Patch("/", userHandler.UpdateProfile)
			r.Delete("/", userHandler.Withdraw)
			r.Get("/sessions", userHandler.ListSessions)
			r.Delete("/sessions", userHandler.RevokeSessions)
		})
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
