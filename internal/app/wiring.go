package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/jobprep/internal/auth"
	"github.com/hitoshi/jobprep/internal/cache"
	"github.com/hitoshi/jobprep/internal/cachesync"
	"github.com/hitoshi/jobprep/internal/config"
	"github.com/hitoshi/jobprep/internal/handler"
	"github.com/hitoshi/jobprep/internal/interview"
	"github.com/hitoshi/jobprep/internal/jobinfo"
	"github.com/hitoshi/jobprep/internal/metrics"
	"github.com/hitoshi/jobprep/internal/middleware"
	"github.com/hitoshi/jobprep/internal/permission"
	"github.com/hitoshi/jobprep/internal/question"
	"github.com/hitoshi/jobprep/internal/repository"
	"github.com/hitoshi/jobprep/internal/user"
	"github.com/hitoshi/jobprep/internal/validation"
)

// components はプロセス内で共有する依存関係。
type components struct {
	collector *metrics.Collector
	registry  *prometheus.Registry

	// origin はこのプロセスの識別子。自分が送った無効化イベントを見分ける。
	origin   string
	cache    *cache.TagCache
	notifier *cachesync.Notifier

	sessions *auth.SessionManager
	resolver *auth.Resolver
	gate     *permission.Gate

	authService      *auth.Service
	userService      *user.Service
	jobInfoService   *jobinfo.Service
	interviewService *interview.Service
	questionService  *question.Service
}

// buildComponents はDB接続と設定から全サービスを組み立てる。
// 読み取りはタグキャッシュ付きのリポジトリを経由する。
// broadcastがtrueの場合、確定した変更を他プロセスにもNOTIFYで伝える。
func buildComponents(cfg *config.Config, db *sql.DB, broadcast bool) (*components, error) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	origin := uuid.New().String()
	notifier := cachesync.NewNotifier(db, origin)
	cacheOpts := []cache.Option{cache.WithObserver(collector)}
	if broadcast {
		cacheOpts = append(cacheOpts, cache.WithForwarder(notifier))
	}
	tagCache, err := cache.New(cfg.CacheSize, cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	// リポジトリ
	pgUsers := repository.NewPostgresUserRepo(db)
	userRepo := repository.NewCachedUserRepo(pgUsers, tagCache)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	jobInfoRepo := repository.NewCachedJobInfoRepo(repository.NewPostgresJobInfoRepo(db), tagCache)
	interviewRepo := repository.NewCachedInterviewRepo(repository.NewPostgresInterviewRepo(db), tagCache)
	questionRepo := repository.NewCachedQuestionRepo(repository.NewPostgresQuestionRepo(db), tagCache)

	v := validation.New()

	// セッション
	sessions := auth.NewSessionManager(sessionRepo, auth.SessionConfig{
		MaxAge:           cfg.SessionMaxAge,
		RefreshThreshold: cfg.SessionRefreshThreshold,
	}, auth.WithSessionMetrics(collector))
	resolver := auth.NewResolver(sessions, userRepo, cfg.SignInPath)

	// 権限
	gate := permission.NewGate(newChecker(cfg, pgUsers), map[permission.Feature]permission.UsageCounter{
		permission.FeatureInterviews: interviewRepo,
		permission.FeatureQuestions:  questionRepo,
	}, permission.WithGateMetrics(collector))

	jobInfoService := jobinfo.NewService(jobInfoRepo, v)

	return &components{
		collector:        collector,
		registry:         reg,
		origin:           origin,
		cache:            tagCache,
		notifier:         notifier,
		sessions:         sessions,
		resolver:         resolver,
		gate:             gate,
		authService:      auth.NewService(userRepo, sessions, v),
		userService:      user.NewService(userRepo, sessions, v),
		jobInfoService:   jobInfoService,
		interviewService: interview.NewService(interviewRepo, jobInfoService, gate, v),
		questionService:  question.NewService(questionRepo, jobInfoService, gate, v),
	}, nil
}

// newChecker はPERMISSION_BACKENDに応じた権限チェッカーを返す。
// 上限判定は通知の遅れにも影響されないよう、キャッシュを経由せずにプランを読む。
func newChecker(cfg *config.Config, users permission.UserFinder) permission.Checker {
	if cfg.PermissionBackend == config.PermissionBackendFeatureFlags {
		slog.Info("using feature flag permission backend",
			slog.String("api_url", cfg.FeatureFlagAPIURL),
		)
		return permission.NewFeatureFlagChecker(permission.FeatureFlagConfig{
			BaseURL: cfg.FeatureFlagAPIURL,
			APIKey:  cfg.FeatureFlagAPIKey,
		})
	}
	return permission.NewPlanChecker(users)
}

// newRouter はHTTPルーターを組み立てる。
func newRouter(cfg *config.Config, db *sql.DB, c *components, limiter *middleware.RateLimiter) http.Handler {
	return handler.NewRouter(&handler.RouterDeps{
		Resolver: c.resolver,
		Cookie: auth.CookieConfig{
			Domain: cfg.CookieDomain,
			Secure: cfg.CookieSecure,
		},
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		Logger:            slog.Default(),
		Instrument:        c.collector.Middleware(),

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(c.registry),

		AuthService:    c.authService,
		Peeker:         c.resolver,
		OnboardingPath: cfg.OnboardingPath,
		AppPath:        cfg.AppPath,

		JobInfoService:   c.jobInfoService,
		InterviewService: c.interviewService,
		QuestionService:  c.questionService,
		Permissions:      c.gate,

		UserService: c.userService,
		Users:       c.userService,
		Sessions:    c.sessions,
	})
}
