package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// 権限判定のバックエンド。
const (
	PermissionBackendLocal        = "local"
	PermissionBackendFeatureFlags = "feature_flags"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionMaxAge           time.Duration
	SessionRefreshThreshold time.Duration
	SessionSweepSchedule    string

	// Paths
	SignInPath     string
	OnboardingPath string
	AppPath        string

	// Permission
	PermissionBackend string
	FeatureFlagAPIURL string
	FeatureFlagAPIKey string

	// Cache
	CacheSize int

	// Rate Limit（req/min/user）
	RateLimitGeneral int

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.PermissionBackend = strings.ToLower(getEnvString("PERMISSION_BACKEND", PermissionBackendLocal))
	switch cfg.PermissionBackend {
	case PermissionBackendLocal:
	case PermissionBackendFeatureFlags:
		cfg.FeatureFlagAPIURL = os.Getenv("FEATURE_FLAG_API_URL")
		if cfg.FeatureFlagAPIURL == "" {
			missing = append(missing, "FEATURE_FLAG_API_URL")
		}
		cfg.FeatureFlagAPIKey = os.Getenv("FEATURE_FLAG_API_KEY")
		if cfg.FeatureFlagAPIKey == "" {
			missing = append(missing, "FEATURE_FLAG_API_KEY")
		}
	default:
		return nil, fmt.Errorf("unknown PERMISSION_BACKEND %q (want %s or %s)",
			cfg.PermissionBackend, PermissionBackendLocal, PermissionBackendFeatureFlags)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvDuration("SESSION_MAX_AGE", 30*24*time.Hour)
	cfg.SessionRefreshThreshold = getEnvDuration("SESSION_REFRESH_THRESHOLD", 7*24*time.Hour)
	cfg.SessionSweepSchedule = getEnvString("SESSION_SWEEP_SCHEDULE", "@hourly")
	cfg.SignInPath = getEnvString("SIGN_IN_PATH", "/sign-in")
	cfg.OnboardingPath = getEnvString("ONBOARDING_PATH", "/onboarding")
	cfg.AppPath = getEnvString("APP_PATH", "/app")
	cfg.CacheSize = getEnvInt("CACHE_SIZE", 10000)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "")

	if cfg.SessionRefreshThreshold >= cfg.SessionMaxAge {
		return nil, fmt.Errorf("SESSION_REFRESH_THRESHOLD (%s) must be shorter than SESSION_MAX_AGE (%s)",
			cfg.SessionRefreshThreshold, cfg.SessionMaxAge)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
