package permission

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// featureNames は権限と外部フィーチャーフラグ名の対応。
// 外部サービス側では無料枠を上限値付きの名前で管理している。
var featureNames = map[Permission]string{
	UnlimitedInterviews:     "unlimited_interviews",
	UnlimitedQuestions:      "unlimited_questions",
	UnlimitedResumeAnalyses: "unlimited_resume_analyses",
	LimitedInterviews:       "1_interview",
	LimitedQuestions:        "5_questions",
}

// FeatureName は権限に対応する外部フィーチャー名を返す。
func FeatureName(p Permission) (string, bool) {
	name, ok := featureNames[p]
	return name, ok
}

// FeatureFlagConfig は外部フィーチャーフラグAPIの設定。
type FeatureFlagConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FeatureFlagChecker は外部のフィーチャーフラグAPIに権限判定を委譲する。
//
//	GET {BaseURL}/users/{userID}/features/{feature}
//	200 {"enabled": true|false}
//	404 フィーチャー未付与
type FeatureFlagChecker struct {
	config FeatureFlagConfig
	client *http.Client
}

// NewFeatureFlagChecker はFeatureFlagCheckerを生成する。
func NewFeatureFlagChecker(config FeatureFlagConfig) *FeatureFlagChecker {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &FeatureFlagChecker{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

type featureResponse struct {
	Enabled bool `json:"enabled"`
}

// HasPermission は外部APIにユーザーのフィーチャー付与状況を問い合わせる。
func (c *FeatureFlagChecker) HasPermission(ctx context.Context, userID string, p Permission) (bool, error) {
	if userID == "" {
		return false, nil
	}
	feature, ok := FeatureName(p)
	if !ok {
		return false, nil
	}

	endpoint := fmt.Sprintf("%s/users/%s/features/%s",
		c.config.BaseURL, url.PathEscape(userID), url.PathEscape(feature))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create feature request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("feature request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return false, fmt.Errorf("failed to read feature response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("feature check failed with status %d: %s", resp.StatusCode, string(body))
	}

	var fr featureResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return false, fmt.Errorf("failed to parse feature response: %w", err)
	}
	return fr.Enabled, nil
}

// compile-time interface check
var _ Checker = (*FeatureFlagChecker)(nil)
