package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/repository"
)

// セッションの既定値。
const (
	DefaultSessionMaxAge           = 30 * 24 * time.Hour
	DefaultSessionRefreshThreshold = 7 * 24 * time.Hour
)

// セッションイベント名。メトリクスのラベルに使う。
const (
	SessionEventCreated  = "created"
	SessionEventExtended = "extended"
	SessionEventRejected = "rejected"
	SessionEventDeleted  = "deleted"
	SessionEventSwept    = "swept"
)

// SessionMetrics はセッションイベントの記録先。
type SessionMetrics interface {
	IncSessionEvent(event string, n int)
}

// SessionConfig はセッションの有効期間と延長の閾値。
type SessionConfig struct {
	MaxAge           time.Duration
	RefreshThreshold time.Duration
}

// SessionManager はセッションの発行・検証・スライディング延長・削除を行う。
type SessionManager struct {
	repo    repository.SessionRepository
	config  SessionConfig
	now     func() time.Time
	metrics SessionMetrics
}

// SessionOption はSessionManagerの設定を変更する。
type SessionOption func(*SessionManager)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

// WithSessionMetrics はメトリクスの記録先を設定する。
func WithSessionMetrics(metrics SessionMetrics) SessionOption {
	return func(m *SessionManager) {
		m.metrics = metrics
	}
}

// NewSessionManager はSessionManagerを生成する。
// 設定値が0以下の場合は既定値を使う。
func NewSessionManager(repo repository.SessionRepository, config SessionConfig, opts ...SessionOption) *SessionManager {
	if config.MaxAge <= 0 {
		config.MaxAge = DefaultSessionMaxAge
	}
	if config.RefreshThreshold <= 0 {
		config.RefreshThreshold = DefaultSessionRefreshThreshold
	}
	m := &SessionManager{
		repo:   repo,
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SessionManager) record(event string, n int) {
	if m.metrics != nil && n > 0 {
		m.metrics.IncSessionEvent(event, n)
	}
}

// Create はユーザーのセッションを発行する。
// 返されるセッションのTokenはクッキーに設定する値で、DBにはハッシュのみ保存される。
func (m *SessionManager) Create(ctx context.Context, userID string) (*model.Session, error) {
	token, err := GenerateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := m.now()
	session := &model.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     token,
		TokenHash: HashToken(token),
		ExpiresAt: now.Add(m.config.MaxAge),
		CreatedAt: now,
	}

	if err := m.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.record(SessionEventCreated, 1)
	return session, nil
}

// Validate はトークンに対応する有効なセッションを返す。
// 見つからない場合と期限切れの場合はnilを返し、エラーにはしない。
func (m *SessionManager) Validate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}

	session, err := m.repo.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || !session.ValidAt(m.now()) {
		m.record(SessionEventRejected, 1)
		return nil, nil
	}

	session.Token = token
	return session, nil
}

// ExtendIfNeeded はセッションを検証し、残り期間が閾値を下回っていれば
// 現在時刻から有効期間いっぱいまで延長する。
// 2つ目の戻り値は延長が行われたかどうか。
func (m *SessionManager) ExtendIfNeeded(ctx context.Context, token string) (*model.Session, bool, error) {
	session, err := m.Validate(ctx, token)
	if err != nil || session == nil {
		return nil, false, err
	}

	now := m.now()
	if session.ExpiresAt.Sub(now) >= m.config.RefreshThreshold {
		return session, false, nil
	}

	extended, err := m.repo.ExtendExpiry(ctx, session.ID, now.Add(m.config.MaxAge))
	if err != nil {
		return nil, false, fmt.Errorf("failed to extend session: %w", err)
	}
	if extended == nil {
		// 検証と延長の間に削除された
		return nil, false, nil
	}

	extended.Token = token
	m.record(SessionEventExtended, 1)
	slog.Debug("session extended",
		slog.String("user_id", extended.UserID),
		slog.Time("expires_at", extended.ExpiresAt),
	)
	return extended, true, nil
}

// Delete はトークンに対応するセッションを削除する。存在しなくてもエラーにしない。
func (m *SessionManager) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.repo.DeleteByTokenHash(ctx, HashToken(token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.record(SessionEventDeleted, 1)
	return nil
}

// DeleteAll はユーザーの全セッションを削除する。
func (m *SessionManager) DeleteAll(ctx context.Context, userID string) error {
	if err := m.repo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
func (m *SessionManager) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := m.repo.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	m.record(SessionEventSwept, int(n))
	return n, nil
}

// ListForUser はユーザーの有効なセッション一覧を返す。
func (m *SessionManager) ListForUser(ctx context.Context, userID string) ([]*model.Session, error) {
	sessions, err := m.repo.ListActiveByUserID(ctx, userID, m.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// MaxAge はセッションの有効期間を返す。
func (m *SessionManager) MaxAge() time.Duration {
	return m.config.MaxAge
}
