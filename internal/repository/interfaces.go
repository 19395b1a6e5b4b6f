// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hitoshi/jobprep/internal/model"
)

// ErrDuplicateEmail は同一メールアドレスのユーザーが既に存在する場合に返される。
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は小文字化済みのメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile は表示名とアバター画像を更新する。見つからない場合はnilを返す。
	UpdateProfile(ctx context.Context, id, name string, image *string) (*model.User, error)

	// UpdatePlan は契約プランを更新する。見つからない場合はnilを返す。
	UpdatePlan(ctx context.Context, id string, plan model.Plan) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// セッション、求人情報、面接、質問はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
// トークンはハッシュ値でのみ保存・検索する。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByTokenHash はトークンハッシュでセッションを取得する。見つからない場合はnilを返す。
	// 有効期限の判定は呼び出し側で行う。
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)

	// ExtendExpiry は有効期限をexpiresAtまで延長する。既存の期限より短くはしない。
	// 見つからない場合はnilを返す。
	ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) (*model.Session, error)

	// ListActiveByUserID は指定時刻で有効なユーザーのセッションを新しい順に返す。
	ListActiveByUserID(ctx context.Context, userID string, now time.Time) ([]*model.Session, error)

	// DeleteByTokenHash はトークンハッシュに一致するセッションを削除する。存在しなくてもエラーにしない。
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired はbefore以前に期限切れとなったセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// JobInfoRepository は求人情報の永続化インターフェース。
type JobInfoRepository interface {
	// FindByID は指定IDの求人情報を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.JobInfo, error)

	// ListByUserID はユーザーの求人情報を更新日時の新しい順に返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.JobInfo, error)

	// Create は求人情報を作成する。
	Create(ctx context.Context, jobInfo *model.JobInfo) error

	// Update は求人情報を更新する。
	Update(ctx context.Context, jobInfo *model.JobInfo) error

	// Delete は指定IDの求人情報を削除する。面接と質問はCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// UsageCounter はユーザー単位の作成数を数えるインターフェース。
// 無料プランの上限判定に使用する。
type UsageCounter interface {
	// CountByUserID は求人情報を経由してユーザーに属するレコード数を返す。
	CountByUserID(ctx context.Context, userID string) (int, error)
}

// InterviewRepository は面接記録の永続化インターフェース。
type InterviewRepository interface {
	UsageCounter

	// FindByID は指定IDの面接を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Interview, error)

	// ListByJobInfoID は求人情報に紐づく面接を新しい順に返す。
	ListByJobInfoID(ctx context.Context, jobInfoID string) ([]*model.Interview, error)

	// Create は面接を作成する。
	Create(ctx context.Context, interview *model.Interview) error

	// CreateWithinLimit はユーザーの面接数がlimit未満の場合に限り作成する。
	// 件数確認と作成は同一トランザクション内でユーザー単位に直列化される。
	// 上限に達していた場合はfalseを返す。
	CreateWithinLimit(ctx context.Context, userID string, limit int, interview *model.Interview) (bool, error)

	// Update は面接のチャットID・所要時間・フィードバックを更新する。
	Update(ctx context.Context, interview *model.Interview) error
}

// QuestionRepository は技術質問の永続化インターフェース。
type QuestionRepository interface {
	UsageCounter

	// FindByID は指定IDの質問を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Question, error)

	// ListByJobInfoID は求人情報に紐づく質問を新しい順に返す。
	ListByJobInfoID(ctx context.Context, jobInfoID string) ([]*model.Question, error)

	// Create は質問を作成する。
	Create(ctx context.Context, question *model.Question) error

	// CreateWithinLimit はユーザーの質問数がlimit未満の場合に限り作成する。
	// 上限に達していた場合はfalseを返す。
	CreateWithinLimit(ctx context.Context, userID string, limit int, question *model.Question) (bool, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
