package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/jobprep/internal/model"
)

// PostgresInterviewRepo はPostgreSQLを使用した面接リポジトリ。
type PostgresInterviewRepo struct {
	db *sql.DB
}

// NewPostgresInterviewRepo はPostgresInterviewRepoを生成する。
func NewPostgresInterviewRepo(db *sql.DB) *PostgresInterviewRepo {
	return &PostgresInterviewRepo{db: db}
}

const interviewColumns = `id, job_info_id, duration, hume_chat_id, feedback, created_at, updated_at`

const countInterviewsByUser = `SELECT count(*) FROM interviews i
	JOIN job_infos j ON j.id = i.job_info_id
	WHERE j.user_id = $1`

const insertInterview = `INSERT INTO interviews (id, job_info_id, duration, hume_chat_id, feedback, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

func scanInterview(row interface{ Scan(...any) error }) (*model.Interview, error) {
	iv := &model.Interview{}
	if err := row.Scan(&iv.ID, &iv.JobInfoID, &iv.Duration, &iv.HumeChatID,
		&iv.Feedback, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
		return nil, err
	}
	return iv, nil
}

func interviewArgs(iv *model.Interview) []any {
	return []any{iv.ID, iv.JobInfoID, iv.Duration, iv.HumeChatID, iv.Feedback, iv.CreatedAt, iv.UpdatedAt}
}

// FindByID は指定IDの面接を取得する。見つからない場合はnilを返す。
func (r *PostgresInterviewRepo) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	iv, err := scanInterview(r.db.QueryRowContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find interview: %w", err)
	}
	return iv, nil
}

// ListByJobInfoID は求人情報に紐づく面接を新しい順に返す。
func (r *PostgresInterviewRepo) ListByJobInfoID(ctx context.Context, jobInfoID string) ([]*model.Interview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews
		 WHERE job_info_id = $1
		 ORDER BY created_at DESC`,
		jobInfoID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	var interviews []*model.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		interviews = append(interviews, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interviews: %w", err)
	}
	return interviews, nil
}

// CountByUserID はユーザーの面接数を返す。
func (r *PostgresInterviewRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, countInterviewsByUser, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count interviews: %w", err)
	}
	return count, nil
}

// Create は面接を作成する。
func (r *PostgresInterviewRepo) Create(ctx context.Context, iv *model.Interview) error {
	if _, err := r.db.ExecContext(ctx, insertInterview, interviewArgs(iv)...); err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

// CreateWithinLimit はユーザーの面接数がlimit未満の場合に限り作成する。
func (r *PostgresInterviewRepo) CreateWithinLimit(ctx context.Context, userID string, limit int, iv *model.Interview) (bool, error) {
	return withinUserLimit(ctx, r.db, userID, limit, countInterviewsByUser, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertInterview, interviewArgs(iv)...); err != nil {
			return fmt.Errorf("failed to create interview: %w", err)
		}
		return nil
	})
}

// Update は面接のチャットID・所要時間・フィードバックを更新する。
func (r *PostgresInterviewRepo) Update(ctx context.Context, iv *model.Interview) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE interviews
		 SET duration = $2, hume_chat_id = $3, feedback = $4, updated_at = $5
		 WHERE id = $1`,
		iv.ID, iv.Duration, iv.HumeChatID, iv.Feedback, iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update interview: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("interview not found: %s", iv.ID)
	}
	return nil
}

// compile-time interface check
var _ InterviewRepository = (*PostgresInterviewRepo)(nil)
