package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/jobprep/internal/model"
)

// PostgresJobInfoRepo はPostgreSQLを使用した求人情報リポジトリ。
type PostgresJobInfoRepo struct {
	db *sql.DB
}

// NewPostgresJobInfoRepo はPostgresJobInfoRepoを生成する。
func NewPostgresJobInfoRepo(db *sql.DB) *PostgresJobInfoRepo {
	return &PostgresJobInfoRepo{db: db}
}

const jobInfoColumns = `id, user_id, title, name, experience_level, description, created_at, updated_at`

func scanJobInfo(row interface{ Scan(...any) error }) (*model.JobInfo, error) {
	j := &model.JobInfo{}
	var level string
	if err := row.Scan(&j.ID, &j.UserID, &j.Title, &j.Name, &level,
		&j.Description, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.ExperienceLevel = model.ExperienceLevel(level)
	return j, nil
}

// FindByID は指定IDの求人情報を取得する。見つからない場合はnilを返す。
func (r *PostgresJobInfoRepo) FindByID(ctx context.Context, id string) (*model.JobInfo, error) {
	jobInfo, err := scanJobInfo(r.db.QueryRowContext(ctx,
		`SELECT `+jobInfoColumns+` FROM job_infos WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job info: %w", err)
	}
	return jobInfo, nil
}

// ListByUserID はユーザーの求人情報を更新日時の新しい順に返す。
func (r *PostgresJobInfoRepo) ListByUserID(ctx context.Context, userID string) ([]*model.JobInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobInfoColumns+` FROM job_infos
		 WHERE user_id = $1
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list job infos: %w", err)
	}
	defer rows.Close()

	var jobInfos []*model.JobInfo
	for rows.Next() {
		j, err := scanJobInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job info: %w", err)
		}
		jobInfos = append(jobInfos, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job infos: %w", err)
	}
	return jobInfos, nil
}

// Create は求人情報を作成する。
func (r *PostgresJobInfoRepo) Create(ctx context.Context, j *model.JobInfo) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO job_infos (id, user_id, title, name, experience_level, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		j.ID, j.UserID, j.Title, j.Name, string(j.ExperienceLevel), j.Description, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job info: %w", err)
	}
	return nil
}

// Update は求人情報を更新する。
func (r *PostgresJobInfoRepo) Update(ctx context.Context, j *model.JobInfo) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE job_infos
		 SET title = $2, name = $3, experience_level = $4, description = $5, updated_at = $6
		 WHERE id = $1`,
		j.ID, j.Title, j.Name, string(j.ExperienceLevel), j.Description, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update job info: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("job info not found: %s", j.ID)
	}
	return nil
}

// Delete は指定IDの求人情報を削除する。
func (r *PostgresJobInfoRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM job_infos WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete job info: %w", err)
	}
	return nil
}

// compile-time interface check
var _ JobInfoRepository = (*PostgresJobInfoRepo)(nil)
