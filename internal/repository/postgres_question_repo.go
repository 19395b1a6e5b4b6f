package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/jobprep/internal/model"
)

// PostgresQuestionRepo はPostgreSQLを使用した技術質問リポジトリ。
type PostgresQuestionRepo struct {
	db *sql.DB
}

// NewPostgresQuestionRepo はPostgresQuestionRepoを生成する。
func NewPostgresQuestionRepo(db *sql.DB) *PostgresQuestionRepo {
	return &PostgresQuestionRepo{db: db}
}

const questionColumns = `id, job_info_id, text, difficulty, created_at, updated_at`

const countQuestionsByUser = `SELECT count(*) FROM questions q
	JOIN job_infos j ON j.id = q.job_info_id
	WHERE j.user_id = $1`

const insertQuestion = `INSERT INTO questions (id, job_info_id, text, difficulty, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

func scanQuestion(row interface{ Scan(...any) error }) (*model.Question, error) {
	q := &model.Question{}
	var difficulty string
	if err := row.Scan(&q.ID, &q.JobInfoID, &q.Text, &difficulty, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.Difficulty = model.QuestionDifficulty(difficulty)
	return q, nil
}

// FindByID は指定IDの質問を取得する。見つからない場合はnilを返す。
func (r *PostgresQuestionRepo) FindByID(ctx context.Context, id string) (*model.Question, error) {
	q, err := scanQuestion(r.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find question: %w", err)
	}
	return q, nil
}

// ListByJobInfoID は求人情報に紐づく質問を新しい順に返す。
func (r *PostgresQuestionRepo) ListByJobInfoID(ctx context.Context, jobInfoID string) ([]*model.Question, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE job_info_id = $1
		 ORDER BY created_at DESC`,
		jobInfoID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []*model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return questions, nil
}

// CountByUserID はユーザーの質問数を返す。
func (r *PostgresQuestionRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, countQuestionsByUser, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

// Create は質問を作成する。
func (r *PostgresQuestionRepo) Create(ctx context.Context, q *model.Question) error {
	_, err := r.db.ExecContext(ctx, insertQuestion,
		q.ID, q.JobInfoID, q.Text, string(q.Difficulty), q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// CreateWithinLimit はユーザーの質問数がlimit未満の場合に限り作成する。
func (r *PostgresQuestionRepo) CreateWithinLimit(ctx context.Context, userID string, limit int, q *model.Question) (bool, error) {
	return withinUserLimit(ctx, r.db, userID, limit, countQuestionsByUser, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertQuestion,
			q.ID, q.JobInfoID, q.Text, string(q.Difficulty), q.CreatedAt, q.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
		return nil
	})
}

// compile-time interface check
var _ QuestionRepository = (*PostgresQuestionRepo)(nil)
