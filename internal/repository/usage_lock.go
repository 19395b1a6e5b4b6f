package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// withinUserLimit はユーザー単位のアドバイザリロックを取得したトランザクション内で
// 件数を数え、limit未満の場合のみinsertを実行する。
// ロックはトランザクション終了時に解放される。
func withinUserLimit(
	ctx context.Context,
	db TxBeginner,
	userID string,
	limit int,
	countQuery string,
	insert func(tx *sql.Tx) error,
) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return false, fmt.Errorf("failed to acquire usage lock for user %s: %w", userID, err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, countQuery, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count usage for user %s: %w", userID, err)
	}
	if count >= limit {
		return false, nil
	}

	if err := insert(tx); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}
