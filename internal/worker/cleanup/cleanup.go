// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// 期限切れのセッションは検証時にも拒否されるため、削除は容量管理のためだけに行う。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule は既定の実行スケジュール。
const DefaultSchedule = "@hourly"

// Sweeper は期限切れセッションを削除するインターフェース。
// auth.SessionManagerが満たす。
type Sweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupJob は期限切れセッションの削除ジョブ。
// 冪等であり、削除対象がない場合もエラーにならない。
type CleanupJob struct {
	sweeper Sweeper
	logger  *slog.Logger
	timeout time.Duration
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sweeper Sweeper, logger *slog.Logger) *CleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{
		sweeper: sweeper,
		logger:  logger,
		timeout: time.Minute,
	}
}

// Run は期限切れセッションを1回削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	deleted, err := j.sweeper.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Scheduler はcron式に従ってCleanupJobを実行する。
type Scheduler struct {
	job  *CleanupJob
	cron *cron.Cron
}

// NewScheduler はscheduleを検証してSchedulerを生成する。
// scheduleは標準の5フィールド形式か@hourlyなどの記述子を受け付ける。
func NewScheduler(job *CleanupJob, schedule string) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	c := cron.New()
	s := &Scheduler{job: job, cron: c}
	if _, err := c.AddFunc(schedule, func() {
		// エラーはRun内でログ出力済み
		_ = job.Run(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule sweep: %w", err)
	}
	return s, nil
}

// Start は起動直後に1回実行したうえでスケジュールを開始し、ctxの終了までブロックする。
func (s *Scheduler) Start(ctx context.Context) {
	_ = s.job.Run(ctx)

	s.cron.Start()
	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
}
