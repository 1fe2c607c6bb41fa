// Package cleanup はストアの定期メンテナンスジョブを提供する。
// 期限切れセッションと、削除済みイベントを指すお気に入りリンクを
// 日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SessionsCleanedRecorder はクリーンアップ件数のメトリクス記録インターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type SessionsCleanedRecorder interface {
	RecordSessionsCleaned(count int)
}

// CleanupJob は期限切れセッションと孤立お気に入りリンクの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
// お気に入りリンクはイベント削除時には消されないため、削除済みイベントを
// 指すリンクがストアに残る。表示層では除外されるが、ここで定期的に回収する。
type CleanupJob struct {
	db       Executor
	logger   *slog.Logger
	recorder SessionsCleanedRecorder // nilの場合は記録しない
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger, recorder SessionsCleanedRecorder) *CleanupJob {
	return &CleanupJob{
		db:       db,
		logger:   logger,
		recorder: recorder,
	}
}

// Run は期限切れセッションと孤立お気に入りリンクを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	sessionCount, err := j.deleteExpiredSessions(ctx)
	if err != nil {
		return err
	}

	favoriteCount, err := j.deleteOrphanedFavorites(ctx)
	if err != nil {
		return err
	}

	if j.recorder != nil {
		j.recorder.RecordSessionsCleaned(int(sessionCount))
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", sessionCount),
		slog.Int64("deleted_favorites", favoriteCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// deleteExpiredSessions は有効期限を過ぎたセッションを削除する。
func (j *CleanupJob) deleteExpiredSessions(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < now()`
	result, err := j.db.ExecContext(ctx, query)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	return count, nil
}

// deleteOrphanedFavorites は削除済みイベントを指すお気に入りリンクを削除する。
func (j *CleanupJob) deleteOrphanedFavorites(ctx context.Context) (int64, error) {
	query := `DELETE FROM favorites WHERE event_id NOT IN (SELECT id FROM events)`
	result, err := j.db.ExecContext(ctx, query)
	if err != nil {
		j.logger.Error("孤立お気に入りリンクの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("孤立お気に入りリンクの削除に失敗: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	return count, nil
}
