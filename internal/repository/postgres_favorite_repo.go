package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/eventman/internal/model"
)

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// Exists は (userID, eventID) のリンクが存在するかを返す。
func (r *PostgresFavoriteRepo) Exists(ctx context.Context, userID, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM favorites WHERE user_id = $1 AND event_id = $2
		 )`,
		userID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("お気に入りの確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Create はリンクを冪等に作成する。
// ダブルタップやタイムアウト後の再送で同じペアが二度挿入されても、
// UNIQUE(user_id, event_id)制約のON CONFLICT DO NOTHINGで重複は作られない。
func (r *PostgresFavoriteRepo) Create(ctx context.Context, link *model.FavoriteLink) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (id, user_id, event_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, event_id) DO NOTHING`,
		link.ID, link.UserID, link.EventID, link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("お気に入りの作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteByUserAndEvent は (userID, eventID) のリンクを削除する。
// リンクが存在しない場合は何もせず成功する。
func (r *PostgresFavoriteRepo) DeleteByUserAndEvent(ctx context.Context, userID, eventID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	)
	if err != nil {
		return fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}
	return nil
}

// ListEventIDsByUser はユーザーがお気に入りしたイベントIDの集合を返す。
// 削除済みイベントを指すIDも含まれうる。除外は呼び出し元の積集合に任せる。
func (r *PostgresFavoriteRepo) ListEventIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id FROM favorites WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var eventIDs []string
	for rows.Next() {
		var eventID string
		if err := rows.Scan(&eventID); err != nil {
			return nil, fmt.Errorf("お気に入り行の読み取りに失敗しました: %w", err)
		}
		eventIDs = append(eventIDs, eventID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("お気に入り一覧の走査に失敗しました: %w", err)
	}
	return eventIDs, nil
}

// compile-time interface check
var _ FavoriteRepository = (*PostgresFavoriteRepo)(nil)
