package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/eventman/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// List は全イベントを返す。
// 日付や作成者によるフィルタは行わない。並び順はテストの安定性のため
// created_at昇順に固定する（仕様上は未規定）。
func (r *PostgresEventRepo) List(ctx context.Context) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, date, description, image_url, created_by_user, created_at, updated_at
		 FROM events ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		event := &model.Event{}
		if err := rows.Scan(
			&event.ID, &event.Title, &event.Date, &event.Description,
			&event.ImageURL, &event.CreatedByUser, &event.CreatedAt, &event.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("イベント行の読み取りに失敗しました: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の走査に失敗しました: %w", err)
	}
	return events, nil
}

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	event := &model.Event{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, date, description, image_url, created_by_user, created_at, updated_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(
		&event.ID, &event.Title, &event.Date, &event.Description,
		&event.ImageURL, &event.CreatedByUser, &event.CreatedAt, &event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}

	return event, nil
}

// Create はイベントを作成する。
func (r *PostgresEventRepo) Create(ctx context.Context, event *model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, title, date, description, image_url, created_by_user, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.Title, event.Date, event.Description,
		event.ImageURL, event.CreatedByUser, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのイベントを削除し、削除行数を返す。
// 0行を返すのはエラーではない。競合する削除の判断は呼び出し元が行う。
func (r *PostgresEventRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE id = $1`,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
