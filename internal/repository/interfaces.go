// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/eventman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザー（＝サインアップ時のプロフィールレコード）を作成する。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// EventRepository はイベントデータの永続化インターフェース。
type EventRepository interface {
	// List は全イベントを返す。順序はストア準拠（created_at昇順）。
	List(ctx context.Context) ([]*model.Event, error)

	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	// 削除時の認可は必ずこの新鮮な読み取りの結果に対して行う。
	FindByID(ctx context.Context, id string) (*model.Event, error)

	// Create はイベントを作成する。
	Create(ctx context.Context, event *model.Event) error

	// DeleteByID は指定IDのイベントを削除し、削除行数を返す。
	// 0行は他クライアントとの競合による良性の結果として呼び出し元で扱う。
	DeleteByID(ctx context.Context, id string) (int64, error)
}

// FavoriteRepository はお気に入りリンクの永続化インターフェース。
type FavoriteRepository interface {
	// Exists は (userID, eventID) のリンクが存在するかを返す。
	Exists(ctx context.Context, userID, eventID string) (bool, error)

	// Create はリンクを冪等に作成する。
	// UNIQUE(user_id, event_id)制約を利用したINSERT ON CONFLICT DO NOTHINGで、
	// 既存リンクがある場合も重複を作らず成功する。
	Create(ctx context.Context, link *model.FavoriteLink) error

	// DeleteByUserAndEvent は (userID, eventID) のリンクを削除する。
	// リンクが存在しない場合もエラーにしない。
	DeleteByUserAndEvent(ctx context.Context, userID, eventID string) error

	// ListEventIDsByUser はユーザーがお気に入りしたイベントIDの集合を返す。
	ListEventIDsByUser(ctx context.Context, userID string) ([]string, error)
}
