// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// サインアップ時に作成され、以降は変更されない（このシステムからは削除もされない）。
// Emailはイベント詳細画面で作成者の表示名として使われる。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// サインイン/サインアップで発行され、サインアウトで破棄される。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
