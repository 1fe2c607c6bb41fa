// Package model はドメインモデルを定義する。
package model

import "time"

// Event はカタログに登録されたイベントを表す。
// 作成後の編集操作は存在しない。削除は作成者本人のみが行える。
type Event struct {
	ID            string
	Title         string
	Date          string // YYYY-MM-DD 形式の文字列
	Description   string
	ImageURL      string // 任意項目。空文字列は未設定を表す。
	CreatedByUser string // 作成者のUser ID。作成時のセッションユーザーと一致する。
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
