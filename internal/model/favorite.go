// Package model はドメインモデルを定義する。
package model

import "time"

// FavoriteLink はユーザーとイベントのお気に入り関係を表すリンクレコード。
// User/Eventのどちら側にも非正規化せず、独立した行として永続化する。
// (user_id, event_id) の組はストアレベルのUNIQUE制約で一意に保たれる。
//
// EventIDは外部キーを持たない。別クライアントによるイベント削除と
// お気に入り追加が競合した場合にも追加を成功させ、宙に浮いたEventIDは
// お気に入り一覧の積集合計算で自然に無視される設計のため。
type FavoriteLink struct {
	ID        string
	UserID    string
	EventID   string
	CreatedAt time.Time
}
