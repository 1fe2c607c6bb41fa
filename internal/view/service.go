// Package view は画面単位の読み取りモデルを組み立てる。
// イベント、お気に入り、作成者情報を合成し、ハンドラーにそのまま
// レスポンスとして返せる形で提供する。
package view

import (
	"context"

	"github.com/hitoshi/eventman/internal/model"
)

// EventProvider はイベントの読み取り機能。
type EventProvider interface {
	List(ctx context.Context) ([]*model.Event, error)
	Get(ctx context.Context, eventID string) (*model.Event, error)
}

// FavoriteProvider はお気に入り状態の読み取り機能。
type FavoriteProvider interface {
	IsFavorited(ctx context.Context, userID, eventID string) (bool, error)
	ListEventIDs(ctx context.Context, userID string) ([]string, error)
}

// CreatorResolver は作成者の表示用メールアドレスの解決機能。
type CreatorResolver interface {
	ResolveDisplayEmail(ctx context.Context, userID string) string
}

// EventDetail はイベント詳細画面の読み取りモデル。
type EventDetail struct {
	Event        *model.Event
	CreatorEmail string // 解決失敗時はフォールバック文字列が入る
	IsFavorited  bool
	IsCreator    bool // 表示中のユーザーが作成者なら削除操作を出せる
}

// Service は画面単位の読み取りモデルを組み立てる。
type Service struct {
	events    EventProvider
	favorites FavoriteProvider
	resolver  CreatorResolver
}

// NewService はServiceを生成する。
func NewService(events EventProvider, favorites FavoriteProvider, resolver CreatorResolver) *Service {
	return &Service{
		events:    events,
		favorites: favorites,
		resolver:  resolver,
	}
}

// EventList はイベント一覧画面のデータを返す。
// 一覧にはお気に入り状態は含まれない。お気に入り状態は詳細画面でのみ表示される。
func (s *Service) EventList(ctx context.Context) ([]*model.Event, error) {
	return s.events.List(ctx)
}

// EventDetail はイベント詳細画面のデータを返す。
// イベント本体は毎回新鮮に読み直す。一覧表示の後に他クライアントが
// 削除していた場合はEVENT_NOT_FOUNDが返る。
// 作成者メールアドレスの解決失敗は画面全体のエラーにはせず、
// フォールバック文字列で表示を継続する。
func (s *Service) EventDetail(ctx context.Context, userID, eventID string) (*EventDetail, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	favorited, err := s.favorites.IsFavorited(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	return &EventDetail{
		Event:        event,
		CreatorEmail: s.resolver.ResolveDisplayEmail(ctx, event.CreatedByUser),
		IsFavorited:  favorited,
		IsCreator:    event.CreatedByUser == userID,
	}, nil
}

// FavoriteEvents はお気に入り画面のデータを返す。
// 全イベント一覧とユーザーのお気に入りイベントID集合の積を取る。
// 削除済みイベントを指すリンクはここで自然に除外される。
// 順序は一覧と同じ。
func (s *Service) FavoriteEvents(ctx context.Context, userID string) ([]*model.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}

	ids, err := s.favorites.ListEventIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	favorited := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		favorited[id] = struct{}{}
	}

	result := make([]*model.Event, 0, len(ids))
	for _, event := range events {
		if _, ok := favorited[event.ID]; ok {
			result = append(result, event)
		}
	}

	return result, nil
}
