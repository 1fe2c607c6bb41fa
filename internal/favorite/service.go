// Package favorite はユーザーごとのお気に入りリンクの管理を提供する。
package favorite

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/eventman/internal/metrics"
	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/repository"
)

// Service はお気に入りの追加、解除、照会を提供する。
// お気に入りはユーザーとイベントの間のリンクレコードであり、
// イベント本体には作用しない。
type Service struct {
	favoriteRepo repository.FavoriteRepository
	collector    metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(favoriteRepo repository.FavoriteRepository, collector metrics.MetricsCollector) *Service {
	return &Service{
		favoriteRepo: favoriteRepo,
		collector:    collector,
	}
}

// IsFavorited はユーザーが指定イベントをお気に入りしているかを返す。
func (s *Service) IsFavorited(ctx context.Context, userID, eventID string) (bool, error) {
	exists, err := s.favoriteRepo.Exists(ctx, userID, eventID)
	if err != nil {
		slog.Error("failed to check favorite",
			slog.String("user_id", userID),
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		return false, model.NewStoreUnavailableError()
	}
	return exists, nil
}

// Add はお気に入りリンクを作成する。
// 既にお気に入り済みの場合も重複レコードを作らず成功する。
// イベントの存在は確認しない。追加とイベント削除が競合しても
// リンクは独立したレコードとして残り、表示時に除外される。
func (s *Service) Add(ctx context.Context, userID, eventID string) error {
	link := &model.FavoriteLink{
		ID:        uuid.New().String(),
		UserID:    userID,
		EventID:   eventID,
		CreatedAt: time.Now(),
	}

	start := time.Now()
	err := s.favoriteRepo.Create(ctx, link)
	s.collector.RecordStoreLatency(time.Since(start))
	if err != nil {
		slog.Error("failed to add favorite",
			slog.String("user_id", userID),
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		return model.NewStoreUnavailableError()
	}

	s.collector.RecordFavoriteAdded()
	slog.Info("favorite added",
		slog.String("user_id", userID),
		slog.String("event_id", eventID),
	)

	return nil
}

// Remove はお気に入りリンクを削除する。
// リンクが存在しない場合も成功として扱う。
func (s *Service) Remove(ctx context.Context, userID, eventID string) error {
	start := time.Now()
	err := s.favoriteRepo.DeleteByUserAndEvent(ctx, userID, eventID)
	s.collector.RecordStoreLatency(time.Since(start))
	if err != nil {
		slog.Error("failed to remove favorite",
			slog.String("user_id", userID),
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		return model.NewStoreUnavailableError()
	}

	s.collector.RecordFavoriteRemoved()
	slog.Info("favorite removed",
		slog.String("user_id", userID),
		slog.String("event_id", eventID),
	)

	return nil
}

// ListEventIDs はユーザーがお気に入りしたイベントIDの集合を返す。
// 削除済みイベントを指すリンクのIDも含まれる。除外は表示層が行う。
func (s *Service) ListEventIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.favoriteRepo.ListEventIDsByUser(ctx, userID)
	if err != nil {
		slog.Error("failed to list favorite event IDs",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStoreUnavailableError()
	}
	return ids, nil
}
