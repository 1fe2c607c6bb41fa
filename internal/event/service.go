// Package event はイベントカタログのビジネスロジックを提供する。
package event

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/eventman/internal/metrics"
	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/repository"
	"github.com/hitoshi/eventman/internal/security"
)

// maxTitleLength はタイトルの最大文字数。
const maxTitleLength = 200

// maxDescriptionLength は説明文の最大文字数。
const maxDescriptionLength = 5000

// datePattern はYYYY-MM-DD形式の日付文字列。
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// CreateInput はイベント作成の入力。
type CreateInput struct {
	Title       string
	Date        string
	Description string
	ImageURL    string // 任意。空文字列は未設定。
}

// Service はイベントの一覧取得、作成、削除を提供する。
type Service struct {
	eventRepo repository.EventRepository
	sanitizer security.TextSanitizerService
	urlGuard  security.ImageURLGuardService
	prober    security.ImageProberService // nilの場合は到達性プローブを行わない
	collector metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(
	eventRepo repository.EventRepository,
	sanitizer security.TextSanitizerService,
	urlGuard security.ImageURLGuardService,
	prober security.ImageProberService,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		eventRepo: eventRepo,
		sanitizer: sanitizer,
		urlGuard:  urlGuard,
		prober:    prober,
		collector: collector,
	}
}

// List は全イベントを返す。
// 全ユーザーが同じカタログを共有するため、ユーザーによる絞り込みはしない。
// 毎回ストアから読み直し、キャッシュは持たない。
func (s *Service) List(ctx context.Context) ([]*model.Event, error) {
	start := time.Now()
	events, err := s.eventRepo.List(ctx)
	s.collector.RecordStoreLatency(time.Since(start))
	if err != nil {
		slog.Error("failed to list events", slog.String("error", err.Error()))
		return nil, model.NewStoreUnavailableError()
	}
	return events, nil
}

// Get は指定IDのイベントを返す。見つからない場合はEVENT_NOT_FOUNDを返す。
// 詳細表示は一覧のスナップショットではなく、毎回この新鮮な読み取りを使う。
func (s *Service) Get(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		slog.Error("failed to find event",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStoreUnavailableError()
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(eventID)
	}
	return event, nil
}

// Create はイベントを作成する。
// タイトルと説明はサニタイズしてから永続化する。
// 画像URLが指定されている場合はSSRF防止の事前検証と到達性プローブを行う。
// 作成者は必ず現在のセッションユーザーになる。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Event, error) {
	title := s.sanitizer.Sanitize(input.Title)
	description := s.sanitizer.Sanitize(input.Description)

	if err := validateEventInput(title, input.Date, description); err != nil {
		return nil, err
	}

	if input.ImageURL != "" {
		if err := s.urlGuard.ValidateURL(input.ImageURL); err != nil {
			slog.Warn("rejected event image URL",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			return nil, model.NewInvalidImageURLError(err.Error())
		}
		if s.prober != nil {
			if err := s.prober.ProbeImageURL(ctx, input.ImageURL); err != nil {
				slog.Warn("event image URL probe failed",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				return nil, model.NewInvalidImageURLError(err.Error())
			}
		}
	}

	now := time.Now()
	event := &model.Event{
		ID:            uuid.New().String(),
		Title:         title,
		Date:          input.Date,
		Description:   description,
		ImageURL:      input.ImageURL,
		CreatedByUser: userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	start := time.Now()
	err := s.eventRepo.Create(ctx, event)
	s.collector.RecordStoreLatency(time.Since(start))
	if err != nil {
		slog.Error("failed to create event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStoreUnavailableError()
	}

	s.collector.RecordEventCreated()
	slog.Info("event created",
		slog.String("event_id", event.ID),
		slog.String("user_id", userID),
	)

	return event, nil
}

// Delete は指定IDのイベントを削除する。
// 認可判定は必ず削除直前の新鮮な読み取りに対して行う。
// 一覧表示時点の古いデータで判定してはならない。
// 作成者以外からの削除要求はPERMISSION_DENIEDを返す。
func (s *Service) Delete(ctx context.Context, userID, eventID string) error {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		slog.Error("failed to find event for deletion",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		return model.NewStoreUnavailableError()
	}
	if event == nil {
		// 既に存在しない。ハンドラー側で削除要求に対しては成功として扱われる。
		return model.NewEventNotFoundError(eventID)
	}

	if event.CreatedByUser != userID {
		slog.Warn("unauthorized event deletion attempt",
			slog.String("event_id", eventID),
			slog.String("user_id", userID),
			slog.String("created_by", event.CreatedByUser),
		)
		return model.NewPermissionDeniedError()
	}

	rows, err := s.eventRepo.DeleteByID(ctx, eventID)
	if err != nil {
		slog.Error("failed to delete event",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		return model.NewStoreUnavailableError()
	}
	// 読み取りから削除までの間に他クライアントが削除した場合は0行になるが、
	// 最終状態は同じなので成功として扱う。
	if rows == 0 {
		slog.Info("event already deleted by another client", slog.String("event_id", eventID))
		return nil
	}

	s.collector.RecordEventDeleted()
	slog.Info("event deleted",
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
	)

	return nil
}

// validateEventInput はイベント作成の入力を検証する。
// タイトル、日付、説明はすべて必須。日付はYYYY-MM-DD形式でなければならない。
func validateEventInput(title, date, description string) error {
	if title == "" || len(title) > maxTitleLength {
		return model.NewValidationError("title")
	}
	if !datePattern.MatchString(date) {
		return model.NewValidationError("date")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return model.NewValidationError("date")
	}
	if description == "" || len(description) > maxDescriptionLength {
		return model.NewValidationError("description")
	}
	return nil
}
