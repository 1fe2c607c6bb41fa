package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/eventman/internal/event"
	"github.com/hitoshi/eventman/internal/middleware"
	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/view"
)

// EventServiceInterface はイベントハンドラーが必要とする書き込み系サービスインターフェース。
type EventServiceInterface interface {
	// Create はイベントを作成する。作成者は現在のセッションユーザーになる。
	Create(ctx context.Context, userID string, input event.CreateInput) (*model.Event, error)
	// Delete はイベントを削除する。作成者本人のみが削除できる。
	Delete(ctx context.Context, userID, eventID string) error
}

// EventViewInterface はイベントハンドラーが必要とする読み取り系サービスインターフェース。
type EventViewInterface interface {
	// EventList はイベント一覧画面のデータを返す。
	EventList(ctx context.Context) ([]*model.Event, error)
	// EventDetail はイベント詳細画面のデータを返す。
	EventDetail(ctx context.Context, userID, eventID string) (*view.EventDetail, error)
}

// EventHandler はイベント管理のHTTPハンドラー。
type EventHandler struct {
	service EventServiceInterface
	views   EventViewInterface
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface, views EventViewInterface) *EventHandler {
	return &EventHandler{
		service: service,
		views:   views,
	}
}

// createEventRequest はイベント作成リクエストのボディ。
type createEventRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// eventResponse はイベント情報のAPIレスポンス。
type eventResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Date          string    `json:"date"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url,omitempty"`
	CreatedByUser string    `json:"created_by_user"`
	CreatedAt     time.Time `json:"created_at"`
}

// eventDetailResponse はイベント詳細画面のAPIレスポンス。
// 作成者メールアドレス、お気に入り状態、削除可否を含む。
type eventDetailResponse struct {
	eventResponse
	CreatorEmail string `json:"creator_email"`
	IsFavorited  bool   `json:"is_favorited"`
	IsCreator    bool   `json:"is_creator"`
}

// ListEvents は全イベントの一覧を返す。
// GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.views.EventList(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]eventResponse, len(events))
	for i, e := range events {
		results[i] = toEventResponse(e)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"events": results})
}

// CreateEvent はイベント登録を処理する。
// POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), userID, event.CreateInput{
		Title:       req.Title,
		Date:        req.Date,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toEventResponse(created))
}

// GetEvent はイベント詳細を取得する。
// GET /api/events/:id
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	eventID := chi.URLParam(r, "id")

	detail, err := h.views.EventDetail(r.Context(), userID, eventID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eventDetailResponse{
		eventResponse: toEventResponse(detail.Event),
		CreatorEmail:  detail.CreatorEmail,
		IsFavorited:   detail.IsFavorited,
		IsCreator:     detail.IsCreator,
	})
}

// DeleteEvent はイベントを削除する。
// DELETE /api/events/:id
// 既に削除済みの場合も204を返す。削除要求の最終状態は同じため。
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	eventID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, eventID); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeEventNotFound {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toEventResponse はmodel.EventからAPIレスポンスに変換する。
func toEventResponse(e *model.Event) eventResponse {
	return eventResponse{
		ID:            e.ID,
		Title:         e.Title,
		Date:          e.Date,
		Description:   e.Description,
		ImageURL:      e.ImageURL,
		CreatedByUser: e.CreatedByUser,
		CreatedAt:     e.CreatedAt,
	}
}
