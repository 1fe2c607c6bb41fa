package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/eventman/internal/middleware"
	"github.com/hitoshi/eventman/internal/model"
)

// FavoriteServiceInterface はお気に入りハンドラーが必要とするサービスインターフェース。
type FavoriteServiceInterface interface {
	// Add はお気に入りリンクを冪等に作成する。
	Add(ctx context.Context, userID, eventID string) error
	// Remove はお気に入りリンクを削除する。リンクがなくても成功する。
	Remove(ctx context.Context, userID, eventID string) error
}

// FavoriteViewInterface はお気に入り画面のデータ取得インターフェース。
type FavoriteViewInterface interface {
	// FavoriteEvents はユーザーのお気に入りイベント一覧を返す。
	FavoriteEvents(ctx context.Context, userID string) ([]*model.Event, error)
}

// FavoriteHandler はお気に入り管理のHTTPハンドラー。
type FavoriteHandler struct {
	service FavoriteServiceInterface
	views   FavoriteViewInterface
}

// NewFavoriteHandler はFavoriteHandlerを生成する。
func NewFavoriteHandler(service FavoriteServiceInterface, views FavoriteViewInterface) *FavoriteHandler {
	return &FavoriteHandler{
		service: service,
		views:   views,
	}
}

// AddFavorite はイベントをお気に入りに追加する。既に追加済みでも204を返す。
// PUT /api/events/:id/favorite
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	eventID := chi.URLParam(r, "id")

	if err := h.service.Add(r.Context(), userID, eventID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveFavorite はイベントをお気に入りから外す。リンクがなくても204を返す。
// DELETE /api/events/:id/favorite
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	eventID := chi.URLParam(r, "id")

	if err := h.service.Remove(r.Context(), userID, eventID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFavorites はユーザーのお気に入りイベント一覧を返す。
// GET /api/favorites
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	events, err := h.views.FavoriteEvents(r.Context(), userID)
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
