package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/eventman/internal/event"
	"github.com/hitoshi/eventman/internal/middleware"
	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/view"
)

// --- モック ---

type mockEventService struct {
	createFn func(ctx context.Context, userID string, input event.CreateInput) (*model.Event, error)
	deleteFn func(ctx context.Context, userID, eventID string) error
}

func (m *mockEventService) Create(ctx context.Context, userID string, input event.CreateInput) (*model.Event, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return &model.Event{ID: "event-1", Title: input.Title, CreatedByUser: userID}, nil
}
func (m *mockEventService) Delete(ctx context.Context, userID, eventID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, eventID)
	}
	return nil
}

type mockEventViews struct {
	eventListFn   func(ctx context.Context) ([]*model.Event, error)
	eventDetailFn func(ctx context.Context, userID, eventID string) (*view.EventDetail, error)
}

func (m *mockEventViews) EventList(ctx context.Context) ([]*model.Event, error) {
	if m.eventListFn != nil {
		return m.eventListFn(ctx)
	}
	return nil, nil
}
func (m *mockEventViews) EventDetail(ctx context.Context, userID, eventID string) (*view.EventDetail, error) {
	if m.eventDetailFn != nil {
		return m.eventDetailFn(ctx, userID, eventID)
	}
	return nil, model.NewEventNotFoundError(eventID)
}

// authedRequest は認証済みユーザーIDをコンテキストに持つリクエストを生成する。
func authedRequest(method, target, userID string, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

// withURLParam はchiのURLパラメータをリクエストコンテキストに設定する。
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// --- 一覧 ---

// イベント一覧が返ることを検証
func TestListEvents_ReturnsEvents(t *testing.T) {
	views := &mockEventViews{
		eventListFn: func(ctx context.Context) ([]*model.Event, error) {
			return []*model.Event{
				{ID: "event-1", Title: "Meetup", Date: "2024-06-15"},
				{ID: "event-2", Title: "Conference", Date: "2024-07-01"},
			}, nil
		},
	}
	h := NewEventHandler(&mockEventService{}, views)

	req := authedRequest(http.MethodGet, "/api/events", "user-1", "")
	w := httptest.NewRecorder()

	h.ListEvents(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Events []eventResponse `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Events) != 2 {
		t.Errorf("len(events) = %d, want 2", len(body.Events))
	}
	if body.Events[0].Title != "Meetup" {
		t.Errorf("title = %q, want %q", body.Events[0].Title, "Meetup")
	}
}

// ストア障害で503が返ることを検証
func TestListEvents_StoreFailure_Returns503(t *testing.T) {
	views := &mockEventViews{
		eventListFn: func(ctx context.Context) ([]*model.Event, error) {
			return nil, model.NewStoreUnavailableError()
		},
	}
	h := NewEventHandler(&mockEventService{}, views)

	req := authedRequest(http.MethodGet, "/api/events", "user-1", "")
	w := httptest.NewRecorder()

	h.ListEvents(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusServiceUnavailable)
	}
}

// --- 作成 ---

// イベント作成で201と作成結果が返ることを検証
func TestCreateEvent_Success_Returns201(t *testing.T) {
	var gotInput event.CreateInput
	svc := &mockEventService{
		createFn: func(ctx context.Context, userID string, input event.CreateInput) (*model.Event, error) {
			gotInput = input
			return &model.Event{
				ID:            "event-1",
				Title:         input.Title,
				Date:          input.Date,
				Description:   input.Description,
				CreatedByUser: userID,
			}, nil
		},
	}
	h := NewEventHandler(svc, &mockEventViews{})

	body := `{"title":"Meetup","date":"2024-06-15","description":"Monthly gathering"}`
	req := authedRequest(http.MethodPost, "/api/events", "user-1", body)
	w := httptest.NewRecorder()

	h.CreateEvent(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if gotInput.Title != "Meetup" || gotInput.Date != "2024-06-15" {
		t.Errorf("input = %+v, want title=Meetup date=2024-06-15", gotInput)
	}

	var respBody eventResponse
	json.NewDecoder(resp.Body).Decode(&respBody)
	if respBody.CreatedByUser != "user-1" {
		t.Errorf("created_by_user = %q, want %q", respBody.CreatedByUser, "user-1")
	}
}

// 入力検証エラーで400が返ることを検証
func TestCreateEvent_ValidationError_Returns400(t *testing.T) {
	svc := &mockEventService{
		createFn: func(ctx context.Context, userID string, input event.CreateInput) (*model.Event, error) {
			return nil, model.NewValidationError("title")
		},
	}
	h := NewEventHandler(svc, &mockEventViews{})

	req := authedRequest(http.MethodPost, "/api/events", "user-1", `{"title":""}`)
	w := httptest.NewRecorder()

	h.CreateEvent(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

// 認証なしで401が返ることを検証
func TestCreateEvent_NoAuth_Returns401(t *testing.T) {
	h := NewEventHandler(&mockEventService{}, &mockEventViews{})

	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	h.CreateEvent(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// --- 詳細 ---

// イベント詳細が作成者メール・お気に入り状態付きで返ることを検証
func TestGetEvent_ReturnsDetail(t *testing.T) {
	views := &mockEventViews{
		eventDetailFn: func(ctx context.Context, userID, eventID string) (*view.EventDetail, error) {
			return &view.EventDetail{
				Event:        &model.Event{ID: eventID, Title: "Meetup", CreatedByUser: "creator-1"},
				CreatorEmail: "creator@example.com",
				IsFavorited:  true,
				IsCreator:    false,
			}, nil
		},
	}
	h := NewEventHandler(&mockEventService{}, views)

	req := withURLParam(authedRequest(http.MethodGet, "/api/events/event-1", "user-1", ""), "id", "event-1")
	w := httptest.NewRecorder()

	h.GetEvent(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body eventDetailResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.CreatorEmail != "creator@example.com" {
		t.Errorf("creator_email = %q, want %q", body.CreatorEmail, "creator@example.com")
	}
	if !body.IsFavorited {
		t.Error("is_favorited = false, want true")
	}
}

// 削除済みイベントの詳細取得で404が返ることを検証
func TestGetEvent_Deleted_Returns404(t *testing.T) {
	h := NewEventHandler(&mockEventService{}, &mockEventViews{})

	req := withURLParam(authedRequest(http.MethodGet, "/api/events/gone", "user-1", ""), "id", "gone")
	w := httptest.NewRecorder()

	h.GetEvent(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// --- 削除 ---

// 作成者本人の削除で204が返ることを検証
func TestDeleteEvent_ByCreator_Returns204(t *testing.T) {
	deleted := ""
	svc := &mockEventService{
		deleteFn: func(ctx context.Context, userID, eventID string) error {
			deleted = eventID
			return nil
		},
	}
	h := NewEventHandler(svc, &mockEventViews{})

	req := withURLParam(authedRequest(http.MethodDelete, "/api/events/event-1", "user-1", ""), "id", "event-1")
	w := httptest.NewRecorder()

	h.DeleteEvent(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if deleted != "event-1" {
		t.Errorf("deleted = %q, want %q", deleted, "event-1")
	}
}

// 既に削除済みのイベントの削除も204になることを検証（冪等性）
func TestDeleteEvent_AlreadyDeleted_Returns204(t *testing.T) {
	svc := &mockEventService{
		deleteFn: func(ctx context.Context, userID, eventID string) error {
			return model.NewEventNotFoundError(eventID)
		},
	}
	h := NewEventHandler(svc, &mockEventViews{})

	req := withURLParam(authedRequest(http.MethodDelete, "/api/events/gone", "user-1", ""), "id", "gone")
	w := httptest.NewRecorder()

	h.DeleteEvent(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}

// 作成者以外の削除で403が返ることを検証
func TestDeleteEvent_ByNonCreator_Returns403(t *testing.T) {
	svc := &mockEventService{
		deleteFn: func(ctx context.Context, userID, eventID string) error {
			return model.NewPermissionDeniedError()
		},
	}
	h := NewEventHandler(svc, &mockEventViews{})

	req := withURLParam(authedRequest(http.MethodDelete, "/api/events/event-1", "user-2", ""), "id", "event-1")
	w := httptest.NewRecorder()

	h.DeleteEvent(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}
