package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/bookmarks/internal/models"
	"github.com/iudanet/bookmarks/pkg/api"
)

func newTestBookmarkHandler(store *mockBookmarkStorage, pub *recordingPublisher) *BookmarkHandler {
	h := NewBookmarkHandler(setupTestLogger(), store, pub)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	h.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return h
}

func TestBookmarkHandler_Create(t *testing.T) {
	store := &mockBookmarkStorage{}
	pub := &recordingPublisher{}
	handler := newTestBookmarkHandler(store, pub)

	body := jsonBody(t, api.CreateBookmarkRequest{Title: "  Docs ", URL: " https://docs.example.com "})
	w := httptest.NewRecorder()
	handler.Create(w, authedRequest(http.MethodPost, "/api/v1/bookmarks", body, "alice"))

	require.Equal(t, http.StatusCreated, w.Code)

	var created api.Bookmark
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.UserID)
	assert.Equal(t, "Docs", created.Title)
	assert.Equal(t, "https://docs.example.com", created.URL)
	assert.False(t, created.CreatedAt.IsZero())

	require.Len(t, store.bookmarks, 1)
	assert.Equal(t, created.ID, store.bookmarks[0].ID)

	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, models.ChangeInsert, events[0].Type)
	assert.Equal(t, models.BookmarksTable, events[0].Table)
	assert.Equal(t, "alice", events[0].Owner)
	assert.Equal(t, created.ID, events[0].ID)
}

func TestBookmarkHandler_Create_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "invalid json", body: `{`, message: "invalid request body"},
		{name: "empty title", body: `{"title":"  ","url":"https://example.com"}`, message: "title is required"},
		{name: "empty url", body: `{"title":"Docs","url":""}`, message: "URL is required"},
		{name: "relative url", body: `{"title":"Docs","url":"docs.example.com"}`, message: "please enter a valid URL (include https://)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockBookmarkStorage{}
			pub := &recordingPublisher{}
			handler := newTestBookmarkHandler(store, pub)

			w := httptest.NewRecorder()
			handler.Create(w, authedRequest(http.MethodPost, "/api/v1/bookmarks", strings.NewReader(tt.body), "alice"))

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.message, resp.Message)

			assert.Empty(t, store.bookmarks)
			assert.Empty(t, pub.published())
		})
	}
}

func TestBookmarkHandler_Create_StorageError(t *testing.T) {
	store := &mockBookmarkStorage{saveError: errors.New("disk full")}
	pub := &recordingPublisher{}
	handler := newTestBookmarkHandler(store, pub)

	body := jsonBody(t, api.CreateBookmarkRequest{Title: "Docs", URL: "https://docs.example.com"})
	w := httptest.NewRecorder()
	handler.Create(w, authedRequest(http.MethodPost, "/api/v1/bookmarks", body, "alice"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, pub.published())
}

func TestBookmarkHandler_Create_PublishFailureStillSucceeds(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("redis down")}
	handler := newTestBookmarkHandler(&mockBookmarkStorage{}, pub)

	body := jsonBody(t, api.CreateBookmarkRequest{Title: "Docs", URL: "https://docs.example.com"})
	w := httptest.NewRecorder()
	handler.Create(w, authedRequest(http.MethodPost, "/api/v1/bookmarks", body, "alice"))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBookmarkHandler_List(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := &mockBookmarkStorage{bookmarks: []models.Bookmark{
		{ID: "a1", UserID: "alice", Title: "first", URL: "https://a.example", CreatedAt: t0},
		{ID: "b1", UserID: "bob", Title: "foreign", URL: "https://b.example", CreatedAt: t0},
		{ID: "a2", UserID: "alice", Title: "second", URL: "https://c.example", CreatedAt: t0.Add(time.Minute)},
	}}
	handler := newTestBookmarkHandler(store, &recordingPublisher{})

	w := httptest.NewRecorder()
	handler.List(w, authedRequest(http.MethodGet, "/api/v1/bookmarks", nil, "alice"))

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ListBookmarksResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Bookmarks, 2)
	assert.Equal(t, "a2", resp.Bookmarks[0].ID)
	assert.Equal(t, "a1", resp.Bookmarks[1].ID)
}

func TestBookmarkHandler_List_Empty(t *testing.T) {
	handler := newTestBookmarkHandler(&mockBookmarkStorage{}, &recordingPublisher{})

	w := httptest.NewRecorder()
	handler.List(w, authedRequest(http.MethodGet, "/api/v1/bookmarks", nil, "alice"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"bookmarks":[]}`, w.Body.String())
}

func TestBookmarkHandler_List_Errors(t *testing.T) {
	handler := newTestBookmarkHandler(&mockBookmarkStorage{listError: errors.New("db")}, &recordingPublisher{})

	w := httptest.NewRecorder()
	handler.List(w, authedRequest(http.MethodGet, "/api/v1/bookmarks", nil, "alice"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/api/v1/bookmarks", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookmarkHandler_Delete(t *testing.T) {
	store := &mockBookmarkStorage{bookmarks: []models.Bookmark{
		{ID: "a1", UserID: "alice", Title: "docs", URL: "https://a.example"},
	}}
	pub := &recordingPublisher{}
	handler := newTestBookmarkHandler(store, pub)

	deleteReq := func(id, owner string) *httptest.ResponseRecorder {
		req := authedRequest(http.MethodDelete, "/api/v1/bookmarks/"+id, nil, owner)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.Delete(w, req)
		return w
	}

	// чужая закладка не удаляется, но ответ тот же
	assert.Equal(t, http.StatusNoContent, deleteReq("a1", "bob").Code)
	assert.Len(t, store.bookmarks, 1)
	assert.Empty(t, pub.published())

	assert.Equal(t, http.StatusNoContent, deleteReq("a1", "alice").Code)
	assert.Empty(t, store.bookmarks)

	// повторное удаление успешно и без события
	assert.Equal(t, http.StatusNoContent, deleteReq("a1", "alice").Code)

	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, models.ChangeDelete, events[0].Type)
	assert.Equal(t, "a1", events[0].ID)
}

func TestBookmarkHandler_Delete_Errors(t *testing.T) {
	handler := newTestBookmarkHandler(&mockBookmarkStorage{delError: errors.New("db")}, &recordingPublisher{})

	req := authedRequest(http.MethodDelete, "/api/v1/bookmarks/x", nil, "alice")
	req.SetPathValue("id", "x")
	w := httptest.NewRecorder()
	handler.Delete(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	handler.Delete(w, authedRequest(http.MethodDelete, "/api/v1/bookmarks/", nil, "alice"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
