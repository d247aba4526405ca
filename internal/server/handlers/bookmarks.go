package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/bookmarks/internal/models"
	"github.com/iudanet/bookmarks/internal/server/changefeed"
	"github.com/iudanet/bookmarks/internal/server/storage"
	"github.com/iudanet/bookmarks/internal/validation"
	"github.com/iudanet/bookmarks/pkg/api"
)

// maxBookmarkBody ограничивает размер тела запроса на создание
const maxBookmarkBody = 64 << 10

// BookmarkHandler serves the owner-scoped bookmark collection and announces
// every successful change through the publisher.
type BookmarkHandler struct {
	logger    *slog.Logger
	storage   storage.BookmarkStorage
	publisher changefeed.Publisher
	now       func() time.Time
}

// NewBookmarkHandler создает handler для закладок
func NewBookmarkHandler(logger *slog.Logger, bookmarkStorage storage.BookmarkStorage, publisher changefeed.Publisher) *BookmarkHandler {
	return &BookmarkHandler{
		logger:    logger,
		storage:   bookmarkStorage,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List обрабатывает GET /api/v1/bookmarks
func (h *BookmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	bookmarks, err := h.storage.ListUserBookmarks(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list bookmarks",
			slog.String("user_id", userID),
			slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.ListBookmarksResponse{Bookmarks: make([]api.Bookmark, 0, len(bookmarks))}
	for _, b := range bookmarks {
		resp.Bookmarks = append(resp.Bookmarks, toAPIBookmark(b))
	}

	h.logger.DebugContext(ctx, "bookmarks listed",
		slog.String("user_id", userID),
		slog.Int("count", len(bookmarks)))

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Create обрабатывает POST /api/v1/bookmarks
func (h *BookmarkHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateBookmarkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBookmarkBody)).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode bookmark request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	title, url, err := validation.ValidateBookmark(req.Title, req.URL)
	if err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	bookmark := models.Bookmark{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		URL:       url,
		CreatedAt: h.now(),
	}

	if err := h.storage.CreateBookmark(ctx, &bookmark); err != nil {
		h.logger.ErrorContext(ctx, "failed to create bookmark",
			slog.String("user_id", userID),
			slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "bookmark created",
		slog.String("user_id", userID),
		slog.String("bookmark_id", bookmark.ID))

	h.announce(ctx, models.ChangeInsert, userID, bookmark.ID)

	sendJSON(h.logger, w, toAPIBookmark(bookmark), http.StatusCreated)
}

// Delete обрабатывает DELETE /api/v1/bookmarks/{id}.
// Deleting an absent bookmark is not an error.
func (h *BookmarkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		sendError(h.logger, w, "bookmark id is required", http.StatusBadRequest)
		return
	}

	err := h.storage.DeleteBookmark(ctx, userID, id)
	switch {
	case errors.Is(err, storage.ErrBookmarkNotFound):
		h.logger.DebugContext(ctx, "bookmark already absent",
			slog.String("user_id", userID),
			slog.String("bookmark_id", id))
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to delete bookmark",
			slog.String("user_id", userID),
			slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	default:
		h.logger.InfoContext(ctx, "bookmark deleted",
			slog.String("user_id", userID),
			slog.String("bookmark_id", id))
		h.announce(ctx, models.ChangeDelete, userID, id)
	}

	w.WriteHeader(http.StatusNoContent)
}

// announce публикует событие изменения; ошибка не влияет на ответ клиенту
func (h *BookmarkHandler) announce(ctx context.Context, typ models.ChangeType, owner, id string) {
	if h.publisher == nil {
		return
	}

	event := models.ChangeEvent{
		At:    h.now(),
		Type:  typ,
		Table: models.BookmarksTable,
		Owner: owner,
		ID:    id,
	}

	if err := h.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		h.logger.WarnContext(ctx, "failed to publish change event",
			slog.String("user_id", owner),
			slog.String("type", string(typ)),
			slog.Any("error", err))
	}
}

func toAPIBookmark(b models.Bookmark) api.Bookmark {
	return api.Bookmark{
		CreatedAt: b.CreatedAt,
		ID:        b.ID,
		UserID:    b.UserID,
		Title:     b.Title,
		URL:       b.URL,
	}
}
