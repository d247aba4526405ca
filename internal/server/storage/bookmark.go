package storage

import (
	"context"

	"github.com/iudanet/bookmarks/internal/models"
)

// BookmarkStorage defines persistence of bookmarks.
// Every method is scoped to an owner: rows of other users are never visible.
type BookmarkStorage interface {
	// CreateBookmark inserts a bookmark; ID, UserID and CreatedAt must be set
	CreateBookmark(ctx context.Context, bookmark *models.Bookmark) error

	// ListUserBookmarks returns the owner's bookmarks, newest first.
	// Equal created_at values are ordered by insertion, newest first.
	// Returns empty slice if none
	ListUserBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error)

	// DeleteBookmark removes the owner's bookmark.
	// Returns ErrBookmarkNotFound if there was nothing to delete
	DeleteBookmark(ctx context.Context, userID, id string) error
}
