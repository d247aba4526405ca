package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/bookmarks/internal/models"
	"github.com/iudanet/bookmarks/internal/server/storage"
)

// CreateBookmark inserts a bookmark for its owner
func (s *Storage) CreateBookmark(ctx context.Context, bookmark *models.Bookmark) error {
	query := `
		INSERT INTO bookmarks (id, user_id, title, url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query,
		bookmark.ID,
		bookmark.UserID,
		bookmark.Title,
		bookmark.URL,
		bookmark.CreatedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to insert bookmark: %w", err)
	}

	return nil
}

// ListUserBookmarks returns the owner's bookmarks, newest first
func (s *Storage) ListUserBookmarks(ctx context.Context, userID string) (_ []models.Bookmark, err error) {
	query := `
		SELECT id, user_id, title, url, created_at
		FROM bookmarks
		WHERE user_id = ?
		ORDER BY created_at DESC, seq DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bookmarks := make([]models.Bookmark, 0)
	for rows.Next() {
		var b models.Bookmark
		var createdAt int64

		if err := rows.Scan(&b.ID, &b.UserID, &b.Title, &b.URL, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}

		b.CreatedAt = time.UnixMilli(createdAt).UTC()
		bookmarks = append(bookmarks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return bookmarks, nil
}

// DeleteBookmark removes the owner's bookmark
func (s *Storage) DeleteBookmark(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrBookmarkNotFound
	}

	return nil
}
