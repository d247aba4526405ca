package api

import (
	"context"
	"fmt"

	"github.com/iudanet/bookmarks/internal/client/replica"
	"github.com/iudanet/bookmarks/internal/models"
	"github.com/iudanet/bookmarks/pkg/api"
)

// TokenSource hands out a valid access token for the current session.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// BookmarkStore adapts Client to the remote store contract of the sync engine.
// The server scopes every call by the bearer token, so owner only guards
// against a token that belongs to somebody else.
type BookmarkStore struct {
	client *Client
	tokens TokenSource
}

// NewBookmarkStore creates a store adapter bound to a token source.
func NewBookmarkStore(client *Client, tokens TokenSource) *BookmarkStore {
	return &BookmarkStore{client: client, tokens: tokens}
}

// List returns the rows visible to the session, in server order.
func (s *BookmarkStore) List(ctx context.Context, owner string) ([]models.Bookmark, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.client.ListBookmarks(ctx, token)
	if err != nil {
		return nil, err
	}

	bookmarks := make([]models.Bookmark, 0, len(rows))
	for _, row := range rows {
		bookmarks = append(bookmarks, toModel(row))
	}

	return bookmarks, nil
}

// Insert creates a bookmark owned by owner. A created row of another user is
// reported as replica.ErrForeignRow: the row exists on the server but is not returned.
func (s *BookmarkStore) Insert(ctx context.Context, owner, title, url string) (*models.Bookmark, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.client.CreateBookmark(ctx, token, api.CreateBookmarkRequest{Title: title, URL: url})
	if err != nil {
		return nil, err
	}

	if created.UserID != owner {
		return nil, fmt.Errorf("%w: bookmark %s created for user %s, expected %s",
			replica.ErrForeignRow, created.ID, created.UserID, owner)
	}

	b := toModel(*created)
	return &b, nil
}

// Delete removes the bookmark. An id that does not exist is not an error.
func (s *BookmarkStore) Delete(ctx context.Context, owner, id string) error {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	return s.client.DeleteBookmark(ctx, token, id)
}

func toModel(b api.Bookmark) models.Bookmark {
	return models.Bookmark{
		ID:        b.ID,
		UserID:    b.UserID,
		Title:     b.Title,
		URL:       b.URL,
		CreatedAt: b.CreatedAt,
	}
}
