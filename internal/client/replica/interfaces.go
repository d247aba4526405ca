package replica

import (
	"context"

	"github.com/iudanet/bookmarks/internal/models"
)

//go:generate moq -out store_mock.go . Store

// Store is the remote source of truth for bookmarks. Every call is scoped to owner.
type Store interface {
	// List returns all bookmarks of owner, newest first.
	List(ctx context.Context, owner string) ([]models.Bookmark, error)
	// Insert creates a bookmark; id and creation time are assigned by the store.
	Insert(ctx context.Context, owner, title, url string) (*models.Bookmark, error)
	// Delete removes a bookmark. Deleting an absent id succeeds.
	Delete(ctx context.Context, owner, id string) error
}

// Feed delivers change notifications for one owner at a time.
type Feed interface {
	// Open replaces any open subscription. The channel is closed when the
	// subscription ends or ctx is done. An empty owner yields a nil channel.
	Open(ctx context.Context, owner string) (<-chan models.ChangeEvent, error)
	Close() error
}

// Session tells who the current user is and when that changes.
type Session interface {
	CurrentIdentity() (models.Identity, bool)
	OnSessionChange(fn func(models.Identity, bool))
}
