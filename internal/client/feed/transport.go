// Package feed delivers row-level change notifications for the bookmark
// collection of one owner to the client.
package feed

import (
	"context"

	"github.com/iudanet/bookmarks/internal/models"
)

//go:generate moq -out transport_mock.go . Transport Stream

// Transport opens subscriptions on the server change feed.
type Transport interface {
	// Subscribe starts receiving events for the bookmarks of owner.
	Subscribe(ctx context.Context, owner string) (Stream, error)
}

// Stream is one open subscription.
type Stream interface {
	// Events is closed when the stream ends for any reason.
	Events() <-chan models.ChangeEvent
	// Close is idempotent.
	Close() error
}

// TokenSource hands out a valid access token for the current session.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}
