// Package changefeed fans out row-level bookmark changes to the
// websocket subscribers of their owner.
package changefeed

import (
	"context"
	"errors"

	"github.com/iudanet/bookmarks/internal/models"
)

// subscriberBuffer is the per-subscriber queue size.
// A full queue means the client already has a refresh pending, so further
// events for it are dropped instead of blocking the publisher.
const subscriberBuffer = 16

// ErrClosed is returned by a broker after Close.
var ErrClosed = errors.New("changefeed: broker closed")

// Publisher announces a change to every subscriber of event.Owner.
type Publisher interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
}

// Broker is a Publisher that also hands out per-owner subscriptions.
type Broker interface {
	Publisher

	// Subscribe returns a channel of events for owner and a cancel func.
	// The channel is closed after cancel is called or ctx is done.
	Subscribe(ctx context.Context, owner string) (<-chan models.ChangeEvent, func(), error)
}
