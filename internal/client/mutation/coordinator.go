// Package mutation validates and submits add/delete requests for the current
// user. It never edits the replica: after a successful write it asks the
// replica to refresh from the store.
package mutation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/iudanet/bookmarks/internal/client/replica"
	"github.com/iudanet/bookmarks/internal/models"
	"github.com/iudanet/bookmarks/internal/validation"
)

// Replica is the part of replica.Engine the coordinator needs.
type Replica interface {
	Identity() (models.Identity, bool)
	Refresh(ctx context.Context) error
}

// Coordinator turns user intents into store writes.
type Coordinator struct {
	logger  *slog.Logger
	store   replica.Store
	replica Replica
}

// NewCoordinator creates a coordinator writing to store and reconciling through r.
func NewCoordinator(logger *slog.Logger, store replica.Store, r Replica) *Coordinator {
	return &Coordinator{
		logger:  logger,
		store:   store,
		replica: r,
	}
}

// Add validates title and url, inserts the bookmark and refreshes the replica.
// Invalid input is rejected with a *validation.ValidationError before the store is contacted.
// A failed refresh after a successful insert is not returned: it is recorded
// in the replica snapshot. An insert answered with replica.ErrForeignRow is
// reported as failed but still refreshes the replica.
func (c *Coordinator) Add(ctx context.Context, title, url string) (*models.Bookmark, error) {
	title, url, err := validation.ValidateBookmark(title, url)
	if err != nil {
		return nil, err
	}

	identity, ok := c.replica.Identity()
	if !ok {
		return nil, replica.ErrNoSession
	}

	created, err := c.store.Insert(ctx, identity.UserID, title, url)
	if err != nil {
		c.logger.Error("failed to add bookmark", slog.String("user_id", identity.UserID), slog.Any("error", err))
		if errors.Is(err, replica.ErrForeignRow) {
			// строка уже создана на сервере, реплика должна это увидеть
			c.reconcile(ctx)
		}
		return nil, &replica.StoreRequestError{Op: "insert", Err: err}
	}

	c.logger.Info("bookmark added", slog.String("user_id", identity.UserID), slog.String("bookmark_id", created.ID))

	c.reconcile(ctx)

	return created, nil
}

// Delete removes the bookmark with id and refreshes the replica.
// Deleting an id that no longer exists succeeds.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &validation.ValidationError{Field: "id", Message: "bookmark id is required"}
	}

	identity, ok := c.replica.Identity()
	if !ok {
		return replica.ErrNoSession
	}

	if err := c.store.Delete(ctx, identity.UserID, id); err != nil {
		c.logger.Error("failed to delete bookmark",
			slog.String("user_id", identity.UserID), slog.String("bookmark_id", id), slog.Any("error", err))
		return &replica.StoreRequestError{Op: "delete", Err: err}
	}

	c.logger.Info("bookmark deleted", slog.String("user_id", identity.UserID), slog.String("bookmark_id", id))

	c.reconcile(ctx)

	return nil
}

func (c *Coordinator) reconcile(ctx context.Context) {
	if err := c.replica.Refresh(ctx); err != nil {
		c.logger.Warn("refresh after write failed", slog.Any("error", err))
	}
}
