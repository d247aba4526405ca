package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/bookmarks/internal/client/auth"
	"github.com/iudanet/bookmarks/internal/client/replica"
)

var (
	errNotLoggedIn    = errors.New("not authenticated. Please run 'bookmarks login' first")
	errSessionExpired = errors.New("session expired. Please run 'bookmarks login' again")
)

// resume restores the saved session. The replica starts as soon as it is bound.
func (c *Cli) resume(ctx context.Context) error {
	_, err := c.session.Resume(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrNotAuthenticated):
		return errNotLoggedIn
	case errors.Is(err, auth.ErrSessionExpired):
		return errSessionExpired
	default:
		return fmt.Errorf("failed to restore session: %w", err)
	}
}

// openReplica restores the session and waits for the initial fetch.
// Callers must End the replica when done.
func (c *Cli) openReplica(ctx context.Context) error {
	if err := c.resume(ctx); err != nil {
		return err
	}

	if err := c.replica.Bind(ctx); err != nil {
		c.replica.End()
		return fmt.Errorf("failed to load bookmarks: %w", err)
	}

	return nil
}

func (c *Cli) render(snap replica.Snapshot) {
	switch {
	case errors.Is(snap.Err, replica.ErrFeedInterrupted):
		c.io.Println("⚠️  Live updates interrupted, reconnecting...")
	case snap.Err != nil:
		c.io.Printf("⚠️  Last update failed: %v\n", snap.Err)
	}

	if snap.Loading && len(snap.Bookmarks) == 0 {
		c.io.Println("Loading...")
		return
	}

	if len(snap.Bookmarks) == 0 {
		c.io.Println("No bookmarks yet.")
		c.io.Println()
		c.io.Println("Use 'bookmarks add <title> <url>' to add your first bookmark.")
		return
	}

	c.io.Printf("Found %d bookmark(s):\n", len(snap.Bookmarks))
	if snap.Loading {
		c.io.Println("(updating...)")
	}
	c.io.Println()

	for i, b := range snap.Bookmarks {
		c.io.Printf("%d. %s\n", i+1, b.Title)
		c.io.Printf("   URL:   %s\n", b.URL)
		c.io.Printf("   ID:    %s\n", b.ID)
		c.io.Printf("   Added: %s\n", b.CreatedAt.Local().Format(time.DateTime))
		c.io.Println()
	}
}
