package cli

import (
	"context"
	"log/slog"

	"github.com/iudanet/bookmarks/internal/client/replica"
)

// runWatch prints the list again after every change until ctx is cancelled.
func (c *Cli) runWatch(ctx context.Context) error {
	if err := c.resume(ctx); err != nil {
		return err
	}

	// Watch вызывается последовательно, поэтому в буфере всегда только последний snapshot
	updates := make(chan replica.Snapshot, 1)
	c.replica.Watch(func(snap replica.Snapshot) {
		select {
		case <-updates:
		default:
		}
		updates <- snap
	})

	// ошибка первой загрузки уже есть в snapshot, продолжаем ждать обновлений
	if err := c.replica.Bind(ctx); err != nil {
		c.logger.Debug("initial load failed", slog.Any("error", err))
	}
	defer c.replica.End()

	c.io.Println("Watching bookmarks, press Ctrl+C to stop.")

	for {
		select {
		case <-ctx.Done():
			c.io.Println()
			c.io.Println("Stopped watching.")
			return nil
		case snap := <-updates:
			c.io.Println()
			c.io.Println("=== Bookmarks ===")
			c.render(snap)
		}
	}
}
