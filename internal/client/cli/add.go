package cli

import (
	"context"
	"fmt"
)

var addUsage = "Usage: bookmarks add [title] [url]"

func (c *Cli) runAdd(ctx context.Context, args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("too many arguments. %s", addUsage)
	}

	if err := c.openReplica(ctx); err != nil {
		return err
	}
	defer c.replica.End()

	c.io.Println("=== Add Bookmark ===")
	c.io.Println()

	var title, url string
	if len(args) > 0 {
		title = args[0]
	} else {
		var err error
		if title, err = c.io.ReadInput("Title: "); err != nil {
			return fmt.Errorf("failed to read title: %w", err)
		}
	}

	if len(args) > 1 {
		url = args[1]
	} else {
		var err error
		if url, err = c.io.ReadInput("URL (https://...): "); err != nil {
			return fmt.Errorf("failed to read url: %w", err)
		}
	}

	created, err := c.mutator.Add(ctx, title, url)
	if err != nil {
		return err
	}

	c.io.Println("✓ Bookmark added successfully!")
	c.io.Printf("ID: %s\n", created.ID)
	c.io.Println()
	c.render(c.replica.Snapshot())

	return nil
}
