package cli

import (
	"context"
	"fmt"
	"strings"
)

var deleteUsage = "Usage: bookmarks delete <id> [--yes]"

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	var id string
	confirmed := false
	for _, arg := range args {
		switch {
		case arg == "--yes" || arg == "-y":
			confirmed = true
		case id == "":
			id = arg
		default:
			return fmt.Errorf("unexpected argument %q. %s", arg, deleteUsage)
		}
	}
	if id == "" {
		return fmt.Errorf("missing bookmark ID. %s", deleteUsage)
	}

	if err := c.openReplica(ctx); err != nil {
		return err
	}
	defer c.replica.End()

	c.io.Println("=== Delete Bookmark ===")
	c.io.Println()

	for _, b := range c.replica.Snapshot().Bookmarks {
		if b.ID == id {
			c.io.Println("About to delete:")
			c.io.Printf("  Title: %s\n", b.Title)
			c.io.Printf("  URL:   %s\n", b.URL)
			c.io.Println()
			break
		}
	}

	if !confirmed {
		answer, err := c.io.ReadInput("Delete bookmark? This cannot be undone. (yes/no): ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "yes" && answer != "y" {
			c.io.Println()
			c.io.Println("Deletion cancelled.")
			return nil
		}
	}

	if err := c.mutator.Delete(ctx, id); err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Bookmark deleted.")
	c.io.Println()
	c.render(c.replica.Snapshot())

	return nil
}
