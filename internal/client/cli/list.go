package cli

import "context"

func (c *Cli) runList(ctx context.Context) error {
	if err := c.openReplica(ctx); err != nil {
		return err
	}
	defer c.replica.End()

	c.io.Println("=== Bookmarks ===")
	c.io.Println()
	c.render(c.replica.Snapshot())

	return nil
}
