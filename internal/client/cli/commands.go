package cli

import (
	"context"
	"fmt"
)

// Run executes command with its arguments (command name excluded).
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx, args)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "list":
		return c.runList(ctx)
	case "add":
		return c.runAdd(ctx, args)
	case "delete":
		return c.runDelete(ctx, args)
	case "watch":
		return c.runWatch(ctx)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}
