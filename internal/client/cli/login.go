package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		var err error
		username, err = c.io.ReadInput("Username: ")
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}

	password, err := c.getPassword()
	if err != nil {
		return err
	}

	c.io.Println("Authenticating...")

	identity, err := c.session.Login(ctx, username, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Username: %s\n", identity.Username)
	c.io.Printf("User ID: %s\n", identity.UserID)
	c.io.Println()
	c.io.Println("Your session has been saved.")

	return nil
}
