package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/iudanet/bookmarks/internal/client/auth"
	"github.com/iudanet/bookmarks/internal/client/iocli"
	"github.com/iudanet/bookmarks/internal/client/replica"
	"github.com/iudanet/bookmarks/internal/client/storage"
	"github.com/iudanet/bookmarks/internal/models"
)

// PasswordEnv is the environment variable read by login before prompting.
const PasswordEnv = "BOOKMARKS_PASSWORD"

//go:generate moq -out deps_mock.go . Accounts Session

// Accounts creates users on the server.
type Accounts interface {
	Register(ctx context.Context, username, password string) (*auth.RegisterResult, error)
}

// Session is the part of auth.Gate used by the commands.
type Session interface {
	Resume(ctx context.Context) (models.Identity, error)
	Login(ctx context.Context, username, password string) (models.Identity, error)
	Logout(ctx context.Context) error
	Stored(ctx context.Context) (*storage.AuthData, error)
}

// Replica is the part of replica.Engine used by the commands.
type Replica interface {
	Bind(ctx context.Context) error
	Snapshot() replica.Snapshot
	Watch(fn func(replica.Snapshot))
	End()
}

// Mutator submits add and delete requests.
type Mutator interface {
	Add(ctx context.Context, title, url string) (*models.Bookmark, error)
	Delete(ctx context.Context, id string) error
}

// Passwords lists non-interactive password sources for login.
type Passwords struct {
	FromFile string
}

type Cli struct {
	logger    *slog.Logger
	io        iocli.IO
	accounts  Accounts
	session   Session
	replica   Replica
	mutator   Mutator
	getenv    func(string) string
	now       func() time.Time
	passwords Passwords
}

func New(logger *slog.Logger, io iocli.IO, accounts Accounts, session Session, r Replica, mutator Mutator, passwords Passwords) *Cli {
	return &Cli{
		logger:    logger,
		io:        io,
		accounts:  accounts,
		session:   session,
		replica:   r,
		mutator:   mutator,
		getenv:    os.Getenv,
		now:       time.Now,
		passwords: passwords,
	}
}

// getPassword retrieves the login password with priority:
// 1. Environment variable BOOKMARKS_PASSWORD
// 2. File given with --password-file
// 3. Interactive prompt (fallback)
func (c *Cli) getPassword() (string, error) {
	if envPassword := c.getenv(PasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	if c.passwords.FromFile != "" {
		content, err := os.ReadFile(c.passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	return password, nil
}

func PrintUsage() {
	fmt.Println("Bookmarks Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bookmarks [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version                Show version information")
	fmt.Println("  --server URL             Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH                Path to local session database (default: bookmarks-client.db)")
	fmt.Println("  --password-file PATH     Path to file containing the login password")
	fmt.Println("  --verbose                Log debug messages to stderr")
	fmt.Println()
	fmt.Println("Password priority for login (highest to lowest):")
	fmt.Println("  1. " + PasswordEnv + " environment variable")
	fmt.Println("  2. --password-file (file path)")
	fmt.Println("  3. Interactive prompt (fallback)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  register                 Register new user")
	fmt.Println("  login [username]         Login to server")
	fmt.Println("  logout                   Logout and delete the local session")
	fmt.Println("  status                   Show authentication status")
	fmt.Println("  list                     List your bookmarks, newest first")
	fmt.Println("  add [title] [url]        Add a bookmark (prompts for missing values)")
	fmt.Println("  delete <id> [--yes]      Delete a bookmark")
	fmt.Println("  watch                    Show your bookmarks and follow changes live")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  bookmarks register")
	fmt.Println("  bookmarks login alice")
	fmt.Println("  bookmarks add Docs https://docs.example.com")
	fmt.Println("  bookmarks delete b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5")
	fmt.Println("  bookmarks --server https://example.com watch")
}
