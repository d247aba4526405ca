package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/bookmarks/internal/client/api"
	"github.com/iudanet/bookmarks/internal/client/auth"
	"github.com/iudanet/bookmarks/internal/client/cli"
	"github.com/iudanet/bookmarks/internal/client/feed"
	"github.com/iudanet/bookmarks/internal/client/iocli"
	"github.com/iudanet/bookmarks/internal/client/mutation"
	"github.com/iudanet/bookmarks/internal/client/replica"
	"github.com/iudanet/bookmarks/internal/client/storage/boltdb"
	"github.com/iudanet/bookmarks/internal/validation"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "bookmarks-client.db", "Path to local session database")
	passwordFile := flag.String("password-file", "", "Path to file containing the login password")
	verbose := flag.Bool("verbose", false, "Log debug messages to stderr")

	flag.Usage = cli.PrintUsage
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := run(ctx, logger, *serverURL, *dbPath, cli.Passwords{FromFile: *passwordFile}, args[0], args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, logger *slog.Logger, serverURL, dbPath string, passwords cli.Passwords, command string, args []string) int {
	boltStorage, err := boltdb.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	apiClient := api.NewClient(serverURL)
	authService := auth.NewService(apiClient)
	gate := auth.NewGate(logger, authService, boltStorage)

	store := api.NewBookmarkStore(apiClient, gate)
	subscriber := feed.NewSubscriber(logger, feed.NewWebsocketTransport(logger, serverURL, gate))
	engine := replica.New(logger, store, subscriber, gate)
	coordinator := mutation.NewCoordinator(logger, store, engine)

	app := cli.New(logger, iocli.NewStdio(), authService, gate, engine, coordinator, passwords)

	if err := app.Run(ctx, command, args); err != nil {
		var ve *validation.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(os.Stderr, "Invalid %s: %s\n", ve.Field, ve.Message)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if errors.Is(err, replica.ErrNoSession) {
			fmt.Fprintln(os.Stderr, "Run 'bookmarks login' first.")
		}
		return 1
	}

	return 0
}

func printVersion() {
	fmt.Printf("Bookmarks Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
