// Package server wires storage, the change broker and HTTP handlers into
// the bookmarks API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/bookmarks/internal/server/changefeed"
	"github.com/iudanet/bookmarks/internal/server/config"
	"github.com/iudanet/bookmarks/internal/server/handlers"
	"github.com/iudanet/bookmarks/internal/server/middleware"
	"github.com/iudanet/bookmarks/internal/server/storage"
	"github.com/iudanet/bookmarks/internal/server/storage/sqlite"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Users     storage.UserStorage
	Tokens    storage.TokenStorage
	Bookmarks storage.BookmarkStorage
	DB        handlers.Pinger
	Broker    changefeed.Broker
}

// Server is the HTTP server with its background jobs.
type Server struct {
	http    *http.Server
	logger  *slog.Logger
	limiter *middleware.RateLimiter
	tokens  storage.TokenStorage
	cleanup time.Duration
}

// New builds the router and the http.Server
func New(cfg *config.Config, logger *slog.Logger, deps Deps, version string) *Server {
	jwtConfig := handlers.JWTConfig{
		Secret:          []byte(cfg.JWTSecret),
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute, logger)

	authHandler := handlers.NewAuthHandler(logger, deps.Users, deps.Tokens, jwtConfig)
	bookmarkHandler := handlers.NewBookmarkHandler(logger, deps.Bookmarks, deps.Broker)
	changesHandler := handlers.NewChangesHandler(logger, deps.Broker)
	healthHandler := handlers.NewHealthHandler(logger, deps.DB, version)
	requireAuth := middleware.AuthMiddleware(logger, jwtConfig)

	r := chi.NewRouter()
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingWithSkip(logger, []string{"/api/v1/health"}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Use(limiter.Limit)

			r.Post("/register", authHandler.Register)
			r.Get("/salt/{username}", authHandler.GetSalt)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(requireAuth).Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/bookmarks", bookmarkHandler.List)
			r.Post("/bookmarks", bookmarkHandler.Create)
			r.Delete("/bookmarks/{id}", bookmarkHandler.Delete)
			r.Get("/changes", changesHandler.Subscribe)
		})
	})

	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
			// WriteTimeout не задан: /changes держит соединение открытым
		},
		logger:  logger,
		limiter: limiter,
		tokens:  deps.Tokens,
		cleanup: cfg.TokenCleanupInterval,
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start runs the HTTP server (blocks until error or shutdown)
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", slog.String("addr", s.http.Addr))

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server with the provided context deadline
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	s.limiter.Stop()
	return s.http.Shutdown(ctx)
}

// RunTokenJanitor periodically deletes expired refresh tokens until ctx is done
func (s *Server) RunTokenJanitor(ctx context.Context) {
	if s.cleanup <= 0 {
		return
	}

	ticker := time.NewTicker(s.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.purgeExpiredTokens(ctx, now)
		}
	}
}

func (s *Server) purgeExpiredTokens(ctx context.Context, now time.Time) {
	n, err := s.tokens.DeleteExpiredTokens(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete expired tokens", slog.Any("error", err))
		return
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired refresh tokens deleted", slog.Int("count", n))
	}
}

// Run opens storage and the change broker, serves until ctx is cancelled
// and then shuts everything down.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) error {
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	broker, err := newBroker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = broker.Close() }()

	srv := New(cfg, logger, Deps{
		Users:     store,
		Tokens:    store,
		Bookmarks: store,
		DB:        store,
		Broker:    broker,
	}, version)

	go srv.RunTokenJanitor(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// закрываем подписки, чтобы websocket соединения завершились до Shutdown
	_ = broker.Close()

	return srv.Stop(shutdownCtx)
}

type closingBroker interface {
	changefeed.Broker
	io.Closer
}

func newBroker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (closingBroker, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("using in-process change broker")
		return changefeed.NewHub(logger), nil
	}

	client, err := changefeed.ConnectRedis(ctx, logger, changefeed.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}

	return changefeed.NewRedisBroker(logger, client), nil
}
