package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/bookmarks/internal/client/storage"
	"github.com/iudanet/bookmarks/internal/models"
)

// refreshSkew renews the access token slightly before it actually expires.
const refreshSkew = 30 * time.Second

// Gate owns the current client session. Every other client component asks it
// who the user is; session changes are pushed to the registered listeners.
type Gate struct {
	logger    *slog.Logger
	service   *Service
	store     storage.AuthStorage
	now       func() time.Time
	session   *storage.AuthData
	listeners []func(models.Identity, bool)
	mu        sync.Mutex
	// refreshMu не даёт двум запросам одновременно менять refresh token
	refreshMu sync.Mutex
}

// NewGate creates a gate with no active session. Call Resume to restore a persisted one.
func NewGate(logger *slog.Logger, service *Service, store storage.AuthStorage) *Gate {
	return &Gate{
		logger:  logger,
		service: service,
		store:   store,
		now:     time.Now,
	}
}

// CurrentIdentity returns the identity of the active session.
func (g *Gate) CurrentIdentity() (models.Identity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session == nil {
		return models.Identity{}, false
	}
	return g.session.Identity(), true
}

// OnSessionChange registers fn to be called after every Establish and End.
// fn receives the new identity and false when the session ended.
func (g *Gate) OnSessionChange(fn func(models.Identity, bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Establish persists session and makes it current.
func (g *Gate) Establish(ctx context.Context, session *storage.AuthData) error {
	if session == nil || session.UserID == "" {
		return fmt.Errorf("session has no user id")
	}

	if err := g.store.SaveAuth(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	g.mu.Lock()
	g.session = session
	listeners := g.listeners
	g.mu.Unlock()

	g.logger.Debug("session established", slog.String("user_id", session.UserID))

	for _, fn := range listeners {
		fn(session.Identity(), true)
	}

	return nil
}

// End drops the current session and wipes the persisted copy.
// Ending when nothing is active only cleans the store.
func (g *Gate) End(ctx context.Context) error {
	g.mu.Lock()
	hadSession := g.session != nil
	g.session = nil
	listeners := g.listeners
	g.mu.Unlock()

	var storeErr error
	if err := g.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		storeErr = fmt.Errorf("failed to delete local session: %w", err)
	}

	if hadSession {
		g.logger.Debug("session ended")
		for _, fn := range listeners {
			fn(models.Identity{}, false)
		}
	}

	return storeErr
}

// Resume restores the persisted session, refreshing the access token when it has expired.
func (g *Gate) Resume(ctx context.Context) (models.Identity, error) {
	session, err := g.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return models.Identity{}, ErrNotAuthenticated
		}
		return models.Identity{}, fmt.Errorf("failed to load session: %w", err)
	}

	if session.AccessExpired(g.now(), refreshSkew) {
		g.logger.Debug("access token expired, refreshing", slog.String("user_id", session.UserID))

		session, err = g.refresh(ctx, session)
		if err != nil {
			return models.Identity{}, err
		}
	}

	if err := g.Establish(ctx, session); err != nil {
		return models.Identity{}, err
	}

	return session.Identity(), nil
}

// Stored returns a copy of the persisted session without making it current
// and without contacting the server.
func (g *Gate) Stored(ctx context.Context) (*storage.AuthData, error) {
	session, err := g.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	stored := *session
	return &stored, nil
}

// Login authenticates against the server and establishes the resulting session.
func (g *Gate) Login(ctx context.Context, username, password string) (models.Identity, error) {
	session, err := g.service.Login(ctx, username, password)
	if err != nil {
		return models.Identity{}, err
	}

	if err := g.Establish(ctx, session); err != nil {
		return models.Identity{}, err
	}

	return session.Identity(), nil
}

// Logout revokes the tokens on the server (best effort) and ends the session.
func (g *Gate) Logout(ctx context.Context) error {
	session := g.current()
	if session == nil {
		stored, err := g.store.GetAuth(ctx)
		if err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
			return fmt.Errorf("failed to load session: %w", err)
		}
		session = stored
	}

	if session != nil {
		// Не прерываем logout, если сервер недоступен
		if err := g.service.Logout(ctx, session.AccessToken); err != nil {
			g.logger.Warn("failed to logout on server", slog.Any("error", err))
		}
	}

	return g.End(ctx)
}

// AccessToken returns a valid access token, refreshing it first when needed.
func (g *Gate) AccessToken(ctx context.Context) (string, error) {
	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()

	session := g.current()
	if session == nil {
		return "", ErrNotAuthenticated
	}

	if !session.AccessExpired(g.now(), refreshSkew) {
		return session.AccessToken, nil
	}

	refreshed, err := g.refresh(ctx, session)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	// сессию могли завершить, пока шёл запрос
	if g.session != session {
		g.mu.Unlock()
		return "", ErrNotAuthenticated
	}
	g.session = refreshed
	g.mu.Unlock()

	if err := g.store.SaveAuth(ctx, refreshed); err != nil {
		return "", fmt.Errorf("failed to save refreshed session: %w", err)
	}

	return refreshed.AccessToken, nil
}

func (g *Gate) current() *storage.AuthData {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// refresh wipes the persisted session when the server rejected the refresh token.
func (g *Gate) refresh(ctx context.Context, session *storage.AuthData) (*storage.AuthData, error) {
	refreshed, err := g.service.Refresh(ctx, session)
	if err == nil {
		return refreshed, nil
	}

	if errors.Is(err, ErrSessionExpired) {
		g.logger.Warn("refresh token rejected, ending session", slog.String("user_id", session.UserID))
		if endErr := g.End(ctx); endErr != nil {
			g.logger.Warn("failed to clear expired session", slog.Any("error", endErr))
		}
	}

	return nil, err
}
