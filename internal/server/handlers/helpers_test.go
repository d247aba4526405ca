package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/bookmarks/internal/models"
	"github.com/iudanet/bookmarks/internal/server/storage"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:          []byte("test-secret"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

// authedRequest builds a request whose context already carries the identity
// that AuthMiddleware would have set.
func authedRequest(method, target string, body io.Reader, userID string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(WithIdentity(req.Context(), userID, "user_"+userID))
}

// mockUserStorage is an in-memory UserStorage
type mockUserStorage struct {
	users           map[string]*models.User // username -> User
	createError     error
	getUserError    error
	updateLastLogin func(ctx context.Context, userID string, loginTime time.Time) error
}

func newMockUserStorage(users ...*models.User) *mockUserStorage {
	m := &mockUserStorage{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.Username] = u
	}
	return m
}

func (m *mockUserStorage) CreateUser(_ context.Context, user *models.User) error {
	if m.createError != nil {
		return m.createError
	}
	if _, exists := m.users[user.Username]; exists {
		return storage.ErrUserAlreadyExists
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if m.getUserError != nil {
		return nil, m.getUserError
	}
	user, ok := m.users[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserError != nil {
		return nil, m.getUserError
	}
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) UpdateLastLogin(ctx context.Context, userID string, loginTime time.Time) error {
	if m.updateLastLogin != nil {
		return m.updateLastLogin(ctx, userID, loginTime)
	}
	return nil
}

// mockTokenStorage is an in-memory TokenStorage that records writes
type mockTokenStorage struct {
	tokens        map[string]*models.RefreshToken // token -> RefreshToken
	saveError     error
	getError      error
	deleteError   error
	savedTokens   []*models.RefreshToken
	deletedTokens []string
}

func newMockTokenStorage(tokens ...*models.RefreshToken) *mockTokenStorage {
	m := &mockTokenStorage{tokens: make(map[string]*models.RefreshToken)}
	for _, tok := range tokens {
		m.tokens[tok.Token] = tok
	}
	return m
}

func (m *mockTokenStorage) SaveRefreshToken(_ context.Context, token *models.RefreshToken) error {
	if m.saveError != nil {
		return m.saveError
	}
	m.tokens[token.Token] = token
	m.savedTokens = append(m.savedTokens, token)
	return nil
}

func (m *mockTokenStorage) GetRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	rt, ok := m.tokens[token]
	if !ok {
		return nil, storage.ErrTokenNotFound
	}
	return rt, nil
}

func (m *mockTokenStorage) DeleteRefreshToken(_ context.Context, token string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	if _, ok := m.tokens[token]; !ok {
		return storage.ErrTokenNotFound
	}
	delete(m.tokens, token)
	m.deletedTokens = append(m.deletedTokens, token)
	return nil
}

func (m *mockTokenStorage) DeleteUserTokens(_ context.Context, userID string) (int, error) {
	if m.deleteError != nil {
		return 0, m.deleteError
	}
	count := 0
	for token, rt := range m.tokens {
		if rt.UserID == userID {
			delete(m.tokens, token)
			m.deletedTokens = append(m.deletedTokens, token)
			count++
		}
	}
	return count, nil
}

func (m *mockTokenStorage) DeleteExpiredTokens(_ context.Context, now time.Time) (int, error) {
	count := 0
	for token, rt := range m.tokens {
		if rt.IsExpired(now) {
			delete(m.tokens, token)
			count++
		}
	}
	return count, nil
}

// mockBookmarkStorage keeps bookmarks in insertion order
type mockBookmarkStorage struct {
	bookmarks []models.Bookmark
	listError error
	saveError error
	delError  error
	mu        sync.Mutex
}

func (m *mockBookmarkStorage) CreateBookmark(_ context.Context, b *models.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.bookmarks = append(m.bookmarks, *b)
	return nil
}

func (m *mockBookmarkStorage) ListUserBookmarks(_ context.Context, userID string) ([]models.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	out := make([]models.Bookmark, 0)
	for i := len(m.bookmarks) - 1; i >= 0; i-- {
		if m.bookmarks[i].UserID == userID {
			out = append(out, m.bookmarks[i])
		}
	}
	return out, nil
}

func (m *mockBookmarkStorage) DeleteBookmark(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delError != nil {
		return m.delError
	}
	for i, b := range m.bookmarks {
		if b.ID == id && b.UserID == userID {
			m.bookmarks = append(m.bookmarks[:i], m.bookmarks[i+1:]...)
			return nil
		}
	}
	return storage.ErrBookmarkNotFound
}

// recordingPublisher collects published events
type recordingPublisher struct {
	events []models.ChangeEvent
	err    error
	mu     sync.Mutex
}

func (p *recordingPublisher) Publish(_ context.Context, event models.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) published() []models.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ChangeEvent(nil), p.events...)
}
