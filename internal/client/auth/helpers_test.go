package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/bookmarks/internal/client/api"
	"github.com/iudanet/bookmarks/internal/client/storage/boltdb"
	pkgapi "github.com/iudanet/bookmarks/pkg/api"
)

const testPassword = "correct-horse-battery"

type fakeUser struct {
	id, salt, hash string
}

// fakeAuthServer реализует auth эндпоинты сервера в памяти
type fakeAuthServer struct {
	users        map[string]fakeUser
	refresh      map[string]string // refresh token -> user id
	issued       int
	refreshCalls int
	logoutCalls  int
	expiresIn    int64
	mu           sync.Mutex
}

func newFakeAuthServer(t *testing.T) (*fakeAuthServer, *api.Client) {
	t.Helper()

	f := &fakeAuthServer{
		users:     make(map[string]fakeUser),
		refresh:   make(map[string]string),
		expiresIn: 900,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register", f.register)
	mux.HandleFunc("GET /api/v1/auth/salt/{username}", f.salt)
	mux.HandleFunc("POST /api/v1/auth/login", f.login)
	mux.HandleFunc("POST /api/v1/auth/refresh", f.refreshTokens)
	mux.HandleFunc("POST /api/v1/auth/logout", f.logout)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return f, api.NewClient(server.URL)
}

func (f *fakeAuthServer) register(w http.ResponseWriter, r *http.Request) {
	var req pkgapi.RegisterRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[req.Username]; ok {
		writeJSON(w, http.StatusConflict, pkgapi.ErrorResponse{Error: "Conflict", Message: "user already exists"})
		return
	}
	id := "id-" + req.Username
	f.users[req.Username] = fakeUser{id: id, salt: req.PublicSalt, hash: req.AuthKeyHash}
	writeJSON(w, http.StatusCreated, pkgapi.RegisterResponse{UserID: id})
}

func (f *fakeAuthServer) salt(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	u, ok := f.users[r.PathValue("username")]
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, pkgapi.ErrorResponse{Error: "Not Found", Message: "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, pkgapi.SaltResponse{PublicSalt: u.salt})
}

func (f *fakeAuthServer) login(w http.ResponseWriter, r *http.Request) {
	var req pkgapi.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[req.Username]
	if !ok || u.hash != req.AuthKeyHash {
		writeJSON(w, http.StatusUnauthorized, pkgapi.ErrorResponse{Error: "Unauthorized", Message: "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, f.issueLocked(u.id))
}

func (f *fakeAuthServer) refreshTokens(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	f.mu.Lock()
	defer f.mu.Unlock()

	f.refreshCalls++
	userID, ok := f.refresh[token]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, pkgapi.ErrorResponse{Error: "Unauthorized", Message: "invalid refresh token"})
		return
	}
	delete(f.refresh, token)
	writeJSON(w, http.StatusOK, f.issueLocked(userID))
}

func (f *fakeAuthServer) logout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logoutCalls++
	clear(f.refresh)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAuthServer) issueLocked(userID string) pkgapi.TokenResponse {
	f.issued++
	n := string(rune('a' + f.issued))
	refresh := "refresh-" + n
	f.refresh[refresh] = userID
	return pkgapi.TokenResponse{
		AccessToken:  "access-" + n,
		RefreshToken: refresh,
		UserID:       userID,
		ExpiresIn:    f.expiresIn,
	}
}

func (f *fakeAuthServer) addRefreshToken(token, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[token] = userID
}

func (f *fakeAuthServer) user(username string) fakeUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[username]
}

func (f *fakeAuthServer) counts() (refreshCalls, logoutCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls, f.logoutCalls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *boltdb.Storage {
	t.Helper()
	store, err := boltdb.New(t.Context(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
