package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/bookmarks/internal/models"
	"github.com/iudanet/bookmarks/pkg/api"
)

func testUser() *models.User {
	return &models.User{
		ID:          "user123",
		Username:    "testuser",
		AuthKeyHash: "hash123",
		PublicSalt:  "salt123",
	}
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		existing   []*models.User
		createErr  error
		wantStatus int
	}{
		{
			name:       "success",
			body:       `{"username":"testuser","auth_key_hash":"hash123","public_salt":"salt123"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid json",
			body:       `{invalid`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid username",
			body:       `{"username":"a b","auth_key_hash":"h","public_salt":"s"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing auth key hash",
			body:       `{"username":"testuser","public_salt":"s"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing public salt",
			body:       `{"username":"testuser","auth_key_hash":"h"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duplicate username",
			body:       `{"username":"testuser","auth_key_hash":"h","public_salt":"s"}`,
			existing:   []*models.User{testUser()},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "storage error",
			body:       `{"username":"testuser","auth_key_hash":"h","public_salt":"s"}`,
			createErr:  errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMockUserStorage(tt.existing...)
			users.createError = tt.createErr
			handler := NewAuthHandler(setupTestLogger(), users, newMockTokenStorage(), testJWTConfig())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.Register(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			if tt.wantStatus == http.StatusCreated {
				var resp api.RegisterResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.NotEmpty(t, resp.UserID)

				user, err := users.GetUserByUsername(context.Background(), "testuser")
				require.NoError(t, err)
				assert.Equal(t, resp.UserID, user.ID)
				assert.Equal(t, "hash123", user.AuthKeyHash)
				assert.Equal(t, "salt123", user.PublicSalt)
			}
		})
	}
}

func TestAuthHandler_GetSalt(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		getErr     error
		wantStatus int
		wantSalt   string
	}{
		{name: "success", username: "testuser", wantStatus: http.StatusOK, wantSalt: "salt123"},
		{name: "not found", username: "nobody", wantStatus: http.StatusNotFound},
		{name: "empty", username: "", wantStatus: http.StatusBadRequest},
		{name: "db error", username: "testuser", getErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMockUserStorage(testUser())
			users.getUserError = tt.getErr
			handler := NewAuthHandler(setupTestLogger(), users, newMockTokenStorage(), testJWTConfig())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/salt/"+tt.username, nil)
			req.SetPathValue("username", tt.username)
			w := httptest.NewRecorder()
			handler.GetSalt(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantSalt != "" {
				var resp api.SaltResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.wantSalt, resp.PublicSalt)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	var lastLoginCalled bool
	users := newMockUserStorage(testUser())
	users.updateLastLogin = func(_ context.Context, userID string, _ time.Time) error {
		lastLoginCalled = true
		assert.Equal(t, "user123", userID)
		return nil
	}
	tokens := newMockTokenStorage()
	cfg := testJWTConfig()
	handler := NewAuthHandler(setupTestLogger(), users, tokens, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		jsonBody(t, api.LoginRequest{Username: "testuser", AuthKeyHash: "hash123"}))
	w := httptest.NewRecorder()
	handler.Login(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user123", resp.UserID)
	assert.Equal(t, int64(cfg.AccessTokenTTL.Seconds()), resp.ExpiresIn)
	assert.True(t, lastLoginCalled)

	claims, err := ValidateAccessToken(cfg, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user123", claims.UserID)
	assert.Equal(t, "testuser", claims.Username)

	require.Len(t, tokens.savedTokens, 1)
	assert.Equal(t, resp.RefreshToken, tokens.savedTokens[0].Token)
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		getErr     error
		saveErr    error
		wantStatus int
	}{
		{name: "invalid json", body: `nope`, wantStatus: http.StatusBadRequest},
		{name: "missing hash", body: `{"username":"testuser"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown user", body: `{"username":"nobody","auth_key_hash":"hash123"}`, wantStatus: http.StatusUnauthorized},
		{name: "wrong hash", body: `{"username":"testuser","auth_key_hash":"wrong"}`, wantStatus: http.StatusUnauthorized},
		{name: "db error", body: `{"username":"testuser","auth_key_hash":"hash123"}`, getErr: errors.New("db"), wantStatus: http.StatusInternalServerError},
		{name: "save token error", body: `{"username":"testuser","auth_key_hash":"hash123"}`, saveErr: errors.New("db"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMockUserStorage(testUser())
			users.getUserError = tt.getErr
			tokens := newMockTokenStorage()
			tokens.saveError = tt.saveErr
			handler := NewAuthHandler(setupTestLogger(), users, tokens, testJWTConfig())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.Login(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, http.StatusText(tt.wantStatus), resp.Error)
		})
	}
}

func TestAuthHandler_Login_LastLoginErrorIsNotFatal(t *testing.T) {
	users := newMockUserStorage(testUser())
	users.updateLastLogin = func(context.Context, string, time.Time) error {
		return errors.New("db locked")
	}
	handler := NewAuthHandler(setupTestLogger(), users, newMockTokenStorage(), testJWTConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		jsonBody(t, api.LoginRequest{Username: "testuser", AuthKeyHash: "hash123"}))
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_Refresh_RotatesToken(t *testing.T) {
	const oldToken = "old-refresh-token"
	tokens := newMockTokenStorage(&models.RefreshToken{
		Token:     oldToken,
		UserID:    "user123",
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	})
	handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(testUser()), tokens, testJWTConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+oldToken)
	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, oldToken, resp.RefreshToken)
	assert.Equal(t, "user123", resp.UserID)

	assert.Contains(t, tokens.deletedTokens, oldToken)
	require.Len(t, tokens.savedTokens, 1)
	assert.Equal(t, resp.RefreshToken, tokens.savedTokens[0].Token)
}

func TestAuthHandler_Refresh_Failures(t *testing.T) {
	valid := &models.RefreshToken{Token: "valid", UserID: "user123", ExpiresAt: time.Now().Add(time.Hour)}
	expired := &models.RefreshToken{Token: "expired", UserID: "user123", ExpiresAt: time.Now().Add(-time.Hour)}

	tests := []struct {
		name       string
		header     string
		getErr     error
		userErr    error
		saveErr    error
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "bad format", header: "Token valid", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer unknown", wantStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer expired", wantStatus: http.StatusUnauthorized},
		{name: "token storage error", header: "Bearer valid", getErr: errors.New("db"), wantStatus: http.StatusInternalServerError},
		{name: "user lookup error", header: "Bearer valid", userErr: errors.New("db"), wantStatus: http.StatusInternalServerError},
		{name: "save error", header: "Bearer valid", saveErr: errors.New("db"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMockUserStorage(testUser())
			users.getUserError = tt.userErr
			tokens := newMockTokenStorage(valid, expired)
			tokens.getError = tt.getErr
			tokens.saveError = tt.saveErr
			handler := NewAuthHandler(setupTestLogger(), users, tokens, testJWTConfig())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.Refresh(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	tokens := newMockTokenStorage(
		&models.RefreshToken{Token: "t1", UserID: "user123", ExpiresAt: time.Now().Add(time.Hour)},
		&models.RefreshToken{Token: "t2", UserID: "user123", ExpiresAt: time.Now().Add(time.Hour)},
		&models.RefreshToken{Token: "other", UserID: "user456", ExpiresAt: time.Now().Add(time.Hour)},
	)
	handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(testUser()), tokens, testJWTConfig())

	w := httptest.NewRecorder()
	handler.Logout(w, authedRequest(http.MethodPost, "/api/v1/auth/logout", nil, "user123"))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.ElementsMatch(t, []string{"t1", "t2"}, tokens.deletedTokens)
	assert.Contains(t, tokens.tokens, "other")
}

func TestAuthHandler_Logout_Errors(t *testing.T) {
	t.Run("no identity", func(t *testing.T) {
		handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(), newMockTokenStorage(), testJWTConfig())

		w := httptest.NewRecorder()
		handler.Logout(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("storage error", func(t *testing.T) {
		tokens := newMockTokenStorage()
		tokens.deleteError = errors.New("db")
		handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(), tokens, testJWTConfig())

		w := httptest.NewRecorder()
		handler.Logout(w, authedRequest(http.MethodPost, "/api/v1/auth/logout", nil, "user123"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestValidateAccessToken(t *testing.T) {
	cfg := testJWTConfig()

	token, _, err := GenerateAccessToken(cfg, "user123", "testuser")
	require.NoError(t, err)

	claims, err := ValidateAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "user123", claims.UserID)

	wrong := cfg
	wrong.Secret = []byte("other-secret")
	_, err = ValidateAccessToken(wrong, token)
	assert.Error(t, err)

	expiredCfg := cfg
	expiredCfg.AccessTokenTTL = -time.Minute
	expiredToken, _, err := GenerateAccessToken(expiredCfg, "user123", "testuser")
	require.NoError(t, err)
	_, err = ValidateAccessToken(cfg, expiredToken)
	assert.Error(t, err)

	_, err = ValidateAccessToken(cfg, "not-a-jwt")
	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	cfg := testJWTConfig()

	first, expiresAt, err := GenerateRefreshToken(cfg)
	require.NoError(t, err)
	second, _, err := GenerateRefreshToken(cfg)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.WithinDuration(t, time.Now().Add(cfg.RefreshTokenTTL), expiresAt, time.Minute)
}
