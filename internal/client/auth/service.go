package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/bookmarks/internal/client/api"
	"github.com/iudanet/bookmarks/internal/client/storage"
	"github.com/iudanet/bookmarks/internal/crypto"
	"github.com/iudanet/bookmarks/internal/validation"
	pkgapi "github.com/iudanet/bookmarks/pkg/api"
)

// Service talks to the auth endpoints of the server.
// The master password never leaves this process: only the Argon2 auth key hash is sent.
type Service struct {
	apiClient *api.Client
	now       func() time.Time
}

// NewService создает новый сервис авторизации
func NewService(apiClient *api.Client) *Service {
	return &Service{
		apiClient: apiClient,
		now:       time.Now,
	}
}

// RegisterResult содержит результат регистрации
type RegisterResult struct {
	UserID     string // UUID пользователя
	Username   string
	PublicSalt string // public salt (base64)
}

// Register регистрирует нового пользователя
func (s *Service) Register(ctx context.Context, username, password string) (*RegisterResult, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	// 1. Генерируем публичную соль
	publicSalt, err := crypto.GenerateSaltBase64()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	// 2. Деривируем auth_key и хешируем его для сервера
	authKeyHash, err := crypto.AuthKeyHashFromBase64Salt(password, username, publicSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive auth key: %w", err)
	}

	// 3. Отправляем запрос на регистрацию
	resp, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Username:    username,
		AuthKeyHash: authKeyHash,
		PublicSalt:  publicSalt,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return &RegisterResult{
		UserID:     resp.UserID,
		Username:   username,
		PublicSalt: publicSalt,
	}, nil
}

// Login выполняет аутентификацию и возвращает сессию, готовую к сохранению
func (s *Service) Login(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	// 1. Получаем public_salt с сервера
	saltResp, err := s.apiClient.GetSalt(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get salt: %w", err)
	}

	// 2. Деривируем auth_key тем же способом, что и при регистрации
	authKeyHash, err := crypto.AuthKeyHashFromBase64Salt(password, username, saltResp.PublicSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive auth key: %w", err)
	}

	// 3. Отправляем запрос на логин
	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{
		Username:    username,
		AuthKeyHash: authKeyHash,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return &storage.AuthData{
		Username:     username,
		UserID:       resp.UserID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		PublicSalt:   saltResp.PublicSalt,
		ExpiresAt:    s.now().Unix() + resp.ExpiresIn,
	}, nil
}

// Refresh exchanges the refresh token of session for a new token pair.
// The returned session is a copy; session itself is not modified.
func (s *Service) Refresh(ctx context.Context, session *storage.AuthData) (*storage.AuthData, error) {
	resp, err := s.apiClient.Refresh(ctx, session.RefreshToken)
	if err != nil {
		if api.IsUnauthorized(err) {
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	refreshed := *session
	refreshed.AccessToken = resp.AccessToken
	refreshed.RefreshToken = resp.RefreshToken
	refreshed.ExpiresAt = s.now().Unix() + resp.ExpiresIn
	if resp.UserID != "" {
		refreshed.UserID = resp.UserID
	}

	return &refreshed, nil
}

// Logout отзывает токены пользователя на сервере
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	return s.apiClient.Logout(ctx, accessToken)
}
