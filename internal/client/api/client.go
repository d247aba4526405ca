package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iudanet/bookmarks/pkg/api"
)

// HTTPError is a non-2xx answer from the server.
type HTTPError struct {
	Message    string // текст из api.ErrorResponse или сырое тело
	StatusCode int
	decoded    bool
}

func (e *HTTPError) Error() string {
	if e.decoded {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 answer from the server.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовок Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// GetSalt получает public_salt пользователя
func (c *Client) GetSalt(ctx context.Context, username string) (*api.SaltResponse, error) {
	var resp api.SaltResponse
	path := "/api/v1/auth/salt/" + url.PathEscape(username)
	if err := c.doRequest(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("get salt request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	if resp.UserID == "" {
		return nil, fmt.Errorf("login request failed: server response has no user_id")
	}
	return &resp, nil
}

// Refresh обменивает refresh token на новую пару токенов
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", refreshToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout отзывает все refresh токены пользователя на сервере
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// ListBookmarks returns the caller's bookmarks, newest first.
func (c *Client) ListBookmarks(ctx context.Context, accessToken string) ([]api.Bookmark, error) {
	var resp api.ListBookmarksResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/bookmarks", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("list bookmarks request failed: %w", err)
	}
	return resp.Bookmarks, nil
}

// CreateBookmark stores a new bookmark for the caller.
func (c *Client) CreateBookmark(ctx context.Context, accessToken string, req api.CreateBookmarkRequest) (*api.Bookmark, error) {
	var resp api.Bookmark
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/bookmarks", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("create bookmark request failed: %w", err)
	}
	return &resp, nil
}

// DeleteBookmark removes a bookmark. The server answers 204 for unknown ids too.
func (c *Client) DeleteBookmark(ctx context.Context, accessToken, id string) error {
	path := "/api/v1/bookmarks/" + url.PathEscape(id)
	if err := c.doRequest(ctx, http.MethodDelete, path, accessToken, nil, nil); err != nil {
		return fmt.Errorf("delete bookmark request failed: %w", err)
	}
	return nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, respBody)
	}

	// 204 и пустое тело: декодировать нечего
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func newHTTPError(status int, body []byte) *HTTPError {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		msg := errResp.Message
		if msg == "" {
			msg = errResp.Error
		}
		return &HTTPError{StatusCode: status, Message: msg, decoded: true}
	}
	return &HTTPError{StatusCode: status, Message: string(bytes.TrimSpace(body))}
}
