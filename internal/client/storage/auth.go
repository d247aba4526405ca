package storage

import (
	"context"
	"time"

	"github.com/iudanet/bookmarks/internal/models"
)

// AuthStorage persists the single client session between CLI invocations.
type AuthStorage interface {
	// SaveAuth replaces the stored session
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth returns the stored session or ErrAuthNotFound
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes the stored session (logout).
	// Returns ErrAuthNotFound when nothing is stored.
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated reports whether a session exists and its access token is not expired
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData is the persisted session: identity plus the token pair issued by the server.
type AuthData struct {
	Username     string `json:"username"`
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	PublicSalt   string `json:"public_salt"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds, срок действия access token
}

// Identity returns the user the session belongs to.
func (a *AuthData) Identity() models.Identity {
	return models.Identity{UserID: a.UserID, Username: a.Username}
}

// AccessExpired reports whether the access token is expired at now, allowing for skew.
func (a *AuthData) AccessExpired(now time.Time, skew time.Duration) bool {
	return !now.Add(skew).Before(time.Unix(a.ExpiresAt, 0))
}
