package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/bookmarks/internal/client/storage"
)

// создаём тестовое BoltDB хранилище с auth bucket
func createTestAuthStorage(t *testing.T) *Storage {
	t.Helper()

	store, err := New(context.Background(), filepath.Join(t.TempDir(), "auth_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func sampleAuth() *storage.AuthData {
	return &storage.AuthData{
		Username:     "testuser",
		UserID:       "user-id-123",
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		PublicSalt:   "salt",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
}

func TestStorage_SaveGetDeleteAuth(t *testing.T) {
	ctx := context.Background()
	store := createTestAuthStorage(t)
	auth := sampleAuth()

	// до сохранения данных нет
	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	require.NoError(t, store.SaveAuth(ctx, auth))

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth, got)

	require.NoError(t, store.DeleteAuth(ctx))

	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	// повторное удаление
	assert.ErrorIs(t, store.DeleteAuth(ctx), storage.ErrAuthNotFound)
}

func TestStorage_SaveAuthOverwrites(t *testing.T) {
	ctx := context.Background()
	store := createTestAuthStorage(t)

	require.NoError(t, store.SaveAuth(ctx, sampleAuth()))

	updated := sampleAuth()
	updated.AccessToken = "rotated-access"
	updated.RefreshToken = "rotated-refresh"
	require.NoError(t, store.SaveAuth(ctx, updated))

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rotated-access", got.AccessToken)
	assert.Equal(t, "rotated-refresh", got.RefreshToken)
}

func TestStorage_SaveAuthNil(t *testing.T) {
	store := createTestAuthStorage(t)
	assert.Error(t, store.SaveAuth(context.Background(), nil))
}

func TestStorage_IsAuthenticated(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		auth *storage.AuthData
		name string
		want bool
	}{
		{name: "no session", auth: nil, want: false},
		{name: "valid token", auth: &storage.AuthData{Username: "u", ExpiresAt: now.Add(time.Minute).Unix()}, want: true},
		{name: "expired token", auth: &storage.AuthData{Username: "u", ExpiresAt: now.Add(-time.Minute).Unix()}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := createTestAuthStorage(t)
			store.now = func() time.Time { return now }

			if tt.auth != nil {
				require.NoError(t, store.SaveAuth(ctx, tt.auth))
			}

			got, err := store.IsAuthenticated(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorage_Closed(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.SaveAuth(ctx, sampleAuth()), storage.ErrStorageClosed)
}
