package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/bookmarks/internal/models"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	// Используем in-memory database для тестов
	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func createTestUser(t *testing.T, ctx context.Context, s *Storage) string {
	t.Helper()

	userID := uuid.New().String()
	err := s.CreateUser(ctx, &models.User{
		ID:          userID,
		Username:    "user_" + userID[:8],
		AuthKeyHash: "hash",
		PublicSalt:  "salt",
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)

	return userID
}
