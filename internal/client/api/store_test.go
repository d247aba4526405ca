package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/bookmarks/internal/client/replica"
	"github.com/iudanet/bookmarks/pkg/api"
)

type staticTokens struct {
	err   error
	token string
	calls int
}

func (s *staticTokens) AccessToken(ctx context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

func TestBookmarkStore_List(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, api.ListBookmarksResponse{Bookmarks: []api.Bookmark{
			{ID: "b2", UserID: "u1", Title: "Blog", URL: "https://blog.example.com"},
			{ID: "b1", UserID: "u1", Title: "Docs", URL: "https://docs.example.com"},
		}})
	})
	tokens := &staticTokens{token: "tok"}
	store := NewBookmarkStore(client, tokens)

	rows, err := store.List(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b2", rows[0].ID)
	assert.Equal(t, "u1", rows[0].UserID)
	assert.Equal(t, 1, tokens.calls)
}

func TestBookmarkStore_ListEmpty(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.ListBookmarksResponse{Bookmarks: []api.Bookmark{}})
	})

	rows, err := NewBookmarkStore(client, &staticTokens{token: "tok"}).List(context.Background(), "u1")

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestBookmarkStore_Insert(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, api.Bookmark{ID: "b1", UserID: "u1", Title: "Docs", URL: "https://docs.example.com"})
	})
	store := NewBookmarkStore(client, &staticTokens{token: "tok"})

	b, err := store.Insert(context.Background(), "u1", "Docs", "https://docs.example.com")
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)

	_, err = store.Insert(context.Background(), "someone-else", "Docs", "https://docs.example.com")
	assert.ErrorIs(t, err, replica.ErrForeignRow)
}

func TestBookmarkStore_Delete(t *testing.T) {
	var path string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, NewBookmarkStore(client, &staticTokens{token: "tok"}).Delete(context.Background(), "u1", "b1"))
	assert.Equal(t, "/api/v1/bookmarks/b1", path)
}

func TestBookmarkStore_TokenError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent without a token")
	})
	errNoToken := errors.New("no token")
	store := NewBookmarkStore(client, &staticTokens{err: errNoToken})

	_, err := store.List(context.Background(), "u1")
	assert.ErrorIs(t, err, errNoToken)

	_, err = store.Insert(context.Background(), "u1", "t", "https://x.example")
	assert.ErrorIs(t, err, errNoToken)

	assert.ErrorIs(t, store.Delete(context.Background(), "u1", "b1"), errNoToken)
}
