package api

import "time"

// Bookmark is the wire form of a stored bookmark.
type Bookmark struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
}

// CreateBookmarkRequest is the body of POST /api/v1/bookmarks.
type CreateBookmarkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ListBookmarksResponse is returned by GET /api/v1/bookmarks,
// newest first.
type ListBookmarksResponse struct {
	Bookmarks []Bookmark `json:"bookmarks"`
}

// ChangeEvent is one text frame of the /api/v1/changes websocket.
type ChangeEvent struct {
	At    time.Time `json:"at"`
	Type  string    `json:"type"`  // INSERT | UPDATE | DELETE
	Table string    `json:"table"` // всегда "bookmarks"
	Owner string    `json:"owner"`
	ID    string    `json:"id,omitempty"`
}
