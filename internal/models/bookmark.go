package models

import (
	"slices"
	"time"
)

// Bookmark is one saved link owned by a single user.
// ID and CreatedAt are assigned by the store and never change.
type Bookmark struct {
	CreatedAt time.Time `json:"created_at"` // время создания (назначается сервером)
	ID        string    `json:"id"`         // UUID закладки
	UserID    string    `json:"user_id"`    // владелец
	Title     string    `json:"title"`      // отображаемое имя
	URL       string    `json:"url"`        // абсолютный URL
}

// ChangeType is the kind of a row-level change on the bookmarks table.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// BookmarksTable is the only table the change feed reports on.
const BookmarksTable = "bookmarks"

// ChangeEvent signals that a row owned by Owner changed.
// Consumers must not rely on Type or ID: any event means "refetch".
type ChangeEvent struct {
	At    time.Time  `json:"at"`
	Type  ChangeType `json:"type"`
	Table string     `json:"table"`
	Owner string     `json:"owner"`
	ID    string     `json:"id,omitempty"`
}

// SortNewestFirst orders bookmarks by CreatedAt descending.
// Equal timestamps keep their incoming (store) order.
func SortNewestFirst(bookmarks []Bookmark) {
	slices.SortStableFunc(bookmarks, func(a, b Bookmark) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
