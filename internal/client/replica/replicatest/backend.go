// Package replicatest provides an in-memory bookmark store and change feed
// for tests of code built on package replica.
package replicatest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iudanet/bookmarks/internal/client/replica"
	"github.com/iudanet/bookmarks/internal/models"
)

var (
	_ replica.Store = (*Backend)(nil)
	_ replica.Feed  = (*Feed)(nil)
)

// Calls counts requests made to a Backend.
type Calls struct {
	List   int
	Insert int
	Delete int
}

// Backend is a store shared by any number of sessions. Inserts and deletes
// are announced to every Feed subscribed to the owner.
type Backend struct {
	base  time.Time
	feeds map[*Feed]struct{}
	rows  []models.Bookmark // newest first
	calls Calls
	seq   int
	mu    sync.Mutex
}

// NewBackend returns an empty backend.
func NewBackend() *Backend {
	return &Backend{
		base:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		feeds: make(map[*Feed]struct{}),
	}
}

// Seed adds a row as if it had been inserted earlier, without notifications.
func (b *Backend) Seed(owner, title, url string) models.Bookmark {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insertLocked(owner, title, url)
}

// Calls returns the request counters.
func (b *Backend) Calls() Calls {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// Rows returns the rows of owner, newest first.
func (b *Backend) Rows(owner string) []models.Bookmark {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rowsLocked(owner)
}

func (b *Backend) List(ctx context.Context, owner string) ([]models.Bookmark, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls.List++
	return b.rowsLocked(owner), nil
}

func (b *Backend) Insert(ctx context.Context, owner, title, url string) (*models.Bookmark, error) {
	b.mu.Lock()
	b.calls.Insert++
	row := b.insertLocked(owner, title, url)
	b.mu.Unlock()

	b.announce(models.ChangeInsert, owner, row.ID)
	return &row, nil
}

func (b *Backend) Delete(ctx context.Context, owner, id string) error {
	b.mu.Lock()
	b.calls.Delete++
	removed := false
	for i, row := range b.rows {
		if row.ID == id && row.UserID == owner {
			b.rows = append(b.rows[:i:i], b.rows[i+1:]...)
			removed = true
			break
		}
	}
	b.mu.Unlock()

	if removed {
		b.announce(models.ChangeDelete, owner, id)
	}
	return nil
}

// NewFeed returns a change feed attached to the backend.
func (b *Backend) NewFeed() *Feed {
	f := &Feed{backend: b}
	b.mu.Lock()
	b.feeds[f] = struct{}{}
	b.mu.Unlock()
	return f
}

func (b *Backend) insertLocked(owner, title, url string) models.Bookmark {
	b.seq++
	row := models.Bookmark{
		ID:        fmt.Sprintf("bm-%d", b.seq),
		UserID:    owner,
		Title:     title,
		URL:       url,
		CreatedAt: b.base.Add(time.Duration(b.seq) * time.Second),
	}
	b.rows = append([]models.Bookmark{row}, b.rows...)
	return row
}

func (b *Backend) rowsLocked(owner string) []models.Bookmark {
	out := make([]models.Bookmark, 0, len(b.rows))
	for _, row := range b.rows {
		if row.UserID == owner {
			out = append(out, row)
		}
	}
	return out
}

func (b *Backend) announce(typ models.ChangeType, owner, id string) {
	b.mu.Lock()
	feeds := make([]*Feed, 0, len(b.feeds))
	for f := range b.feeds {
		feeds = append(feeds, f)
	}
	b.mu.Unlock()

	event := models.ChangeEvent{
		At:    time.Now(),
		Type:  typ,
		Table: models.BookmarksTable,
		Owner: owner,
		ID:    id,
	}
	for _, f := range feeds {
		f.Push(event)
	}
}

// Feed is a change feed for one session.
type Feed struct {
	backend *Backend
	ch      chan models.ChangeEvent
	owner   string
	opens   int
	closes  int
	mu      sync.Mutex
}

// Open starts delivering events of owner. The channel closes on Close or when ctx is done.
func (f *Feed) Open(ctx context.Context, owner string) (<-chan models.ChangeEvent, error) {
	_ = f.Close()

	if owner == "" {
		return nil, nil
	}

	ch := make(chan models.ChangeEvent, 64)

	f.mu.Lock()
	f.ch = ch
	f.owner = owner
	f.opens++
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.closeChan(ch)
	}()

	return ch, nil
}

// Close ends the open subscription, if any.
func (f *Feed) Close() error {
	f.mu.Lock()
	ch := f.ch
	f.mu.Unlock()

	if ch != nil {
		f.closeChan(ch)
	}
	return nil
}

// Push delivers event if it belongs to the subscribed owner. Events for a
// closed subscription are dropped.
func (f *Feed) Push(event models.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ch == nil || event.Owner != f.owner {
		return
	}
	select {
	case f.ch <- event:
	default:
	}
}

// Active reports whether a subscription is open and for whom.
func (f *Feed) Active() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owner, f.ch != nil
}

// Counts returns how many times the feed was opened and closed.
func (f *Feed) Counts() (opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.closes
}

func (f *Feed) closeChan(ch chan models.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ch != ch {
		return
	}
	close(ch)
	f.ch = nil
	f.owner = ""
	f.closes++
}
