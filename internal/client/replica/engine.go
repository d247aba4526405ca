// Package replica keeps an in-memory, ordered copy of the current user's
// bookmarks in step with the remote store.
//
// The replica is never merged: every refresh replaces it with the rows the
// store returned. Local mutations and remote change notifications both end in
// a refresh, so the replica converges to the store no matter how the initial
// fetch and the notification stream interleave.
package replica

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/bookmarks/internal/models"
)

// Snapshot is the published state of the replica.
type Snapshot struct {
	Err       error             // последняя ошибка refresh, иначе ошибка подписки
	Bookmarks []models.Bookmark // newest first
	Loading   bool
}

type versioned struct {
	snap    Snapshot
	version uint64
}

// Engine owns the replica and the change feed subscription of the current session.
// All methods are safe for concurrent use; the internal lock is never held
// while talking to the store or the feed.
type Engine struct {
	logger  *slog.Logger
	store   Store
	feed    Feed
	session Session

	// ctx сессии без отмены: refresh по уведомлениям не прерывается вместе с сессией
	sessionCtx context.Context
	cancelFeed context.CancelFunc
	err        error
	identity   models.Identity
	bookmarks  []models.Bookmark
	feedErr    error // подписка потеряна, идёт переподключение
	watchers   []func(Snapshot)
	settled    *sync.Cond // сигнал на e.mu, когда pending становится 0
	epoch      uint64
	issued     uint64 // номер последнего отправленного List
	applied    uint64 // номер List, результат которого сейчас в реплике
	version    uint64
	published  uint64
	loading    int
	pending    int // refresh по уведомлениям, ещё не завершённые
	reopenMin  time.Duration
	reopenMax  time.Duration
	mu         sync.Mutex
	watchMu    sync.Mutex
	active     bool
	bound      bool
}

const (
	reopenMinDelay = 500 * time.Millisecond
	reopenMaxDelay = 30 * time.Second
)

// New creates an engine with no session.
func New(logger *slog.Logger, store Store, feed Feed, session Session) *Engine {
	e := &Engine{
		logger:    logger,
		store:     store,
		feed:      feed,
		session:   session,
		reopenMin: reopenMinDelay,
		reopenMax: reopenMaxDelay,
	}
	e.settled = sync.NewCond(&e.mu)
	return e
}

// Bind follows session changes from now on and starts for the identity that
// is already established, if any. The session listener is registered once;
// later calls only start for the current identity.
func (e *Engine) Bind(ctx context.Context) error {
	e.mu.Lock()
	first := !e.bound
	e.bound = true
	e.mu.Unlock()

	if first {
		e.session.OnSessionChange(func(identity models.Identity, active bool) {
			if !active {
				e.End()
				return
			}
			if err := e.Start(ctx, identity); err != nil {
				e.logger.Error("initial refresh failed", slog.String("user_id", identity.UserID), slog.Any("error", err))
			}
		})
	}

	identity, ok := e.session.CurrentIdentity()
	if !ok {
		return nil
	}
	return e.Start(ctx, identity)
}

// Start begins a session for identity: the replica is cleared, then the change
// feed is opened while the initial refresh runs. It returns the result of the
// initial refresh; a feed that cannot be opened is only logged.
func (e *Engine) Start(ctx context.Context, identity models.Identity) error {
	if identity.UserID == "" {
		return ErrNoSession
	}

	feedCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	if e.cancelFeed != nil {
		e.cancelFeed()
	}
	e.epoch++
	epoch := e.epoch
	e.identity = identity
	e.active = true
	e.bookmarks = nil
	e.err = nil
	e.feedErr = nil
	e.loading = 0
	e.sessionCtx = context.WithoutCancel(ctx)
	e.cancelFeed = cancel
	snap := e.publishLocked()
	e.mu.Unlock()

	e.notify(snap)

	var g errgroup.Group

	g.Go(func() error {
		events, err := e.feed.Open(feedCtx, identity.UserID)
		if err != nil {
			e.logger.Warn("change feed unavailable, live updates disabled",
				slog.String("user_id", identity.UserID), slog.Any("error", err))
			return nil
		}
		if events != nil {
			go e.follow(feedCtx, epoch, identity.UserID, events)
		}
		return nil
	})

	g.Go(func() error {
		return e.Refresh(ctx)
	})

	return g.Wait()
}

// End closes the subscription and clears the replica. Results of store
// requests still in flight are discarded when they arrive.
func (e *Engine) End() {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	e.epoch++
	e.active = false
	e.identity = models.Identity{}
	e.bookmarks = nil
	e.err = nil
	e.feedErr = nil
	e.loading = 0
	cancel := e.cancelFeed
	e.cancelFeed = nil
	snap := e.publishLocked()
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := e.feed.Close(); err != nil {
		e.logger.Warn("failed to close change feed", slog.Any("error", err))
	}

	e.notify(snap)
}

// Refresh replaces the replica with the current rows of the store.
// Overlapping calls are not serialized. A response is applied unless a
// request issued later has already been applied, so the replica always equals
// one complete response and never goes back to an older one.
// On failure the replica is kept and the error is recorded in the snapshot.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return ErrNoSession
	}
	epoch, owner := e.epoch, e.identity.UserID
	e.issued++
	seq := e.issued
	e.loading++
	snap := e.publishLocked()
	e.mu.Unlock()

	e.notify(snap)

	rows, err := e.store.List(ctx, owner)
	if err == nil {
		rows = e.ownRows(owner, rows)
	}

	e.mu.Lock()
	if epoch != e.epoch {
		e.mu.Unlock()
		e.logger.Debug("discarding refresh result of a finished session", slog.String("user_id", owner))
		return nil
	}

	e.loading--
	if err != nil {
		err = &StoreRequestError{Op: "list", Err: err}
	}
	// ответ на более ранний запрос пришёл позже более нового
	outdated := seq < e.applied
	switch {
	case outdated:
	case err != nil:
		e.err = err
	default:
		e.bookmarks = rows
		e.err = nil
		e.applied = seq
	}
	snap = e.publishLocked()
	e.mu.Unlock()

	e.notify(snap)

	if outdated {
		e.logger.Debug("discarding outdated refresh result", slog.String("user_id", owner))
	}
	if err != nil {
		e.logger.Error("failed to refresh bookmarks", slog.String("user_id", owner), slog.Any("error", err))
		return err
	}

	return nil
}

// OnChangeNotification schedules a refresh for any event of the current
// session. The payload is not inspected.
func (e *Engine) OnChangeNotification(event models.ChangeEvent) {
	e.mu.Lock()
	epoch := e.epoch
	e.mu.Unlock()

	e.deliver(epoch, event)
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Identity returns the identity of the running session.
func (e *Engine) Identity() (models.Identity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity, e.active
}

// Watch registers fn to receive every published snapshot, in publication order.
// fn must not call Watch.
func (e *Engine) Watch(fn func(Snapshot)) {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	e.watchers = append(e.watchers, fn)
}

// Wait blocks until no refresh scheduled by a notification is running.
// It may be called concurrently with notifications; refreshes scheduled
// while waiting are waited for as well.
func (e *Engine) Wait() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.pending > 0 {
		e.settled.Wait()
	}
}

func (e *Engine) deliver(epoch uint64, event models.ChangeEvent) {
	e.mu.Lock()
	if !e.active || epoch != e.epoch {
		e.mu.Unlock()
		e.logger.Debug("ignoring change event of a finished session", slog.String("type", string(event.Type)))
		return
	}
	ctx := e.sessionCtx
	e.pending++
	e.mu.Unlock()

	e.logger.Debug("change event received", slog.String("type", string(event.Type)), slog.String("id", event.ID))

	go func() {
		defer e.done()
		// ошибка уже записана в снапшот и залогирована
		if err := e.Refresh(ctx); err != nil && !errors.Is(err, ErrNoSession) {
			e.logger.Debug("notification refresh failed", slog.Any("error", err))
		}
	}()
}

func (e *Engine) done() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending--
	if e.pending == 0 {
		e.settled.Broadcast()
	}
}

// follow delivers the events of the session's stream. When the stream ends
// while the session is still running, the loss is published and the feed is
// reopened with a capped backoff until it succeeds or the session ends.
func (e *Engine) follow(ctx context.Context, epoch uint64, owner string, events <-chan models.ChangeEvent) {
	for {
		for event := range events {
			e.deliver(epoch, event)
		}

		if !e.current(epoch) || ctx.Err() != nil {
			e.logger.Debug("change feed stream ended")
			return
		}

		e.logger.Warn("change feed stream ended, reconnecting", slog.String("user_id", owner))
		e.setFeedErr(epoch, ErrFeedInterrupted)

		events = e.reopen(ctx, epoch, owner)
		if events == nil {
			return
		}

		e.logger.Info("change feed reconnected", slog.String("user_id", owner))
		e.setFeedErr(epoch, nil)
		// пока подписки не было, изменения могли пропасть
		e.deliver(epoch, models.ChangeEvent{Table: models.BookmarksTable, Owner: owner})
	}
}

// reopen retries feed.Open until it yields a stream. It returns nil when the
// session ended first.
func (e *Engine) reopen(ctx context.Context, epoch uint64, owner string) <-chan models.ChangeEvent {
	delay := e.reopenMin
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if !e.current(epoch) {
			return nil
		}

		events, err := e.feed.Open(ctx, owner)
		if err == nil && events != nil {
			return events
		}
		if err != nil {
			e.logger.Warn("failed to reopen change feed", slog.String("user_id", owner),
				slog.Duration("retry_in", delay), slog.Any("error", err))
		}

		delay = min(delay*2, e.reopenMax)
		timer.Reset(delay)
	}
}

func (e *Engine) current(epoch uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active && epoch == e.epoch
}

func (e *Engine) setFeedErr(epoch uint64, err error) {
	e.mu.Lock()
	if !e.active || epoch != e.epoch {
		e.mu.Unlock()
		return
	}
	e.feedErr = err
	snap := e.publishLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// ownRows drops rows of other owners and restores newest-first order.
func (e *Engine) ownRows(owner string, rows []models.Bookmark) []models.Bookmark {
	own := make([]models.Bookmark, 0, len(rows))
	for _, b := range rows {
		if b.UserID != owner {
			e.logger.Warn("store returned a bookmark of another user, dropping it",
				slog.String("user_id", owner), slog.String("bookmark_id", b.ID))
			continue
		}
		own = append(own, b)
	}
	models.SortNewestFirst(own)
	return own
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Bookmarks: slices.Clone(e.bookmarks),
		Loading:   e.loading > 0,
		Err:       cmp.Or(e.err, e.feedErr),
	}
}

func (e *Engine) publishLocked() versioned {
	e.version++
	return versioned{snap: e.snapshotLocked(), version: e.version}
}

// notify drops snapshots that were overtaken by a newer one.
func (e *Engine) notify(v versioned) {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if v.version <= e.published {
		return
	}
	e.published = v.version

	for _, fn := range e.watchers {
		fn(v.snap)
	}
}
