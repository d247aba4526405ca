package changefeed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/juju/pubsub/v2"

	"github.com/iudanet/bookmarks/internal/models"
)

// subscriber receives the events of one topic (owner) from the simple hub.
// Handlers may still run after unsubscribe, so sends are guarded by mu.
type subscriber struct {
	ch          chan models.ChangeEvent
	unsubscribe func()
	owner       string
	mu          sync.Mutex
	closed      bool
}

func (s *subscriber) deliver(logger *slog.Logger, event models.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case s.ch <- event:
	default:
		logger.Debug("subscriber queue full, event dropped",
			slog.String("owner", event.Owner),
			slog.String("type", string(event.Type)))
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Hub is an in-process Broker on top of a pubsub.SimpleHub, one topic per owner.
// It serves a single server instance.
type Hub struct {
	logger *slog.Logger
	hub    *pubsub.SimpleHub
	subs   map[*subscriber]struct{}
	mu     sync.Mutex
	closed bool
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		hub: pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{
			Logger: hubLogger{logger: logger.With(slog.String("component", "localhub"))},
		}),
		subs: make(map[*subscriber]struct{}),
	}
}

// Publish hands the event to every subscriber of its owner without blocking.
func (h *Hub) Publish(ctx context.Context, event models.ChangeEvent) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()

	if closed {
		return ErrClosed
	}

	_ = h.hub.Publish(ownerTopic(event.Owner), event)
	return nil
}

// Subscribe registers a subscriber for owner
func (h *Hub) Subscribe(ctx context.Context, owner string) (<-chan models.ChangeEvent, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, nil, ErrClosed
	}

	sub := &subscriber{
		ch:    make(chan models.ChangeEvent, subscriberBuffer),
		owner: owner,
	}
	sub.unsubscribe = h.hub.Subscribe(ownerTopic(owner), func(topic string, data interface{}) {
		event, ok := data.(models.ChangeEvent)
		if !ok {
			h.logger.Warn("unexpected change payload", slog.String("topic", topic))
			return
		}
		sub.deliver(h.logger, event)
	})
	h.subs[sub] = struct{}{}

	cancel := func() { h.remove(sub) }

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return sub.ch, cancel, nil
}

// Subscribers returns the number of live subscriptions for owner
func (h *Hub) Subscribers(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for sub := range h.subs {
		if sub.owner == owner {
			n++
		}
	}
	return n
}

// Close drops all subscriptions; their channels are closed
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for sub := range subs {
		sub.unsubscribe()
		sub.close()
	}

	return nil
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()

	if ok {
		sub.unsubscribe()
	}
	sub.close()
}

func ownerTopic(owner string) string {
	return "bookmarks.changes." + owner
}

// hubLogger routes the hub's own debug and error output to slog.
type hubLogger struct {
	logger *slog.Logger
}

func (l hubLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l hubLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l hubLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l hubLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l hubLogger) Tracef(format string, args ...interface{}) {}
