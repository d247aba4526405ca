package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/bookmarks/internal/models"
)

// Subscriber keeps at most one open stream for the current identity.
type Subscriber struct {
	logger    *slog.Logger
	transport Transport
	stream    Stream
	owner     string
	mu        sync.Mutex
}

// NewSubscriber creates a subscriber with nothing open.
func NewSubscriber(logger *slog.Logger, transport Transport) *Subscriber {
	return &Subscriber{
		logger:    logger,
		transport: transport,
	}
}

// Open subscribes to the changes of owner and returns the event channel.
// An already open stream is closed first. An empty owner opens nothing and
// returns a nil channel without error.
func (s *Subscriber) Open(ctx context.Context, owner string) (<-chan models.ChangeEvent, error) {
	if err := s.Close(); err != nil {
		s.logger.Warn("failed to close previous change stream", slog.Any("error", err))
	}

	if owner == "" {
		return nil, nil
	}

	stream, err := s.transport.Subscribe(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	// сессия могла завершиться, пока шло подключение
	if err := ctx.Err(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("subscription cancelled: %w", err)
	}

	s.mu.Lock()
	prev := s.stream
	s.stream = stream
	s.owner = owner
	s.mu.Unlock()

	// параллельный Open мог успеть открыть свой поток
	if prev != nil {
		_ = prev.Close()
	}

	s.logger.Debug("change stream opened", slog.String("owner", owner))

	return stream.Events(), nil
}

// Close closes the open stream, if any.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	stream, owner := s.stream, s.owner
	s.stream, s.owner = nil, ""
	s.mu.Unlock()

	if stream == nil {
		return nil
	}

	s.logger.Debug("change stream closed", slog.String("owner", owner))

	return stream.Close()
}

// Owner returns the owner of the open stream, or "" when nothing is open.
func (s *Subscriber) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}
