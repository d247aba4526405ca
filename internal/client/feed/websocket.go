package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/bookmarks/internal/models"
	"github.com/iudanet/bookmarks/pkg/api"
)

const (
	// writeWait limits control frame writes.
	writeWait = 10 * time.Second

	// pongDelay is how long the stream stays open without hearing from the server.
	// The server pings more often than this.
	pongDelay = 90 * time.Second

	eventBuffer = 16
)

// WebsocketTransport subscribes through GET /api/v1/changes.
type WebsocketTransport struct {
	logger  *slog.Logger
	tokens  TokenSource
	dialer  *websocket.Dialer
	baseURL string
}

// NewWebsocketTransport creates a transport for the server at baseURL (http or https).
func NewWebsocketTransport(logger *slog.Logger, baseURL string, tokens TokenSource) *WebsocketTransport {
	return &WebsocketTransport{
		logger:  logger,
		tokens:  tokens,
		baseURL: baseURL,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Subscribe dials the change feed of owner. The stream is closed when ctx is done.
func (t *WebsocketTransport) Subscribe(ctx context.Context, owner string) (Stream, error) {
	endpoint, err := changesURL(t.baseURL, owner)
	if err != nil {
		return nil, err
	}

	token, err := t.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := t.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("change feed handshake failed (%d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial change feed: %w", err)
	}

	stream := &wsStream{
		logger: t.logger,
		conn:   conn,
		events: make(chan models.ChangeEvent, eventBuffer),
		done:   make(chan struct{}),
	}

	go stream.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			_ = stream.Close()
		case <-stream.done:
		}
	}()

	return stream, nil
}

// changesURL maps http(s)://host/prefix to ws(s)://host/prefix/api/v1/changes?table=bookmarks&owner=...
func changesURL(baseURL, owner string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server url scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/changes"
	u.RawQuery = url.Values{
		"table": {models.BookmarksTable},
		"owner": {owner},
	}.Encode()

	return u.String(), nil
}

type wsStream struct {
	logger    *slog.Logger
	conn      *websocket.Conn
	events    chan models.ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
}

func (s *wsStream) Events() <-chan models.ChangeEvent {
	return s.events
}

func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = s.conn.Close()
	})
	return err
}

func (s *wsStream) readLoop() {
	defer close(s.events)

	_ = s.conn.SetReadDeadline(time.Now().Add(pongDelay))
	s.conn.SetPingHandler(func(data string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongDelay))
		err := s.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		var msg api.ChangeEvent
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.logReadError(err)
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongDelay))

		event := models.ChangeEvent{
			At:    msg.At,
			Type:  models.ChangeType(msg.Type),
			Table: msg.Table,
			Owner: msg.Owner,
			ID:    msg.ID,
		}

		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}

func (s *wsStream) logReadError(err error) {
	select {
	case <-s.done:
		// закрыли сами
		return
	default:
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.logger.Info("change feed closed by server", slog.Any("error", err))
		return
	}

	s.logger.Warn("change feed disconnected", slog.Any("error", err))
}
