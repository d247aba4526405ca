package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/bookmarks/internal/models"
	"github.com/iudanet/bookmarks/internal/server/changefeed"
	"github.com/iudanet/bookmarks/pkg/api"
)

const (
	writeWait  = 10 * time.Second
	pongDelay  = 60 * time.Second
	pingPeriod = pongDelay * 9 / 10
)

// ChangesHandler streams row-level bookmark changes of the authenticated
// user over a websocket, one JSON text frame per event.
type ChangesHandler struct {
	logger     *slog.Logger
	broker     changefeed.Broker
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
}

// NewChangesHandler создает handler для /api/v1/changes
func NewChangesHandler(logger *slog.Logger, broker changefeed.Broker) *ChangesHandler {
	return &ChangesHandler{
		logger: logger,
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// доступ проверяется по JWT, а не по Origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		pingPeriod: pingPeriod,
	}
}

// Subscribe обрабатывает GET /api/v1/changes?table=bookmarks&owner=<user_id>
func (h *ChangesHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	if table := query.Get("table"); table != "" && table != models.BookmarksTable {
		sendError(h.logger, w, "unknown table: "+table, http.StatusBadRequest)
		return
	}

	owner := query.Get("owner")
	if owner == "" {
		owner = userID
	}
	if owner != userID {
		h.logger.WarnContext(ctx, "change feed requested for foreign owner",
			slog.String("user_id", userID),
			slog.String("owner", owner))
		sendError(h.logger, w, "owner does not match token", http.StatusForbidden)
		return
	}

	subCtx, cancelSub := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelSub()

	// подписываемся до upgrade, чтобы не потерять события между ответом 101 и циклом
	events, unsubscribe, err := h.broker.Subscribe(subCtx, owner)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to subscribe to changes", slog.Any("error", err))
		sendError(h.logger, w, "change feed unavailable", http.StatusServiceUnavailable)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.WarnContext(ctx, "websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.InfoContext(ctx, "change feed opened", slog.String("user_id", userID))
	defer h.logger.InfoContext(ctx, "change feed closed", slog.String("user_id", userID))

	_ = conn.SetReadDeadline(time.Now().Add(h.pongDelay()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongDelay()))
	})

	gone := h.readUntilClosed(conn)

	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.logger.DebugContext(ctx, "failed to write ping", slog.Any("error", err))
				return
			}
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(toAPIChangeEvent(event)); err != nil {
				h.logger.DebugContext(ctx, "failed to write change event", slog.Any("error", err))
				return
			}
		}
	}
}

func (h *ChangesHandler) pongDelay() time.Duration {
	return h.pingPeriod * 10 / 9
}

// readUntilClosed читает (и отбрасывает) входящие фреймы, чтобы
// обрабатывались control-сообщения; канал закрывается при разрыве
func (h *ChangesHandler) readUntilClosed(conn *websocket.Conn) <-chan struct{} {
	gone := make(chan struct{})

	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	return gone
}

func toAPIChangeEvent(e models.ChangeEvent) api.ChangeEvent {
	return api.ChangeEvent{
		At:    e.At,
		Type:  string(e.Type),
		Table: e.Table,
		Owner: e.Owner,
		ID:    e.ID,
	}
}
