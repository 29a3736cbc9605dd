package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sentrycore/site/internal/domain"
	"github.com/sentrycore/site/internal/listing"
	"github.com/sentrycore/site/internal/present/rest/presenter"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type     string `json:"type"`
	Query    string `json:"query"`
	Category string `json:"category"`
	Page     int    `json:"page"`
}

// latest is a one-slot mailbox. Posting replaces whatever the writer has not
// picked up yet, so a slow client only ever receives the newest state.
type latest[T any] struct {
	ch chan T
}

func newLatest[T any]() *latest[T] {
	return &latest[T]{ch: make(chan T, 1)}
}

// post must not be called concurrently with itself.
func (l *latest[T]) post(v T) {
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

func (h *Handler) handleRealtimeList(c echo.Context) error {
	kind, ok := domain.KindOfTable(c.Param("table"))
	if !ok {
		return presenter.NotFound(c, "unknown table")
	}

	ctx := c.Request().Context()
	sessionID := uuid.NewString()

	seed, err := h.record.List(ctx, kind)
	if err != nil {
		slog.ErrorContext(
			ctx, "Error fetching initial snapshot",
			slog.String("error", err.Error()),
			slog.String("table", kind.Table()),
			slog.String("session", sessionID),
			slog.String("module", "socket"),
		)
		seed = nil
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	updates := newLatest[listing.ViewState]()
	view := listing.NewListView(listing.ViewConfig{
		Kind:            kind,
		PageSize:        h.record.PageSize(),
		TransitionDelay: h.config.TransitionDelay,
		Renderer:        h.record.Renderer(),
		OnChange:        updates.post,
	}, seed, h.subscriber)
	defer view.Close()

	slog.DebugContext(
		ctx, "List session opened",
		slog.String("table", kind.Table()),
		slog.String("session", sessionID),
		slog.String("module", "socket"),
	)

	quit := make(chan struct{})
	go readPump(ctx, ws, sessionID, quit, func(req Request) {
		switch req.Type {
		case "query":
			view.SetQuery(req.Query)
		case "category":
			view.SetCategory(req.Category)
		case "page":
			view.SelectPage(req.Page)
		case "h": // heartbeat
			// do nothing
		default:
			slog.InfoContext(
				ctx, "Unknown request type",
				slog.String("type", req.Type),
				slog.String("session", sessionID),
				slog.String("module", "socket"),
			)
		}
	})

	view.Mount(ctx)

	writePump(ctx, ws, sessionID, quit, updates)
	return nil
}

func (h *Handler) handleRealtimeBlog(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	sessionID := uuid.NewString()

	rec, err := h.record.Get(ctx, domain.KindPost, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "Blog not found")
		}
		return presenter.InternalError(c, err)
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	updates := newLatest[domain.Record]()
	updates.post(rec)

	if h.subscriber != nil {
		sub, err := h.subscriber.Watch(ctx, domain.TableBlogs, id, updates.post)
		if err != nil {
			slog.ErrorContext(
				ctx, "Error setting up real-time",
				slog.String("error", err.Error()),
				slog.String("id", id),
				slog.String("session", sessionID),
				slog.String("module", "socket"),
			)
		} else {
			defer sub.Detach()
		}
	}

	quit := make(chan struct{})
	go readPump(ctx, ws, sessionID, quit, func(req Request) {})

	writePump(ctx, ws, sessionID, quit, updates)
	return nil
}

// readPump decodes client requests until the connection fails, then closes quit.
func readPump(ctx context.Context, ws *websocket.Conn, sessionID string, quit chan<- struct{}, handle func(Request)) {
	defer close(quit)

	ws.SetReadLimit(maxMsgSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var req Request
		err := ws.ReadJSON(&req)
		if err != nil {
			var wsErr *websocket.CloseError
			if errors.As(err, &wsErr) {
				if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
					slog.DebugContext(
						ctx, "WebSocket closed",
						slog.String("error", wsErr.Error()),
						slog.String("session", sessionID),
						slog.String("module", "socket"),
					)
				}
			} else {
				slog.ErrorContext(
					ctx, "Error reading message",
					slog.String("error", err.Error()),
					slog.String("session", sessionID),
					slog.String("module", "socket"),
				)
			}
			return
		}

		// heartbeat also extends the deadline for clients that do not answer pings
		ws.SetReadDeadline(time.Now().Add(pongWait))
		handle(req)
	}
}

func writePump[T any](ctx context.Context, ws *websocket.Conn, sessionID string, quit <-chan struct{}, updates *latest[T]) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ctx.Done():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case item := <-updates.ch:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := ws.WriteJSON(item)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("session", sessionID),
					slog.String("module", "socket"),
				)
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := ws.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				return
			}
		}
	}
}
