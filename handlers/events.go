package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/krushee/krushee-backend-go/catalog"
	"github.com/krushee/krushee-backend-go/logger"
)

const (
	writeWait   = 10 * time.Second
	eventBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type storageEvent struct {
	Key string `json:"key"`
}

type catalogEvent struct {
	Collection string `json:"collection"`
	Items      any    `json:"items"`
}

// SessionEvents pushes a message naming the changed key every time the shopper's local
// store is written, so other open tabs can reload their cart or addresses.
func (h *Handler) SessionEvents(c echo.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan any, eventBuffer)
	stop, err := h.local(c).Watch(ctx, func(name string) {
		push(events, storageEvent{Key: name})
	})
	if err != nil {
		return h.fail(c, err)
	}
	defer stop()

	return serveEvents(ctx, c, cancel, events)
}

// CatalogStream pushes the full contents of a catalog collection on connect and after
// every change.
func (h *Handler) CatalogStream(c echo.Context) error {
	collection := c.Param("collection")
	if !catalog.Streamable(collection) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Unknown catalog collection"})
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan any, eventBuffer)
	stop, err := h.catalog.Watch(ctx, collection, func(items any) {
		push(events, catalogEvent{Collection: collection, Items: items})
	})
	if err != nil {
		return h.fail(c, err)
	}
	defer stop()

	return serveEvents(ctx, c, cancel, events)
}

// push drops the event when the client is not keeping up; the next one carries the
// same or newer state.
func push(events chan<- any, v any) {
	select {
	case events <- v:
	default:
	}
}

// readUntilClosed drains client frames and cancels once the peer goes away.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// serveEvents upgrades the request and writes events until either side goes away.
// The watch is registered before the upgrade so nothing written after the handshake
// is missed.
func serveEvents(ctx context.Context, c echo.Context, cancel context.CancelFunc, events <-chan any) error {
	log := logger.FromEcho(c)
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()
	go readUntilClosed(conn, cancel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return nil
			}
		}
	}
}
