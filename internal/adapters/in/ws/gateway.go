// Package ws exposes the event broadcaster over websocket connections.
// Clients subscribe to one topic per connection and receive events as
// JSON frames until they disconnect.
package ws

import (
	"log/slog"
	"net/http"
	"time"

	"dispatch/internal/adapters/out/eventbus"
	"dispatch/internal/core/ports"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Gateway upgrades HTTP requests to websocket connections and streams one
// broadcaster topic to each connection.
type Gateway struct {
	broadcaster *eventbus.Broadcaster
	logger      *slog.Logger
}

// NewGateway creates a websocket gateway on top of the broadcaster.
func NewGateway(broadcaster *eventbus.Broadcaster, logger *slog.Logger) *Gateway {
	return &Gateway{
		broadcaster: broadcaster,
		logger:      logger.With("component", "ws_gateway"),
	}
}

// Handle serves GET /ws?topic=... by subscribing the connection to the
// requested topic and writing every event as a JSON frame.
func (g *Gateway) Handle(ctx echo.Context) error {
	topic := ctx.QueryParam("topic")
	if topic == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"message": "topic query parameter is required",
		})
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "error", err)
		return nil
	}

	events, cancel := g.broadcaster.Subscribe(topic)

	go g.readPump(conn, cancel)
	go g.writePump(conn, topic, events)

	return nil
}

// readPump drains inbound frames so pong handlers run, and unsubscribes
// when the client goes away.
func (g *Gateway) readPump(conn *websocket.Conn, cancel func()) {
	defer cancel()
	defer conn.Close()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump streams subscribed events to the connection and keeps it
// alive with periodic pings.
func (g *Gateway) writePump(conn *websocket.Conn, topic string, events <-chan ports.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case event, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				g.logger.Debug("websocket write failed", "topic", topic, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
