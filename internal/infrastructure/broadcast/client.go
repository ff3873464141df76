package broadcast

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/domain/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
)

// Client is one websocket connection of an authenticated user
type Client struct {
	ID     string
	UserID int64

	channels []string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	logger   *zap.Logger
}

// NewClient creates a client subscribed to the channels u may read
func NewClient(hub *Hub, conn *websocket.Conn, u *entity.User, logger *zap.Logger) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   u.ID,
		channels: SubscriptionsFor(u),
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		logger:   logger,
	}
}

// readPump drains inbound frames so pongs and close frames are processed.
// Clients do not send application messages.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Websocket read failed", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
	}
}

// writePump writes queued messages, one frame each, and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Upgrader upgrades HTTP requests to websocket connections
type Upgrader struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewUpgrader creates an Upgrader. An empty allowedOrigins accepts any origin.
func NewUpgrader(hub *Hub, allowedOrigins []string, logger *zap.Logger) *Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Upgrader{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// Serve upgrades the request for u and runs the client until the connection closes.
// The upgrader has already written an HTTP error when err is returned before the upgrade.
func (up *Upgrader) Serve(w http.ResponseWriter, r *http.Request, u *entity.User) error {
	conn, err := up.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(up.hub, conn, u, up.logger)
	ctx, cancel := context.WithTimeout(r.Context(), writeWait)
	defer cancel()
	if err := up.hub.Register(ctx, client); err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return err
	}

	go client.writePump()
	client.readPump()
	return nil
}
